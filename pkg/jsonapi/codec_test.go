package jsonapi_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

func TestCodec_MarshalResource(t *testing.T) {
	t.Parallel()

	tier, err := jsonapi.NewBuilder[Tier]().WithIDString("gold").BuildShallow()
	require.NoError(t, err)

	member, err := jsonapi.NewBuilder[Member]().
		WithID(jsonapi.NewIntIdentifier(9)).
		Set("Email", "ada@example.com").
		Set("Name", "Ada").
		Set("Tier", tier).
		Build()
	require.NoError(t, err)

	obj, err := jsonapi.DefaultCodec().MarshalResource(member)
	require.NoError(t, err)

	assert.Equal(t, "members", obj.Type)
	assert.Equal(t, "9", obj.ID)
	assert.JSONEq(t, `"ada@example.com"`, string(obj.Attributes["email"]))
	assert.JSONEq(t, `"Ada"`, string(obj.Attributes["displayName"]))
	assert.JSONEq(t, `0`, string(obj.Attributes["points"]))
	assert.NotContains(t, obj.Attributes, "tier")
	require.Contains(t, obj.Relationships, "tier")
	assert.Equal(t, &jsonapi.ResourceIdentifier{Type: "tier", ID: "gold"}, obj.Relationships["tier"].Data)
}

func TestCodec_MarshalNewModel(t *testing.T) {
	t.Parallel()

	data, err := jsonapi.DefaultCodec().MarshalDocument(&Member{Email: "new@example.com"})
	require.NoError(t, err)

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotContains(t, doc["data"], "id")
	assert.Equal(t, "members", doc["data"]["type"])

	rel := doc["data"]["relationships"].(map[string]any)["tier"].(map[string]any)
	assert.Contains(t, rel, "data")
	assert.Nil(t, rel["data"], "an empty to-one relationship encodes as null")
}

func TestCodec_MarshalUnsavedRelationship(t *testing.T) {
	t.Parallel()

	_, err := jsonapi.DefaultCodec().MarshalResource(&Member{Email: "a@example.com", Tier: &Tier{Name: "draft"}})
	require.ErrorIs(t, err, jsonapi.ErrIdentifierRequired)

	_, err = jsonapi.DefaultCodec().MarshalResource(nil)
	require.ErrorIs(t, err, jsonapi.ErrNilArgument)
}

func TestCodec_UnmarshalDocument(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"data": {
			"type": "members",
			"id": "12",
			"attributes": {
				"email": "ada@example.com",
				"displayName": "Ada",
				"points": 340,
				"tags": ["gold"],
				"unknown": true
			},
			"relationships": {
				"tier": {"data": {"type": "tier", "id": "gold"}}
			}
		}
	}`)

	member, err := jsonapi.UnmarshalDocument[Member](nil, data)
	require.NoError(t, err)

	assert.True(t, jsonapi.NewIntIdentifier(12).Equal(member.ID()))
	assert.Equal(t, "ada@example.com", member.Email)
	assert.Equal(t, "Ada", member.Name)
	assert.Equal(t, int64(340), member.Points)
	assert.Equal(t, []string{"gold"}, member.Tags)
	require.NotNil(t, member.Tier)
	assert.Equal(t, "gold", member.Tier.ID().String())
	assert.Empty(t, member.Tier.Name, "relationships decode as shallow models")
}

func TestCodec_UnmarshalSparseFieldset(t *testing.T) {
	t.Parallel()

	data := []byte(`{"data": {"type": "members", "id": "1", "attributes": {"points": 5}}}`)

	member, err := jsonapi.UnmarshalDocument[Member](nil, data)
	require.NoError(t, err)
	assert.Empty(t, member.Email, "missing required attributes are tolerated when decoding")
	assert.Equal(t, int64(5), member.Points)
}

func TestCodec_UnmarshalErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		err  error
	}{
		{"malformed", `{"data":`, jsonapi.ErrInvalidDocument},
		{"wrong type", `{"data": {"type": "rewards", "id": "1"}}`, jsonapi.ErrInvalidDocument},
		{"collection", `{"data": []}`, jsonapi.ErrInvalidDocument},
		{"bad attribute", `{"data": {"type": "members", "id": "1", "attributes": {"points": "x"}}}`, jsonapi.ErrInvalidDocument},
		{"bad relationship type", `{"data": {"type": "members", "id": "1", "relationships": {"tier": {"data": {"type": "x", "id": "1"}}}}}`, jsonapi.ErrInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := jsonapi.UnmarshalDocument[Member](nil, []byte(tt.data))
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCodec_UnmarshalErrorDocument(t *testing.T) {
	t.Parallel()

	data := []byte(`{"errors": [{"status": "404", "title": "Not Found", "detail": "member 3 does not exist"}]}`)

	_, err := jsonapi.UnmarshalDocument[Member](nil, data)
	require.Error(t, err)
	assert.True(t, jsonapi.IsNotFound(err))
}

func TestCodec_UnmarshalNullData(t *testing.T) {
	t.Parallel()

	member, err := jsonapi.UnmarshalDocument[Member](nil, []byte(`{"data": null}`))
	require.NoError(t, err)
	assert.Nil(t, member)
}

func TestCodec_UnmarshalCollection(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"data": [
			{"type": "members", "id": "1", "attributes": {"email": "a@example.com"}},
			{"type": "members", "id": "2", "attributes": {"email": "b@example.com"}}
		],
		"links": {"next": "/members?page[number]=2"},
		"meta": {"total": 7}
	}`)

	page, err := jsonapi.UnmarshalCollection[Member](nil, data)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "b@example.com", page.Items[1].Email)
	assert.Equal(t, "/members?page[number]=2", page.Links.Next)
	assert.InDelta(t, 7, page.Meta["total"], 0)
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	original, err := jsonapi.NewBuilder[Member]().
		WithIDString("4").
		Set("Email", "ada@example.com").
		Set("Points", 99).
		Set("Labels", []string{"vip"}).
		Build()
	require.NoError(t, err)

	data, err := jsonapi.DefaultCodec().MarshalDocument(original)
	require.NoError(t, err)

	decoded, err := jsonapi.UnmarshalDocument[Member](nil, data)
	require.NoError(t, err)

	assert.True(t, jsonapi.Equal(original, decoded))
	assert.Equal(t, original.Email, decoded.Email)
	assert.Equal(t, original.Points, decoded.Points)
	assert.Equal(t, original.Labels, decoded.Labels)
}
