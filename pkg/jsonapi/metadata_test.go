package jsonapi_test

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func TestRegistry_Metadata(t *testing.T) {
	t.Parallel()

	registry := jsonapi.NewRegistry()

	meta, err := registry.Metadata(reflect.TypeFor[Member]())
	require.NoError(t, err)

	assert.Equal(t, "members", meta.ResourceType)
	assert.Equal(t, []string{"Email", "Name", "Points", "Tags", "Labels", "Tier"}, meta.FieldNames())

	email, ok := meta.Field("Email")
	require.True(t, ok)
	assert.True(t, email.Required)
	assert.Equal(t, "email", email.Attr)

	name, ok := meta.FieldByAttr("displayName")
	require.True(t, ok)
	assert.Equal(t, "Name", name.Name)

	points, ok := meta.Field("Points")
	require.True(t, ok)
	assert.Equal(t, "points", points.Attr)
	assert.False(t, points.Required)

	labels, _ := meta.Field("Labels")
	assert.Equal(t, jsonapi.PreprocessNone, labels.Preprocessor)

	tier, _ := meta.Field("Tier")
	assert.True(t, tier.Relationship)

	_, ok = meta.Field("Cached")
	assert.False(t, ok, "untagged fields are not builder-populated")
}

func TestRegistry_PointerAndStructAgree(t *testing.T) {
	t.Parallel()

	registry := jsonapi.NewRegistry()

	byValue, err := registry.Metadata(reflect.TypeFor[Member]())
	require.NoError(t, err)

	byPointer, err := registry.Metadata(reflect.TypeFor[*Member]())
	require.NoError(t, err)

	assert.Same(t, byValue, byPointer)
	assert.Equal(t, int64(1), registry.Scans())
}

func TestRegistry_CacheTransparency(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	registry := jsonapi.NewRegistry(jsonapi.WithTTL(10*time.Minute), jsonapi.WithClock(clock.Now))

	cold, err := registry.BuilderPopulatedFields(reflect.TypeFor[Member]())
	require.NoError(t, err)

	warm, err := registry.BuilderPopulatedFields(reflect.TypeFor[Member]())
	require.NoError(t, err)
	assert.Equal(t, int64(1), registry.Scans())

	clock.Advance(10 * time.Minute)

	expired, err := registry.BuilderPopulatedFields(reflect.TypeFor[Member]())
	require.NoError(t, err)
	assert.Equal(t, int64(2), registry.Scans(), "expired entries are rescanned")

	registry.Purge()

	purged, err := registry.BuilderPopulatedFields(reflect.TypeFor[Member]())
	require.NoError(t, err)
	assert.Equal(t, int64(3), registry.Scans())

	for _, fields := range [][]*jsonapi.FieldSpec{warm, expired, purged} {
		assert.Equal(t, cold, fields)
	}
}

func TestRegistry_BuilderPopulatedFieldsReturnsCopy(t *testing.T) {
	t.Parallel()

	registry := jsonapi.NewRegistry()

	fields, err := registry.BuilderPopulatedFields(reflect.TypeFor[Member]())
	require.NoError(t, err)
	require.NotEmpty(t, fields)

	fields[0].Required = false
	fields[0].Attr = "changed"
	fields[1] = nil

	again, err := registry.BuilderPopulatedFields(reflect.TypeFor[Member]())
	require.NoError(t, err)
	assert.Equal(t, int64(1), registry.Scans())
	assert.Equal(t, "email", again[0].Attr)
	assert.True(t, again[0].Required)
	assert.NotNil(t, again[1])

	meta, err := registry.Metadata(reflect.TypeFor[Member]())
	require.NoError(t, err)

	email, ok := meta.FieldByAttr("email")
	require.True(t, ok)
	assert.True(t, email.Required)
}

func TestRegistry_BoundedSize(t *testing.T) {
	t.Parallel()

	registry := jsonapi.NewRegistry(jsonapi.WithCapacity(1))

	_, err := jsonapi.MetadataFor[Member](registry)
	require.NoError(t, err)
	_, err = jsonapi.MetadataFor[Tier](registry)
	require.NoError(t, err)
	_, err = jsonapi.MetadataFor[Member](registry)
	require.NoError(t, err)

	assert.Equal(t, int64(3), registry.Scans(), "a full cache evicts instead of growing")
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	t.Parallel()

	registry := jsonapi.NewRegistry()

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				_, err := jsonapi.MetadataFor[Member](registry)
				assert.NoError(t, err)
				_, err = jsonapi.MetadataFor[Tier](registry)
				assert.NoError(t, err)
			}
		}()
	}

	wg.Wait()
}

func TestRegistry_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	registry := jsonapi.NewRegistry()

	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"not a struct", reflect.TypeFor[int]()},
		{"unexported tagged field", reflect.TypeFor[UnexportedTagged]()},
		{"unknown tag option", reflect.TypeFor[BadOption]()},
		{"duplicate wire name", reflect.TypeFor[DuplicateAttr]()},
		{"relationship to non-model", reflect.TypeFor[BadRelationship]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := registry.Metadata(tt.typ)
			require.ErrorIs(t, err, jsonapi.ErrConfiguration)
		})
	}

	_, err := registry.Metadata(nil)
	require.ErrorIs(t, err, jsonapi.ErrNilArgument)
}

func TestFieldSpec_SetConverts(t *testing.T) {
	t.Parallel()

	meta, err := jsonapi.MetadataFor[Member](nil)
	require.NoError(t, err)

	points, _ := meta.Field("Points")
	m := &Member{}

	require.NoError(t, points.Set(m, 12))
	assert.Equal(t, int64(12), m.Points)

	err = points.Set(m, "twelve")
	require.ErrorIs(t, err, jsonapi.ErrFieldType)
	require.ErrorIs(t, err, jsonapi.ErrValidation)

	_, err = points.Get("not a model")
	require.ErrorIs(t, err, jsonapi.ErrConfiguration)
}

func TestDefaultAttrName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"ID":        "id",
		"Name":      "name",
		"URLPath":   "urlPath",
		"MemberID":  "memberID",
		"X":         "x",
		"PointsSum": "pointsSum",
	}

	for in, want := range tests {
		assert.Equal(t, want, jsonapi.DefaultAttrName(in), in)
	}
}
