package client_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/client"
)

func TestQueryParams_ToValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		params   *client.QueryParams
		expected url.Values
	}{
		{
			name:     "nil params",
			params:   nil,
			expected: url.Values{},
		},
		{
			name:     "empty params",
			params:   client.NewQueryParams(),
			expected: url.Values{},
		},
		{
			name:     "with pagination",
			params:   &client.QueryParams{Page: 2, PageSize: 50},
			expected: url.Values{"page[number]": {"2"}, "page[size]": {"50"}},
		},
		{
			name:     "with sort",
			params:   &client.QueryParams{Sort: []string{"-points", "name"}},
			expected: url.Values{"sort": {"-points,name"}},
		},
		{
			name:     "with includes",
			params:   &client.QueryParams{Include: []string{"member", "reward"}},
			expected: url.Values{"include": {"member,reward"}},
		},
		{
			name: "with fields",
			params: &client.QueryParams{Fields: map[string][]string{
				"members": {"email", "points"},
				"tiers":   {"name"},
			}},
			expected: url.Values{"fields[members]": {"email,points"}, "fields[tiers]": {"name"}},
		},
		{
			name: "with filters",
			params: &client.QueryParams{Filters: map[string][]string{
				"status": {"active", "pending"},
				"empty":  {},
			}},
			expected: url.Values{"filter[status]": {"active,pending"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.params.ToValues())
		})
	}
}

func TestQueryParams_Builders(t *testing.T) {
	t.Parallel()

	t.Run("chaining methods", func(t *testing.T) {
		t.Parallel()

		values := client.NewQueryParams().
			WithPage(3).
			WithPageSize(25).
			WithSort("-createdAt").
			WithInclude("tier").
			WithFields("members", "email").
			WithFilter("tier", "gold").
			ToValues()

		assert.Equal(t, "3", values.Get("page[number]"))
		assert.Equal(t, "25", values.Get("page[size]"))
		assert.Equal(t, "-createdAt", values.Get("sort"))
		assert.Equal(t, "tier", values.Get("include"))
		assert.Equal(t, "email", values.Get("fields[members]"))
		assert.Equal(t, "gold", values.Get("filter[tier]"))
	})

	t.Run("WithFilter appends", func(t *testing.T) {
		t.Parallel()

		params := client.NewQueryParams().WithFilter("id", "1").WithFilter("id", "2", "3")
		assert.Equal(t, []string{"1", "2", "3"}, params.Filters["id"])
	})

	t.Run("WithFields replaces", func(t *testing.T) {
		t.Parallel()

		params := client.NewQueryParams().WithFields("rewards", "name").WithFields("rewards", "points")
		assert.Equal(t, []string{"points"}, params.Fields["rewards"])
	})

	t.Run("builders work on a zero value", func(t *testing.T) {
		t.Parallel()

		params := &client.QueryParams{}
		params.WithFilter("a", "b").WithFields("t", "f")
		assert.Equal(t, "b", params.ToValues().Get("filter[a]"))
	})
}

func TestQueryParams_Clone(t *testing.T) {
	t.Parallel()

	original := client.NewQueryParams().WithFilter("tier", "gold").WithSort("name")
	clone := original.Clone().WithFilter("tier", "silver").WithPage(4)

	assert.Equal(t, []string{"gold"}, original.Filters["tier"])
	assert.Zero(t, original.Page)
	assert.Equal(t, []string{"gold", "silver"}, clone.Filters["tier"])

	var missing *client.QueryParams
	assert.NotNil(t, missing.Clone())
}
