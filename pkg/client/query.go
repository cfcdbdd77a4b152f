package client

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// QueryParams holds the JSON:API query parameters of a request.
type QueryParams struct {
	Page     int
	PageSize int
	Sort     []string
	Include  []string
	Fields   map[string][]string
	Filters  map[string][]string
}

// NewQueryParams creates empty query parameters.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Fields:  make(map[string][]string),
		Filters: make(map[string][]string),
	}
}

// WithPage sets page[number].
func (q *QueryParams) WithPage(page int) *QueryParams {
	q.Page = page

	return q
}

// WithPageSize sets page[size].
func (q *QueryParams) WithPageSize(size int) *QueryParams {
	q.PageSize = size

	return q
}

// WithSort appends sort fields; prefix a field with "-" for descending.
func (q *QueryParams) WithSort(fields ...string) *QueryParams {
	q.Sort = append(q.Sort, fields...)

	return q
}

// WithInclude appends related resources to include.
func (q *QueryParams) WithInclude(relationships ...string) *QueryParams {
	q.Include = append(q.Include, relationships...)

	return q
}

// WithFields replaces the sparse fieldset for resourceType.
func (q *QueryParams) WithFields(resourceType string, fields ...string) *QueryParams {
	if q.Fields == nil {
		q.Fields = make(map[string][]string)
	}

	q.Fields[resourceType] = fields

	return q
}

// WithFilter appends values to filter[key].
func (q *QueryParams) WithFilter(key string, values ...string) *QueryParams {
	if q.Filters == nil {
		q.Filters = make(map[string][]string)
	}

	q.Filters[key] = append(q.Filters[key], values...)

	return q
}

// Clone returns a deep copy. A nil receiver yields empty parameters.
func (q *QueryParams) Clone() *QueryParams {
	if q == nil {
		return NewQueryParams()
	}

	clone := &QueryParams{
		Page:     q.Page,
		PageSize: q.PageSize,
		Sort:     slices.Clone(q.Sort),
		Include:  slices.Clone(q.Include),
		Fields:   make(map[string][]string, len(q.Fields)),
		Filters:  make(map[string][]string, len(q.Filters)),
	}

	for key, values := range q.Fields {
		clone.Fields[key] = slices.Clone(values)
	}

	for key, values := range q.Filters {
		clone.Filters[key] = slices.Clone(values)
	}

	return clone
}

// ToValues encodes the parameters. Multiple values are comma-joined.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}
	if q == nil {
		return values
	}

	if q.Page > 0 {
		values.Set("page[number]", strconv.Itoa(q.Page))
	}

	if q.PageSize > 0 {
		values.Set("page[size]", strconv.Itoa(q.PageSize))
	}

	if len(q.Sort) > 0 {
		values.Set("sort", strings.Join(q.Sort, ","))
	}

	if len(q.Include) > 0 {
		values.Set("include", strings.Join(q.Include, ","))
	}

	for _, resourceType := range slices.Sorted(maps.Keys(q.Fields)) {
		values.Set("fields["+resourceType+"]", strings.Join(q.Fields[resourceType], ","))
	}

	for _, key := range slices.Sorted(maps.Keys(q.Filters)) {
		if len(q.Filters[key]) > 0 {
			values.Set("filter["+key+"]", strings.Join(q.Filters[key], ","))
		}
	}

	return values
}
