package jsonapi_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

var errUnavailable = errors.New("service unavailable")

type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[int][]string
	failures map[int]error
	requests []int
}

func (f *fakeFetcher) Fetch(_ context.Context, pageNumber int) (*jsonapi.Page[string], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, pageNumber)

	if err := f.failures[pageNumber]; err != nil {
		return nil, err
	}

	return &jsonapi.Page[string]{Number: pageNumber, Items: f.pages[pageNumber]}, nil
}

func (f *fakeFetcher) Requests() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]int(nil), f.requests...)
}

func drain(t *testing.T, it *jsonapi.PageIterator[string]) []string {
	t.Helper()

	var items []string

	for it.HasNext() {
		item, err := it.Next()
		require.NoError(t, err)

		items = append(items, item)
	}

	return items
}

func TestPagedCollection_StopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[int][]string{
		1: {"m1", "m2"},
		2: {"m3"},
		3: {},
		4: {"never"},
	}}

	pages, err := jsonapi.NewPagedCollection(fetcher.Fetch, jsonapi.WithPageLimit(jsonapi.UnlimitedPages))
	require.NoError(t, err)

	it := pages.Iterator(context.Background())

	assert.Equal(t, []string{"m1", "m2", "m3"}, drain(t, it))
	assert.Equal(t, []int{1, 2, 3}, fetcher.Requests())
	assert.Equal(t, 3, it.PagesFetched())
	require.NoError(t, it.Err())

	_, err = it.Next()
	require.ErrorIs(t, err, jsonapi.ErrNoMoreItems)
	assert.Len(t, fetcher.Requests(), 3, "a finished iterator never fetches again")
}

func TestPagedCollection_PageLimit(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[int][]string{
		2: {"a"},
		3: {"b"},
		4: {"c"},
		5: {"d"},
	}}

	pages, err := jsonapi.NewPagedCollection(fetcher.Fetch, jsonapi.StartingAt(2), jsonapi.WithPageLimit(3))
	require.NoError(t, err)

	items, err := pages.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, items)
	assert.Equal(t, []int{2, 3, 4}, fetcher.Requests(), "page 5 is never requested")
}

func TestPagedCollection_ZeroPageLimit(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[int][]string{1: {"a"}}}

	pages, err := jsonapi.NewPagedCollection(fetcher.Fetch, jsonapi.WithPageLimit(0))
	require.NoError(t, err)

	assert.False(t, pages.Iterator(context.Background()).HasNext())
	assert.Empty(t, fetcher.Requests())
}

func TestPagedCollection_FailureStopsSilently(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		pages:    map[int][]string{1: {"m1"}, 3: {"m3"}},
		failures: map[int]error{2: errUnavailable},
	}

	var (
		failedPage int
		failure    error
	)

	logger := &recordingLogger{}

	pages, err := jsonapi.NewPagedCollection(fetcher.Fetch,
		jsonapi.WithPagingLogger(logger),
		jsonapi.OnFetchError(func(page int, err error) {
			failedPage = page
			failure = err
		}),
	)
	require.NoError(t, err)

	it := pages.Iterator(context.Background())

	assert.Equal(t, []string{"m1"}, drain(t, it), "the consumer just sees the end of the sequence")
	assert.Equal(t, []int{1, 2}, fetcher.Requests())

	require.ErrorIs(t, it.Err(), errUnavailable)
	assert.Equal(t, 2, failedPage)
	require.ErrorIs(t, failure, errUnavailable)
	assert.Equal(t, []string{"Stopping iteration after failed page fetch"}, logger.Warnings())

	items, err := pages.Collect(context.Background())
	assert.Equal(t, []string{"m1"}, items)
	require.ErrorIs(t, err, errUnavailable)
}

func TestPagedCollection_NilPageIsFailure(t *testing.T) {
	t.Parallel()

	pages, err := jsonapi.NewPagedCollection(func(context.Context, int) (*jsonapi.Page[string], error) {
		return nil, nil
	})
	require.NoError(t, err)

	it := pages.Iterator(context.Background())
	assert.False(t, it.HasNext())
	require.ErrorIs(t, it.Err(), jsonapi.ErrEmptyPage)
}

func TestPagedCollection_InvalidArguments(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}

	_, err := jsonapi.NewPagedCollection(fetcher.Fetch, jsonapi.StartingAt(0))
	require.ErrorIs(t, err, jsonapi.ErrInvalidPageNumber)

	_, err = jsonapi.NewPagedCollection(fetcher.Fetch, jsonapi.WithPageLimit(-5))
	require.ErrorIs(t, err, jsonapi.ErrInvalidPageLimit)

	_, err = jsonapi.NewPagedCollection[string](nil)
	require.ErrorIs(t, err, jsonapi.ErrNilArgument)

	pages, err := jsonapi.NewPagedCollection(fetcher.Fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, pages.StartPage())
	assert.Equal(t, 50, pages.PageLimit())

	_, err = pages.FetchPage(context.Background(), 0)
	require.ErrorIs(t, err, jsonapi.ErrInvalidPageNumber)
	assert.Empty(t, fetcher.Requests())
}

func TestPagedCollection_FetchPagePropagatesErrors(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{failures: map[int]error{1: errUnavailable}}

	pages, err := jsonapi.NewPagedCollection(fetcher.Fetch)
	require.NoError(t, err)

	_, err = pages.FetchPage(context.Background(), 1)
	require.ErrorIs(t, err, errUnavailable)
}

func TestPagedCollection_IndependentIterators(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[int][]string{1: {"a", "b"}, 2: {"c"}}}

	pages, err := jsonapi.NewPagedCollection(fetcher.Fetch)
	require.NoError(t, err)

	first := pages.Iterator(context.Background())
	second := pages.Iterator(context.Background())

	a, err := first.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", a)

	assert.Equal(t, []string{"a", "b", "c"}, drain(t, second))
	assert.Equal(t, []string{"b", "c"}, drain(t, first))
}

func TestPagedCollection_All(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[int][]string{1: {"a", "b"}, 2: {"c"}, 3: {"d"}}}

	pages, err := jsonapi.NewPagedCollection(fetcher.Fetch)
	require.NoError(t, err)

	var seen []string

	for item := range pages.All(context.Background()) {
		seen = append(seen, item)
		if item == "c" {
			break
		}
	}

	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Equal(t, []int{1, 2}, fetcher.Requests(), "stopping early stops fetching")
}

type recordingLogger struct {
	jsonapi.NopLogger

	mu       sync.Mutex
	warnings []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.warnings = append(l.warnings, msg)
}

func (l *recordingLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.warnings...)
}
