package jsonapi

import (
	"context"
	"fmt"
	"iter"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
)

// UnlimitedPages disables the page limit. Iteration then ends only on an
// empty page or a failed fetch.
const UnlimitedPages = -1

// Page is one page of a remote collection.
type Page[T any] struct {
	Number int
	Items  []T
	Links  *Links
	Meta   map[string]any
}

// PageFetcher loads the page with the given 1-based number.
type PageFetcher[T any] func(ctx context.Context, pageNumber int) (*Page[T], error)

// PagedCollection is a lazily fetched, restartable sequence over a remote
// paginated resource. Each iterator it hands out has its own state.
type PagedCollection[T any] struct {
	fetch     PageFetcher[T]
	startPage int
	pageLimit int
	logger    Logger
	onError   func(pageNumber int, err error)
}

// PagedOption configures a PagedCollection.
type PagedOption func(*pagedOptions)

type pagedOptions struct {
	startPage int
	pageLimit int
	logger    Logger
	onError   func(int, error)
}

// StartingAt sets the first page fetched (default 1).
func StartingAt(pageNumber int) PagedOption {
	return func(o *pagedOptions) { o.startPage = pageNumber }
}

// WithPageLimit caps the number of pages an iterator fetches. Use
// UnlimitedPages only for resources trusted to end.
func WithPageLimit(limit int) PagedOption {
	return func(o *pagedOptions) { o.pageLimit = limit }
}

// WithPagingLogger sets the logger used to report failed fetches.
func WithPagingLogger(logger Logger) PagedOption {
	return func(o *pagedOptions) { o.logger = logger }
}

// OnFetchError registers a callback invoked when a fetch fails and the
// iteration is cut short.
func OnFetchError(fn func(pageNumber int, err error)) PagedOption {
	return func(o *pagedOptions) { o.onError = fn }
}

// NewPagedCollection wraps fetch in a paged collection.
func NewPagedCollection[T any](fetch PageFetcher[T], opts ...PagedOption) (*PagedCollection[T], error) {
	if fetch == nil {
		return nil, fmt.Errorf("page fetcher: %w", ErrNilArgument)
	}

	o := &pagedOptions{
		startPage: constants.FirstPage,
		pageLimit: constants.DefaultPageLimit,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.startPage < constants.FirstPage {
		return nil, fmt.Errorf("%w: starting page %d", ErrInvalidPageNumber, o.startPage)
	}

	if o.pageLimit < 0 && o.pageLimit != UnlimitedPages {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageLimit, o.pageLimit)
	}

	if o.logger == nil {
		o.logger = NopLogger{}
	}

	return &PagedCollection[T]{
		fetch:     fetch,
		startPage: o.startPage,
		pageLimit: o.pageLimit,
		logger:    o.logger,
		onError:   o.onError,
	}, nil
}

// StartPage returns the first page number iterators fetch.
func (c *PagedCollection[T]) StartPage() int {
	return c.startPage
}

// PageLimit returns the page limit, or UnlimitedPages.
func (c *PagedCollection[T]) PageLimit() int {
	return c.pageLimit
}

// FetchPage loads a single page directly, propagating any failure.
func (c *PagedCollection[T]) FetchPage(ctx context.Context, pageNumber int) (*Page[T], error) {
	if pageNumber < constants.FirstPage {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageNumber, pageNumber)
	}

	return c.fetch(ctx, pageNumber)
}

// Iterator returns a fresh iterator positioned before the first item.
func (c *PagedCollection[T]) Iterator(ctx context.Context) *PageIterator[T] {
	return &PageIterator[T]{
		ctx:        ctx,
		collection: c,
		nextPage:   c.startPage,
	}
}

// All returns a sequential view over a fresh iterator. Breaking out of
// the loop stops fetching.
func (c *PagedCollection[T]) All(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		it := c.Iterator(ctx)
		for it.HasNext() {
			item, err := it.Next()
			if err != nil || !yield(item) {
				return
			}
		}
	}
}

// Collect drains a fresh iterator. The items gathered before a failed
// fetch are returned together with that failure.
func (c *PagedCollection[T]) Collect(ctx context.Context) ([]T, error) {
	var items []T

	it := c.Iterator(ctx)
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return items, err
		}

		items = append(items, item)
	}

	return items, it.Err()
}

// PageIterator walks a PagedCollection one buffered page at a time. It is
// not safe for concurrent use; separate iterators are independent.
type PageIterator[T any] struct {
	ctx        context.Context //nolint:containedctx // iterator protocol has no per-call context
	collection *PagedCollection[T]

	buffer   []T
	cursor   int
	nextPage int
	fetched  int
	finished bool
	err      error
}

// HasNext reports whether another item is available, fetching the next
// page when the buffered one is used up. A failed fetch ends the sequence
// the same way an empty page does; Err tells the two apart.
func (it *PageIterator[T]) HasNext() bool {
	for it.cursor >= len(it.buffer) {
		if it.finished || !it.fetchNext() {
			it.finished = true

			return false
		}
	}

	return true
}

// Next returns the next item, or ErrNoMoreItems once the sequence ends.
func (it *PageIterator[T]) Next() (T, error) {
	if !it.HasNext() {
		var zero T

		return zero, ErrNoMoreItems
	}

	item := it.buffer[it.cursor]
	it.cursor++

	return item, nil
}

// Err returns the fetch failure that ended iteration, if any.
func (it *PageIterator[T]) Err() error {
	return it.err
}

// PagesFetched reports how many fetches the iterator has issued.
func (it *PageIterator[T]) PagesFetched() int {
	return it.fetched
}

func (it *PageIterator[T]) fetchNext() bool {
	c := it.collection

	if c.pageLimit != UnlimitedPages && it.nextPage >= c.startPage+c.pageLimit {
		return false
	}

	pageNumber := it.nextPage
	it.nextPage++
	it.fetched++

	page, err := c.fetch(it.ctx, pageNumber)
	if err == nil && page == nil {
		err = fmt.Errorf("%w: page %d", ErrEmptyPage, pageNumber)
	}

	if err != nil {
		it.fail(pageNumber, err)

		return false
	}

	if len(page.Items) == 0 {
		return false
	}

	it.buffer = page.Items
	it.cursor = 0

	return true
}

func (it *PageIterator[T]) fail(pageNumber int, err error) {
	it.err = fmt.Errorf("fetching page %d: %w", pageNumber, err)

	it.collection.logger.Warn("Stopping iteration after failed page fetch", map[string]interface{}{
		"page":  pageNumber,
		"error": err.Error(),
	})

	if it.collection.onError != nil {
		it.collection.onError(pageNumber, err)
	}
}
