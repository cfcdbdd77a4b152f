package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

// ResourceClient performs CRUD operations on one resource type.
type ResourceClient[M any, P jsonapi.ModelPtr[M]] struct {
	client *Client
	path   string
}

// NewResourceClient creates a resource client rooted at path, e.g.
// "/members". An empty path uses "/" plus the model's resource type.
func NewResourceClient[M any, P jsonapi.ModelPtr[M]](client *Client, path string) *ResourceClient[M, P] {
	if path == "" {
		path = "/" + jsonapi.ResourceTypeOf(P(new(M)))
	}

	return &ResourceClient[M, P]{
		client: client,
		path:   "/" + strings.Trim(path, "/"),
	}
}

// Path returns the collection path.
func (r *ResourceClient[M, P]) Path() string {
	return r.path
}

func (r *ResourceClient[M, P]) itemPath(id jsonapi.Identifier) (string, error) {
	if id == nil || id.IsNew() {
		return "", fmt.Errorf("%s: %w", r.path, jsonapi.ErrIdentifierRequired)
	}

	return r.path + "/" + id.String(), nil
}

// Get fetches one resource by identifier.
func (r *ResourceClient[M, P]) Get(ctx context.Context, id jsonapi.Identifier, params *QueryParams) (P, error) {
	path, err := r.itemPath(id)
	if err != nil {
		return nil, err
	}

	body, err := r.client.get(ctx, path, params.ToValues())
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", path, err)
	}

	model, err := jsonapi.UnmarshalDocument[M, P](r.client.codec, body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if model == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoData)
	}

	return model, nil
}

// GetMany fetches resources by identifier concurrently. Results keep the
// order of ids; the first failure cancels the rest.
func (r *ResourceClient[M, P]) GetMany(ctx context.Context, ids []jsonapi.Identifier) ([]P, error) {
	results := make([]P, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.DefaultConcurrencyLimit)

	for i, id := range ids {
		g.Go(func() error {
			model, err := r.Get(ctx, id, nil)
			if err != nil {
				return err
			}

			results[i] = model

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}

// Page fetches one page of the collection.
func (r *ResourceClient[M, P]) Page(ctx context.Context, params *QueryParams, pageNumber int) (*jsonapi.Page[P], error) {
	if pageNumber < constants.FirstPage {
		return nil, fmt.Errorf("%w: %d", jsonapi.ErrInvalidPageNumber, pageNumber)
	}

	query := params.Clone().WithPage(pageNumber)
	if query.PageSize <= 0 {
		query.PageSize = r.client.pageSize
	}

	body, err := r.client.get(ctx, r.path, query.ToValues())
	if err != nil {
		return nil, fmt.Errorf("listing %s page %d: %w", r.path, pageNumber, err)
	}

	page, err := jsonapi.UnmarshalCollection[M, P](r.client.codec, body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s page %d: %w", r.path, pageNumber, err)
	}

	page.Number = pageNumber

	return page, nil
}

// List returns a lazily paged view of the collection. opts are applied
// after the client's page limit and logger.
func (r *ResourceClient[M, P]) List(params *QueryParams, opts ...jsonapi.PagedOption) (*jsonapi.PagedCollection[P], error) {
	frozen := params.Clone()

	fetch := func(ctx context.Context, pageNumber int) (*jsonapi.Page[P], error) {
		return r.Page(ctx, frozen, pageNumber)
	}

	defaults := []jsonapi.PagedOption{
		jsonapi.WithPageLimit(r.client.pageLimit),
		jsonapi.WithPagingLogger(r.client.logger),
	}

	return jsonapi.NewPagedCollection(fetch, append(defaults, opts...)...)
}

// Find lists the collection and keeps the resources matching criterion.
// Server-side filtering belongs in params; criterion is applied locally.
func (r *ResourceClient[M, P]) Find(ctx context.Context, criterion jsonapi.Criterion[P], params *QueryParams) ([]P, error) {
	if criterion == nil {
		return nil, fmt.Errorf("criterion: %w", jsonapi.ErrNilArgument)
	}

	pages, err := r.List(params)
	if err != nil {
		return nil, err
	}

	items, err := pages.Collect(ctx)
	if err != nil {
		return nil, err
	}

	return jsonapi.Filter(items, criterion), nil
}

// Create posts model. The identifier the server assigns is also assigned
// to model, so it stops being new.
func (r *ResourceClient[M, P]) Create(ctx context.Context, model P) (P, error) {
	if model == nil {
		return nil, fmt.Errorf("create %s: %w", r.path, jsonapi.ErrNilArgument)
	}

	doc, err := r.client.codec.MarshalDocument(model)
	if err != nil {
		return nil, err
	}

	body, err := r.client.mutate(ctx, http.MethodPost, r.path, doc, r.path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", r.path, err)
	}

	created, err := r.decodeWritten(body, model)
	if err != nil {
		return nil, err
	}

	if model.IsNew() && !created.IsNew() {
		err = model.AssignID(created.ID())
		if err != nil {
			return nil, err
		}
	}

	return created, nil
}

// Update patches a persisted model.
func (r *ResourceClient[M, P]) Update(ctx context.Context, model P) (P, error) {
	if model == nil {
		return nil, fmt.Errorf("update %s: %w", r.path, jsonapi.ErrNilArgument)
	}

	path, err := r.itemPath(model.ID())
	if err != nil {
		return nil, err
	}

	doc, err := r.client.codec.MarshalDocument(model)
	if err != nil {
		return nil, err
	}

	body, err := r.client.mutate(ctx, http.MethodPatch, path, doc, r.path)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", path, err)
	}

	return r.decodeWritten(body, model)
}

// Delete removes the resource with the given identifier.
func (r *ResourceClient[M, P]) Delete(ctx context.Context, id jsonapi.Identifier) error {
	path, err := r.itemPath(id)
	if err != nil {
		return err
	}

	_, err = r.client.mutate(ctx, http.MethodDelete, path, nil, r.path)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", path, err)
	}

	return nil
}

// decodeWritten decodes the resource echoed by a write. An empty body or
// null data (204 No Content) yields the model that was sent.
func (r *ResourceClient[M, P]) decodeWritten(body []byte, sent P) (P, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return sent, nil
	}

	written, err := jsonapi.UnmarshalDocument[M, P](r.client.codec, body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", r.path, err)
	}

	if written == nil {
		return sent, nil
	}

	return written, nil
}
