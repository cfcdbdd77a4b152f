// Package jsonapi provides the model layer of a JSON:API v1 service client:
// identifiers, tag-driven model builders, filter criteria, and lazily paged
// collections.
//
// # Models
//
// A model is a struct embedding Entity whose builder-populated fields carry
// a jsonapi tag:
//
//	type Reward struct {
//	  jsonapi.Entity
//
//	  Name   string   `jsonapi:"attr:name,required"`
//	  Points int64    `jsonapi:"attr:points,required"`
//	  Tags   []string `jsonapi:"attr:tags"`
//	}
//
// Models start out New. AssignID moves them to a persisted identifier
// exactly once; a later assignment of a different identifier fails with
// ErrIdentityConflict.
//
// # Builders
//
// Builder[M, P] accumulates values by Go field name and either builds a
// model or turns the same values into a filter:
//
//	b := jsonapi.NewBuilder[Reward]().Set("Name", "Coffee").Set("Points", 50)
//	reward, err := b.Build()
//	filter, err := b.BuildFilter()
//	matching := jsonapi.Filter(rewards, filter)
//
// Under the default StrictHandler an unset required field fails the build
// with a *FieldError wrapping ErrRequiredFieldMissing. LaxHandler leaves
// such fields at their zero value. Field tables are scanned once per type
// and kept in a bounded, time-expiring Registry.
//
// # Paged collections
//
// PagedCollection walks a remote list one page at a time:
//
//	pages, err := jsonapi.NewPagedCollection(fetch, jsonapi.WithPageLimit(10))
//	for reward := range pages.All(ctx) {
//	  _ = reward
//	}
//
// A failed fetch ends iteration like an empty page would. Use
// PageIterator.Err, Collect or OnFetchError to tell the two apart.
package jsonapi
