package jsonapi

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

// Model is any entity mirrored from a remote resource.
type Model interface {
	// ID returns the current identifier; never nil.
	ID() Identifier

	// IsNew reports whether the model has not been persisted yet.
	IsNew() bool

	// AssignID moves the model from New to a persisted identifier. It may
	// succeed once; repeating it with an equal identifier is a no-op.
	AssignID(id Identifier) error
}

// ModelPtr constrains a type parameter to a pointer to M implementing Model.
type ModelPtr[M any] interface {
	*M
	Model
}

// ResourceTyper is implemented by models that name their JSON:API type.
type ResourceTyper interface {
	ResourceType() string
}

type identifierCell struct {
	id Identifier
}

// Entity implements Model and is meant to be embedded in model structs.
// Entities must not be copied after first use.
type Entity struct {
	cell atomic.Pointer[identifierCell]
}

// ID returns the current identifier.
func (e *Entity) ID() Identifier {
	if cell := e.cell.Load(); cell != nil {
		return cell.id
	}

	return NewIdentifier()
}

// IsNew reports whether no persisted identifier has been assigned.
func (e *Entity) IsNew() bool {
	return e.cell.Load() == nil
}

// AssignID sets the persisted identifier. Concurrent callers race on a
// compare-and-set, so at most one transition from New ever succeeds.
func (e *Entity) AssignID(id Identifier) error {
	if id == nil {
		return fmt.Errorf("assign identifier: %w", ErrNilArgument)
	}

	next := &identifierCell{id: id}

	for {
		current := e.cell.Load()
		if current != nil {
			if current.id.Equal(id) {
				return nil
			}

			return fmt.Errorf("%w: %s cannot become %q", ErrIdentityConflict, current.id, id.String())
		}

		if id.IsNew() {
			return nil
		}

		if e.cell.CompareAndSwap(nil, next) {
			return nil
		}
	}
}

// Equal reports whether a and b are the same remote entity: same concrete
// type and equal persisted identifiers. Unsaved models are equal only to
// themselves, even when every field matches.
func Equal(a, b Model) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}

	if a.IsNew() || b.IsNew() {
		return a == b
	}

	return a.ID().Equal(b.ID())
}

type hashKey struct {
	typ reflect.Type
	id  Identifier
}

// HashKey returns a comparable key consistent with Equal.
func HashKey(m Model) any {
	if m == nil || m.IsNew() {
		return m
	}

	return hashKey{typ: reflect.TypeOf(m), id: m.ID()}
}

// ResourceTypeOf returns the JSON:API type of m, falling back to the
// registered metadata name.
func ResourceTypeOf(m any) string {
	if typer, ok := m.(ResourceTyper); ok {
		return typer.ResourceType()
	}

	t := reflect.TypeOf(m)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil {
		return ""
	}

	return defaultResourceType(t)
}
