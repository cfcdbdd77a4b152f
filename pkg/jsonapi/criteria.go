package jsonapi

import (
	"fmt"
	"reflect"
)

// Criterion is a side-effect-free predicate over one model.
type Criterion[M any] interface {
	Matches(model M) bool
}

// CriterionFunc adapts a function to the Criterion interface.
type CriterionFunc[M any] func(model M) bool

// Matches implements Criterion.
func (f CriterionFunc[M]) Matches(model M) bool {
	return f(model)
}

// Comparator reports whether an extracted value satisfies a target.
type Comparator func(actual, target any) bool

// FieldCriterion extracts a value from the model and compares it against a
// fixed target.
type FieldCriterion[M any] struct {
	extract func(M) any
	target  any
	compare Comparator
}

// NewFieldCriterion creates a criterion from an extractor. A nil compare
// means ValuesEqual.
func NewFieldCriterion[M any](extract func(M) any, target any, compare Comparator) *FieldCriterion[M] {
	if compare == nil {
		compare = ValuesEqual
	}

	return &FieldCriterion[M]{extract: extract, target: target, compare: compare}
}

// Matches implements Criterion.
func (c *FieldCriterion[M]) Matches(model M) bool {
	return c.compare(c.extract(model), c.target)
}

// Target returns the value the criterion compares against.
func (c *FieldCriterion[M]) Target() any {
	return c.target
}

// FieldEquals reads the named struct field reflectively and compares it
// with target. M is a model struct or a pointer to one.
func FieldEquals[M any](field string, target any) (*FieldCriterion[M], error) {
	t := reflect.TypeFor[M]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrConfiguration, t)
	}

	sf, ok := t.FieldByName(field)
	if !ok || !sf.IsExported() {
		return nil, newFieldError(t.Name(), field, ErrUnknownField)
	}

	return NewFieldCriterion(func(model M) any {
		v := reflect.ValueOf(model)
		for v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return nil
			}

			v = v.Elem()
		}

		return v.FieldByIndex(sf.Index).Interface()
	}, target, ValuesEqual), nil
}

// IDEquals matches models whose identifier equals id.
func IDEquals[M Model](id Identifier) Criterion[M] {
	return CriterionFunc[M](func(model M) bool {
		return id.Equal(model.ID())
	})
}

// AndCriterion matches when every child matches.
type AndCriterion[M any] struct {
	children []Criterion[M]
}

// And combines children conjunctively. With no children it matches
// everything.
func And[M any](children ...Criterion[M]) (*AndCriterion[M], error) {
	err := checkChildren(children)
	if err != nil {
		return nil, err
	}

	return &AndCriterion[M]{children: children}, nil
}

// Matches implements Criterion.
func (c *AndCriterion[M]) Matches(model M) bool {
	for _, child := range c.children {
		if !child.Matches(model) {
			return false
		}
	}

	return true
}

// Children returns the combined criteria.
func (c *AndCriterion[M]) Children() []Criterion[M] {
	return append([]Criterion[M](nil), c.children...)
}

// OrCriterion matches when at least one child matches.
type OrCriterion[M any] struct {
	children []Criterion[M]
}

// Or combines children disjunctively. With no children it matches nothing.
func Or[M any](children ...Criterion[M]) (*OrCriterion[M], error) {
	err := checkChildren(children)
	if err != nil {
		return nil, err
	}

	return &OrCriterion[M]{children: children}, nil
}

// Matches implements Criterion.
func (c *OrCriterion[M]) Matches(model M) bool {
	for _, child := range c.children {
		if child.Matches(model) {
			return true
		}
	}

	return false
}

// Children returns the combined criteria.
func (c *OrCriterion[M]) Children() []Criterion[M] {
	return append([]Criterion[M](nil), c.children...)
}

// NotCriterion inverts its child.
type NotCriterion[M any] struct {
	child Criterion[M]
}

// Not negates child.
func Not[M any](child Criterion[M]) (*NotCriterion[M], error) {
	if isNilCriterion(child) {
		return nil, fmt.Errorf("not criterion: %w", ErrNilArgument)
	}

	return &NotCriterion[M]{child: child}, nil
}

// Matches implements Criterion.
func (c *NotCriterion[M]) Matches(model M) bool {
	return !c.child.Matches(model)
}

func checkChildren[M any](children []Criterion[M]) error {
	for i, child := range children {
		if isNilCriterion(child) {
			return fmt.Errorf("criterion %d: %w", i, ErrNilArgument)
		}
	}

	return nil
}

func isNilCriterion[M any](c Criterion[M]) bool {
	if c == nil {
		return true
	}

	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// ValuesEqual is the default comparator. Identifiers compare with
// Identifier.Equal, models with Equal, everything else by deep equality.
func ValuesEqual(actual, target any) bool {
	if a, ok := actual.(Identifier); ok {
		if b, ok := target.(Identifier); ok {
			return a.Equal(b)
		}

		return false
	}

	if a, ok := actual.(Model); ok {
		if b, ok := target.(Model); ok {
			if isNilModel(a) || isNilModel(b) {
				return isNilModel(a) && isNilModel(b)
			}

			return Equal(a, b)
		}

		return false
	}

	return reflect.DeepEqual(actual, target)
}

func isNilModel(m Model) bool {
	if m == nil {
		return true
	}

	v := reflect.ValueOf(m)

	return v.Kind() == reflect.Pointer && v.IsNil()
}

// Filter returns the models matching c, in their original order.
func Filter[M any](models []M, c Criterion[M]) []M {
	out := make([]M, 0, len(models))

	for _, m := range models {
		if c.Matches(m) {
			out = append(out, m)
		}
	}

	return out
}

// First returns the first model matching c.
func First[M any](models []M, c Criterion[M]) (M, bool) {
	for _, m := range models {
		if c.Matches(m) {
			return m, true
		}
	}

	var zero M

	return zero, false
}
