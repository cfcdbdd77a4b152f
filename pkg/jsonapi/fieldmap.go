package jsonapi

import "fmt"

// FieldAcceptor validates a field name before it is read or written.
type FieldAcceptor func(name string) error

// FieldMap is an insertion-ordered name to value store. Put and Get are its
// only mutator and accessor, and both run the acceptor first.
type FieldMap struct {
	names  []string
	values map[string]any
	accept FieldAcceptor
}

// NewFieldMap creates a map accepting names approved by accept; a nil
// acceptor accepts any non-empty name.
func NewFieldMap(accept FieldAcceptor) *FieldMap {
	return &FieldMap{
		values: make(map[string]any),
		accept: accept,
	}
}

func (m *FieldMap) check(name string) error {
	if name == "" {
		return fmt.Errorf("field name: %w", ErrNilArgument)
	}

	if m.accept != nil {
		return m.accept(name)
	}

	return nil
}

// Put stores value under name, keeping the position of the first Put.
func (m *FieldMap) Put(name string, value any) error {
	err := m.check(name)
	if err != nil {
		return err
	}

	if _, exists := m.values[name]; !exists {
		m.names = append(m.names, name)
	}

	m.values[name] = value

	return nil
}

// Get returns the value stored under name. present is false when nothing,
// or an untyped nil, was stored.
func (m *FieldMap) Get(name string) (value any, present bool, err error) {
	err = m.check(name)
	if err != nil {
		return nil, false, err
	}

	value, ok := m.values[name]

	return value, ok && value != nil, nil
}

// Names returns the stored names in insertion order.
func (m *FieldMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)

	return out
}

// Len reports the number of stored names.
func (m *FieldMap) Len() int {
	return len(m.names)
}
