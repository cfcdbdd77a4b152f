package jsonapi

// FieldValueHandler decides what a builder does with unset fields.
type FieldValueHandler interface {
	// ResolveRequired returns the value to store for a required field and
	// whether anything should be stored at all.
	ResolveRequired(field string, value any, present bool) (any, bool, error)

	// ResolveOptional returns value when present, otherwise def.
	ResolveOptional(field string, value any, present bool, def any) any
}

// StrictHandler fails the build when a required field is unset. It is the
// default handler.
type StrictHandler struct{}

// ResolveRequired implements FieldValueHandler.
func (StrictHandler) ResolveRequired(field string, value any, present bool) (any, bool, error) {
	if !present {
		return nil, false, ErrRequiredFieldMissing
	}

	return value, true, nil
}

// ResolveOptional implements FieldValueHandler.
func (StrictHandler) ResolveOptional(_ string, value any, present bool, def any) any {
	return resolveOptional(value, present, def)
}

// LaxHandler never fails: an unset required field keeps its zero value.
// Decoders use it for sparse fieldsets.
type LaxHandler struct{}

// ResolveRequired implements FieldValueHandler.
func (LaxHandler) ResolveRequired(_ string, value any, present bool) (any, bool, error) {
	if !present {
		return nil, false, nil
	}

	return value, true, nil
}

// ResolveOptional implements FieldValueHandler.
func (LaxHandler) ResolveOptional(_ string, value any, present bool, def any) any {
	return resolveOptional(value, present, def)
}

func resolveOptional(value any, present bool, def any) any {
	if present {
		return value
	}

	return def
}
