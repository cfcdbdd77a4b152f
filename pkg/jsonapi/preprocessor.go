package jsonapi

import "reflect"

// Preprocessor selector names accepted by the preprocess tag option.
const (
	PreprocessClone = "clone"
	PreprocessNone  = "none"
)

// Copyable is implemented by field values that can produce an independent
// copy of themselves.
type Copyable interface {
	Copy() any
}

// Preprocessor transforms a builder value before it is written into a new
// model.
type Preprocessor interface {
	Process(field *FieldSpec, value any) any
}

// PreprocessorFunc adapts a function to the Preprocessor interface.
type PreprocessorFunc func(field *FieldSpec, value any) any

// Process implements Preprocessor.
func (f PreprocessorFunc) Process(field *FieldSpec, value any) any {
	return f(field, value)
}

// CloningPreprocessor copies values so that two models built from the same
// builder never alias mutable state. Copyable values use their own Copy;
// slices and maps get a shallow copy; anything else is returned unchanged.
type CloningPreprocessor struct{}

// Process implements Preprocessor.
func (CloningPreprocessor) Process(_ *FieldSpec, value any) any {
	if value == nil {
		return nil
	}

	if c, ok := value.(Copyable); ok {
		return c.Copy()
	}

	v := reflect.ValueOf(value)

	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return value
		}

		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(out, v)

		return out.Interface()
	case reflect.Map:
		if v.IsNil() {
			return value
		}

		out := reflect.MakeMapWithSize(v.Type(), v.Len())

		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}

		return out.Interface()
	default:
		return value
	}
}

// PassThroughPreprocessor returns every value unchanged.
type PassThroughPreprocessor struct{}

// Process implements Preprocessor.
func (PassThroughPreprocessor) Process(_ *FieldSpec, value any) any {
	return value
}

func defaultPreprocessors() map[string]Preprocessor {
	return map[string]Preprocessor{
		PreprocessClone: CloningPreprocessor{},
		PreprocessNone:  PassThroughPreprocessor{},
	}
}
