package jsonapi

import (
	"fmt"
	"reflect"
)

// MapBuilder accumulates field values by name together with the identifier
// the built model will carry. It is the storage layer shared by every
// builder; it is not safe for concurrent use.
type MapBuilder struct {
	fields  *FieldMap
	handler FieldValueHandler
	factory *IdentifierFactory
	id      Identifier
	err     error
}

// NewMapBuilder creates a builder whose field names are checked by accept.
// A nil handler means StrictHandler.
func NewMapBuilder(accept FieldAcceptor, handler FieldValueHandler) *MapBuilder {
	return newMapBuilder(accept, handler, nil)
}

func newMapBuilder(accept FieldAcceptor, handler FieldValueHandler, factory *IdentifierFactory) *MapBuilder {
	if handler == nil {
		handler = StrictHandler{}
	}

	if factory == nil {
		factory = DefaultIdentifierFactory()
	}

	return &MapBuilder{
		fields:  NewFieldMap(accept),
		handler: handler,
		factory: factory,
	}
}

// PutFieldValue stores value for the named field.
func (b *MapBuilder) PutFieldValue(name string, value any) error {
	return b.fields.Put(name, value)
}

// GetFieldValue returns the value stored for the named field.
func (b *MapBuilder) GetFieldValue(name string) (any, bool, error) {
	return b.fields.Get(name)
}

// HasFieldValue reports whether a non-nil value is stored for name.
func (b *MapBuilder) HasFieldValue(name string) bool {
	_, present, err := b.fields.Get(name)

	return err == nil && present
}

// FieldNames returns the names set so far, in the order first set.
func (b *MapBuilder) FieldNames() []string {
	return b.fields.Names()
}

// WithID sets or replaces the pending identifier.
func (b *MapBuilder) WithID(id Identifier) *MapBuilder {
	b.setID(id)

	return b
}

// WithIDString parses id with the builder's identifier factory.
func (b *MapBuilder) WithIDString(id string) *MapBuilder {
	b.setIDString(id)

	return b
}

func (b *MapBuilder) setID(id Identifier) {
	if id == nil {
		b.fail(fmt.Errorf("builder identifier: %w", ErrNilArgument))

		return
	}

	b.id = id
}

func (b *MapBuilder) setIDString(value string) {
	id, err := b.factory.Parse(value)
	if err != nil {
		b.fail(err)

		return
	}

	b.id = id
}

// PendingID returns the identifier set with WithID, if any.
func (b *MapBuilder) PendingID() (Identifier, bool) {
	return b.id, b.id != nil
}

// Handler returns the field value handler.
func (b *MapBuilder) Handler() FieldValueHandler {
	return b.handler
}

// Err returns the first error recorded by a fluent setter.
func (b *MapBuilder) Err() error {
	return b.err
}

func (b *MapBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Builder constructs models of type M from a field map, using the field
// table derived from M's jsonapi struct tags. The same map can instead be
// turned into a filter over already-loaded models.
type Builder[M any, P ModelPtr[M]] struct {
	*MapBuilder

	meta          *ModelMetadata
	modelName     string
	preprocessor  Preprocessor
	preprocessors map[string]Preprocessor
}

// BuilderOption configures a Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	handler       FieldValueHandler
	preprocessor  Preprocessor
	preprocessors map[string]Preprocessor
	registry      *Registry
	factory       *IdentifierFactory
}

// WithHandler sets the field value handler (default StrictHandler).
func WithHandler(handler FieldValueHandler) BuilderOption {
	return func(o *builderOptions) { o.handler = handler }
}

// WithPreprocessor sets the preprocessor for fields without a selector
// (default CloningPreprocessor).
func WithPreprocessor(p Preprocessor) BuilderOption {
	return func(o *builderOptions) { o.preprocessor = p }
}

// WithNamedPreprocessor registers p under a selector usable in the
// preprocess tag option.
func WithNamedPreprocessor(name string, p Preprocessor) BuilderOption {
	return func(o *builderOptions) { o.preprocessors[name] = p }
}

// WithRegistry sets the metadata registry (default DefaultRegistry).
func WithRegistry(r *Registry) BuilderOption {
	return func(o *builderOptions) { o.registry = r }
}

// WithIdentifierFactory sets the factory used by WithIDString.
func WithIdentifierFactory(f *IdentifierFactory) BuilderOption {
	return func(o *builderOptions) { o.factory = f }
}

// NewBuilder creates a builder for M. Configuration errors (M is not a
// usable model) are reported by the build methods.
func NewBuilder[M any, P ModelPtr[M]](opts ...BuilderOption) *Builder[M, P] {
	o := &builderOptions{
		handler:       StrictHandler{},
		preprocessor:  CloningPreprocessor{},
		preprocessors: defaultPreprocessors(),
		registry:      defaultRegistry,
	}
	for _, opt := range opts {
		opt(o)
	}

	modelType := reflect.TypeFor[M]()
	b := &Builder[M, P]{
		modelName:     modelType.Name(),
		preprocessor:  o.preprocessor,
		preprocessors: o.preprocessors,
	}
	b.MapBuilder = newMapBuilder(b.acceptField, o.handler, o.factory)

	meta, err := o.registry.Metadata(modelType)
	if err != nil {
		b.fail(err)
	} else {
		b.meta = meta
	}

	return b
}

func (b *Builder[M, P]) acceptField(name string) error {
	if b.meta == nil {
		return fmt.Errorf("%w: %s has no field metadata", ErrConfiguration, b.modelName)
	}

	if _, ok := b.meta.Field(name); !ok {
		return newFieldError(b.modelName, name, ErrUnknownField)
	}

	return nil
}

// Metadata returns the field table of M, or nil if M is not a usable model.
func (b *Builder[M, P]) Metadata() *ModelMetadata {
	return b.meta
}

// Set stores value for the named field. An invalid name is recorded and
// returned by the next build call.
func (b *Builder[M, P]) Set(name string, value any) *Builder[M, P] {
	err := b.PutFieldValue(name, value)
	if err != nil {
		b.fail(err)
	}

	return b
}

// WithID sets or replaces the pending identifier.
func (b *Builder[M, P]) WithID(id Identifier) *Builder[M, P] {
	b.setID(id)

	return b
}

// WithIDString parses and sets the pending identifier.
func (b *Builder[M, P]) WithIDString(id string) *Builder[M, P] {
	b.setIDString(id)

	return b
}

// Build creates a new model from the stored values. Required fields are
// resolved through the handler, builder-supplied values pass through the
// field's preprocessor, and every value is written directly into the
// field, so constructor-style invariants of M are not re-checked.
func (b *Builder[M, P]) Build() (P, error) {
	if err := b.Err(); err != nil {
		return nil, err
	}

	model := P(new(M))

	if id, ok := b.PendingID(); ok {
		err := model.AssignID(id)
		if err != nil {
			return nil, err
		}
	}

	for _, spec := range b.meta.Fields {
		value, present, err := b.fields.Get(spec.Name)
		if err != nil {
			return nil, err
		}

		var resolved any

		if spec.Required {
			v, ok, err := b.handler.ResolveRequired(spec.Name, value, present)
			if err != nil {
				return nil, newFieldError(b.modelName, spec.Name, err)
			}

			if !ok {
				continue
			}

			resolved = v
		} else {
			def, err := spec.Get(model)
			if err != nil {
				return nil, err
			}

			resolved = b.handler.ResolveOptional(spec.Name, value, present, def)
		}

		if present {
			p, err := b.preprocessorFor(spec)
			if err != nil {
				return nil, err
			}

			resolved = p.Process(spec, resolved)
		}

		err = spec.Set(model, resolved)
		if err != nil {
			return nil, err
		}
	}

	return model, nil
}

// BuildShallow creates a model carrying only the pending identifier. It
// is meant for referencing an entity that already exists remotely.
func (b *Builder[M, P]) BuildShallow() (P, error) {
	if err := b.Err(); err != nil {
		return nil, err
	}

	id, ok := b.PendingID()
	if !ok || id.IsNew() {
		return nil, fmt.Errorf("%w: shallow %s", ErrIdentifierRequired, b.modelName)
	}

	model := P(new(M))

	err := model.AssignID(id)
	if err != nil {
		return nil, err
	}

	return model, nil
}

// BuildFilter returns a criterion matching models whose fields equal every
// value set on the builder. Unset fields accept any value. Values are
// compared as given, without preprocessing.
func (b *Builder[M, P]) BuildFilter() (Criterion[P], error) {
	if err := b.Err(); err != nil {
		return nil, err
	}

	criteria := make([]Criterion[P], 0, b.fields.Len()+1)

	if id, ok := b.PendingID(); ok && !id.IsNew() {
		criteria = append(criteria, IDEquals[P](id))
	}

	for _, spec := range b.meta.Fields {
		value, present, err := b.fields.Get(spec.Name)
		if err != nil {
			return nil, err
		}

		if !present {
			continue
		}

		target, err := convertValue(spec.Type, value)
		if err != nil {
			return nil, newFieldError(b.modelName, spec.Name, err)
		}

		criteria = append(criteria, specEquals[P](spec, target.Interface()))
	}

	return And(criteria...)
}

func (b *Builder[M, P]) preprocessorFor(spec *FieldSpec) (Preprocessor, error) {
	if spec.Preprocessor == "" {
		return b.preprocessor, nil
	}

	p, ok := b.preprocessors[spec.Preprocessor]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s: unknown preprocessor %q", ErrConfiguration, b.modelName, spec.Name, spec.Preprocessor)
	}

	return p, nil
}

func specEquals[P any](spec *FieldSpec, target any) Criterion[P] {
	return NewFieldCriterion(func(model P) any {
		value, err := spec.Get(model)
		if err != nil {
			return nil
		}

		return value
	}, target, ValuesEqual)
}

// NewShallowModel is the untyped counterpart of BuildShallow, for model
// types known only at run time such as relationship targets.
func NewShallowModel(t reflect.Type, id Identifier) (Model, error) {
	if t == nil || id == nil {
		return nil, fmt.Errorf("shallow model: %w", ErrNilArgument)
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if id.IsNew() {
		return nil, fmt.Errorf("%w: shallow %s", ErrIdentifierRequired, t.Name())
	}

	model, ok := reflect.New(t).Interface().(Model)
	if !ok {
		return nil, fmt.Errorf("%w: *%s does not implement Model", ErrConfiguration, t.Name())
	}

	err := model.AssignID(id)
	if err != nil {
		return nil, err
	}

	return model, nil
}
