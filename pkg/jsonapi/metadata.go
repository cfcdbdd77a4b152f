package jsonapi

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/cache"
	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
)

// TagName is the struct tag marking builder-populated fields.
//
// Options, comma separated:
//
//	attr:<name>        wire attribute name (default: camelCase field name)
//	rel:<name>         to-one relationship to another model
//	required           the strict handler rejects builds without a value
//	preprocess:<name>  preprocessor selector ("clone", "none", or a registered name)
//	-                  not builder-populated
const TagName = "jsonapi"

var modelInterface = reflect.TypeFor[Model]()

// FieldSpec describes one builder-populated field of a model type.
type FieldSpec struct {
	Name         string
	Attr         string
	Type         reflect.Type
	Required     bool
	Preprocessor string
	Relationship bool

	owner reflect.Type
	index int
}

// Get reads the field from model, which must be a pointer to the owning struct.
func (f *FieldSpec) Get(model any) (any, error) {
	field, err := f.field(model)
	if err != nil {
		return nil, err
	}

	return field.Interface(), nil
}

// Set writes value into the field of model. Untyped nil stores the zero
// value; numeric and string kinds are converted when the types differ.
func (f *FieldSpec) Set(model any, value any) error {
	field, err := f.field(model)
	if err != nil {
		return err
	}

	converted, err := convertValue(f.Type, value)
	if err != nil {
		return newFieldError(f.owner.Name(), f.Name, err)
	}

	field.Set(converted)

	return nil
}

func (f *FieldSpec) field(model any) (reflect.Value, error) {
	v := reflect.ValueOf(model)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Type() != f.owner {
		return reflect.Value{}, fmt.Errorf("%w: expected *%s, got %T", ErrConfiguration, f.owner.Name(), model)
	}

	return v.Elem().Field(f.index), nil
}

func isNumberKind(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uint64) || k == reflect.Float32 || k == reflect.Float64
}

func convertValue(target reflect.Type, value any) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(target), nil
	}

	v := reflect.ValueOf(value)
	source := v.Type()

	switch {
	case source.AssignableTo(target):
		return v, nil
	case isNumberKind(source.Kind()) && isNumberKind(target.Kind()):
		return convertNumber(v, target)
	case source.Kind() == reflect.String && target.Kind() == reflect.String:
		return v.Convert(target), nil
	case target.Kind() == reflect.Pointer && source.AssignableTo(target.Elem()):
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(v)

		return ptr, nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrFieldType, source, target)
	}
}

// convertNumber converts between numeric kinds only when the value survives
// unchanged: no fractional part dropped, no overflow, no sign flip.
func convertNumber(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	out := reflect.New(target).Elem()

	var exact bool

	switch {
	case v.CanInt():
		exact = setFromInt(out, v.Int())
	case v.CanUint():
		exact = setFromUint(out, v.Uint())
	default:
		exact = setFromFloat(out, v.Float())
	}

	if !exact {
		return reflect.Value{}, fmt.Errorf("%w: %v does not fit %s", ErrFieldType, v.Interface(), target)
	}

	return out, nil
}

func setFromInt(out reflect.Value, n int64) bool {
	switch {
	case out.CanInt():
		if out.OverflowInt(n) {
			return false
		}

		out.SetInt(n)
	case out.CanUint():
		if n < 0 || out.OverflowUint(uint64(n)) {
			return false
		}

		out.SetUint(uint64(n))
	default:
		f := float64(n)
		if f >= 0x1p63 || int64(f) != n {
			return false
		}

		return setFromFloat(out, f)
	}

	return true
}

func setFromUint(out reflect.Value, u uint64) bool {
	switch {
	case out.CanInt():
		if u > math.MaxInt64 || out.OverflowInt(int64(u)) {
			return false
		}

		out.SetInt(int64(u))
	case out.CanUint():
		if out.OverflowUint(u) {
			return false
		}

		out.SetUint(u)
	default:
		f := float64(u)
		if f >= 0x1p64 || uint64(f) != u {
			return false
		}

		return setFromFloat(out, f)
	}

	return true
}

func setFromFloat(out reflect.Value, f float64) bool {
	switch {
	case out.CanInt():
		if f != math.Trunc(f) || f < -0x1p63 || f >= 0x1p63 {
			return false
		}

		return setFromInt(out, int64(f))
	case out.CanUint():
		if f != math.Trunc(f) || f < 0 || f >= 0x1p64 {
			return false
		}

		return setFromUint(out, uint64(f))
	default:
		out.SetFloat(f)

		return out.Float() == f || (math.IsNaN(f) && math.IsNaN(out.Float()))
	}
}

// ModelMetadata is the field table of one model type.
type ModelMetadata struct {
	Type         reflect.Type
	ResourceType string
	Fields       []*FieldSpec

	byName map[string]*FieldSpec
	byAttr map[string]*FieldSpec
}

// Field looks up a field by Go name.
func (m *ModelMetadata) Field(name string) (*FieldSpec, bool) {
	f, ok := m.byName[name]

	return f, ok
}

// FieldByAttr looks up a field by wire name.
func (m *ModelMetadata) FieldByAttr(attr string) (*FieldSpec, bool) {
	f, ok := m.byAttr[attr]

	return f, ok
}

// FieldNames returns the Go names of all fields in declaration order.
func (m *ModelMetadata) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}

	return names
}

// New allocates a zero model of this type.
func (m *ModelMetadata) New() (Model, error) {
	model, ok := reflect.New(m.Type).Interface().(Model)
	if !ok {
		return nil, fmt.Errorf("%w: *%s does not implement Model", ErrConfiguration, m.Type.Name())
	}

	return model, nil
}

// Registry owns the process-wide cache of model metadata. The cache is an
// optimization only: a miss or an expired entry is rescanned transparently.
type Registry struct {
	models *cache.Cache[reflect.Type, *ModelMetadata]
	scans  atomic.Int64
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	capacity int
	ttl      time.Duration
	clock    func() time.Time
}

// WithCapacity bounds the number of cached model types.
func WithCapacity(capacity int) RegistryOption {
	return func(o *registryOptions) { o.capacity = capacity }
}

// WithTTL sets how long scanned metadata stays cached.
func WithTTL(ttl time.Duration) RegistryOption {
	return func(o *registryOptions) { o.ttl = ttl }
}

// WithClock sets the time source used for cache expiry.
func WithClock(clock func() time.Time) RegistryOption {
	return func(o *registryOptions) { o.clock = clock }
}

// NewRegistry creates a registry with its own cache.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := &registryOptions{
		capacity: constants.MetadataCacheSize,
		ttl:      constants.MetadataCacheTTL,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Registry{
		models: cache.New[reflect.Type, *ModelMetadata](o.capacity, o.ttl, cache.WithClock(o.clock)),
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry shared by builders that are not
// given one explicitly.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Metadata returns the field table for t, which may be a struct type or a
// pointer to one.
func (r *Registry) Metadata(t reflect.Type) (*ModelMetadata, error) {
	if t == nil {
		return nil, fmt.Errorf("metadata: %w", ErrNilArgument)
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if meta, ok := r.models.Get(t); ok {
		return meta, nil
	}

	meta, err := r.scan(t)
	if err != nil {
		return nil, err
	}

	r.models.Set(t, meta)

	return meta, nil
}

// BuilderPopulatedFields returns a copy of the field table entries of t.
// Changing the result does not affect the cached metadata.
func (r *Registry) BuilderPopulatedFields(t reflect.Type) ([]*FieldSpec, error) {
	meta, err := r.Metadata(t)
	if err != nil {
		return nil, err
	}

	fields := make([]*FieldSpec, len(meta.Fields))
	for i, f := range meta.Fields {
		clone := *f
		fields[i] = &clone
	}

	return fields, nil
}

// Scans reports how many times a model type has been scanned.
func (r *Registry) Scans() int64 {
	return r.scans.Load()
}

// Purge drops every cached entry.
func (r *Registry) Purge() {
	r.models.Clear()
}

// MetadataFor returns the field table of M from r, or from the default
// registry when r is nil.
func MetadataFor[M any](r *Registry) (*ModelMetadata, error) {
	if r == nil {
		r = defaultRegistry
	}

	return r.Metadata(reflect.TypeFor[M]())
}

func (r *Registry) scan(t reflect.Type) (*ModelMetadata, error) {
	r.scans.Add(1)

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: model must be a struct, got %s", ErrConfiguration, t)
	}

	meta := &ModelMetadata{
		Type:         t,
		ResourceType: resourceTypeFor(t),
		Fields:       make([]*FieldSpec, 0, t.NumField()),
		byName:       make(map[string]*FieldSpec),
		byAttr:       make(map[string]*FieldSpec),
	}

	for i := range t.NumField() {
		field := t.Field(i)

		tag, ok := field.Tag.Lookup(TagName)
		if !ok || tag == "-" || field.Anonymous {
			continue
		}

		if !field.IsExported() {
			return nil, fmt.Errorf("%w: %s.%s is tagged but unexported", ErrConfiguration, t.Name(), field.Name)
		}

		spec, err := parseFieldSpec(t, field, i, tag)
		if err != nil {
			return nil, err
		}

		if _, dup := meta.byAttr[spec.Attr]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate wire name %q", ErrConfiguration, t.Name(), spec.Attr)
		}

		meta.Fields = append(meta.Fields, spec)
		meta.byName[spec.Name] = spec
		meta.byAttr[spec.Attr] = spec
	}

	return meta, nil
}

func parseFieldSpec(owner reflect.Type, field reflect.StructField, index int, tag string) (*FieldSpec, error) {
	spec := &FieldSpec{
		Name:  field.Name,
		Attr:  DefaultAttrName(field.Name),
		Type:  field.Type,
		owner: owner,
		index: index,
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)

		switch {
		case part == "":
		case part == "required":
			spec.Required = true
		case strings.HasPrefix(part, "attr:"):
			spec.Attr = strings.TrimPrefix(part, "attr:")
		case strings.HasPrefix(part, "rel:"):
			spec.Attr = strings.TrimPrefix(part, "rel:")
			spec.Relationship = true
		case strings.HasPrefix(part, "preprocess:"):
			spec.Preprocessor = strings.TrimPrefix(part, "preprocess:")
		default:
			return nil, fmt.Errorf("%w: %s.%s: unknown tag option %q", ErrConfiguration, owner.Name(), field.Name, part)
		}
	}

	if spec.Attr == "" {
		return nil, fmt.Errorf("%w: %s.%s: empty wire name", ErrConfiguration, owner.Name(), field.Name)
	}

	if spec.Relationship && (field.Type.Kind() != reflect.Pointer || !field.Type.Implements(modelInterface)) {
		return nil, fmt.Errorf("%w: %s.%s: relationship must be a pointer to a model", ErrConfiguration, owner.Name(), field.Name)
	}

	return spec, nil
}

func resourceTypeFor(t reflect.Type) string {
	if typer, ok := reflect.New(t).Interface().(ResourceTyper); ok {
		return typer.ResourceType()
	}

	return defaultResourceType(t)
}

func defaultResourceType(t reflect.Type) string {
	return DefaultAttrName(t.Name())
}

// DefaultAttrName converts a Go field name to its camelCase wire name,
// keeping leading acronyms together ("ID" -> "id", "URLPath" -> "urlPath").
func DefaultAttrName(name string) string {
	runes := []rune(name)
	if len(runes) <= 1 {
		return strings.ToLower(name)
	}

	boundary := 1
	for boundary < len(runes) {
		if !unicode.IsUpper(runes[boundary]) {
			break
		}

		if boundary+1 < len(runes) && !unicode.IsUpper(runes[boundary+1]) {
			break
		}

		boundary++
	}

	return strings.ToLower(string(runes[:boundary])) + string(runes[boundary:])
}
