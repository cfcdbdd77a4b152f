package jsonapi

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Codec converts between models and JSON:API resource objects using the
// same field table the builders use.
type Codec struct {
	registry *Registry
	factory  *IdentifierFactory
}

// NewCodec creates a codec. Nil arguments select the defaults.
func NewCodec(registry *Registry, factory *IdentifierFactory) *Codec {
	if registry == nil {
		registry = defaultRegistry
	}

	if factory == nil {
		factory = DefaultIdentifierFactory()
	}

	return &Codec{registry: registry, factory: factory}
}

var defaultCodec = NewCodec(nil, nil)

// DefaultCodec returns the codec backed by the default registry.
func DefaultCodec() *Codec {
	return defaultCodec
}

// MarshalResource encodes model. New models are encoded without an id.
func (c *Codec) MarshalResource(model Model) (*ResourceObject, error) {
	if isNilModel(model) {
		return nil, fmt.Errorf("marshal resource: %w", ErrNilArgument)
	}

	meta, err := c.registry.Metadata(reflect.TypeOf(model))
	if err != nil {
		return nil, err
	}

	obj := &ResourceObject{
		Type:       meta.ResourceType,
		Attributes: make(map[string]json.RawMessage, len(meta.Fields)),
	}

	if !model.IsNew() {
		obj.ID = model.ID().String()
	}

	for _, spec := range meta.Fields {
		value, err := spec.Get(model)
		if err != nil {
			return nil, err
		}

		if spec.Relationship {
			rel, err := c.linkage(meta, spec, value)
			if err != nil {
				return nil, err
			}

			if obj.Relationships == nil {
				obj.Relationships = make(map[string]Relationship)
			}

			obj.Relationships[spec.Attr] = rel

			continue
		}

		raw, err := json.Marshal(value)
		if err != nil {
			return nil, newFieldError(meta.Type.Name(), spec.Name, err)
		}

		obj.Attributes[spec.Attr] = raw
	}

	return obj, nil
}

func (c *Codec) linkage(meta *ModelMetadata, spec *FieldSpec, value any) (Relationship, error) {
	target, _ := value.(Model)
	if isNilModel(target) {
		return Relationship{}, nil
	}

	if target.IsNew() {
		return Relationship{}, newFieldError(meta.Type.Name(), spec.Name, ErrIdentifierRequired)
	}

	targetMeta, err := c.registry.Metadata(reflect.TypeOf(target))
	if err != nil {
		return Relationship{}, err
	}

	return Relationship{Data: &ResourceIdentifier{
		Type: targetMeta.ResourceType,
		ID:   target.ID().String(),
	}}, nil
}

// MarshalDocument encodes model as a single-resource document.
func (c *Codec) MarshalDocument(model Model) ([]byte, error) {
	obj, err := c.MarshalResource(model)
	if err != nil {
		return nil, err
	}

	doc, err := NewSingleDocument(obj)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	return data, nil
}

// UnmarshalResource decodes obj into a new model of type M. Decoding is
// lax: attributes missing from a sparse fieldset keep their zero value and
// unknown attributes are ignored. Relationships become shallow models.
func UnmarshalResource[M any, P ModelPtr[M]](c *Codec, obj *ResourceObject) (P, error) {
	if obj == nil {
		return nil, fmt.Errorf("unmarshal resource: %w", ErrNilArgument)
	}

	if c == nil {
		c = defaultCodec
	}

	b := NewBuilder[M, P](
		WithHandler(LaxHandler{}),
		WithPreprocessor(PassThroughPreprocessor{}),
		WithRegistry(c.registry),
		WithIdentifierFactory(c.factory),
	)

	meta := b.Metadata()
	if meta == nil {
		return b.Build()
	}

	if obj.Type != meta.ResourceType {
		return nil, fmt.Errorf("%w: expected type %q, got %q", ErrInvalidDocument, meta.ResourceType, obj.Type)
	}

	if obj.ID != "" {
		b.WithIDString(obj.ID)
	}

	for attr, raw := range obj.Attributes {
		spec, ok := meta.FieldByAttr(attr)
		if !ok || spec.Relationship {
			continue
		}

		target := reflect.New(spec.Type)

		err := json.Unmarshal(raw, target.Interface())
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %q: %w", ErrInvalidDocument, attr, err)
		}

		b.Set(spec.Name, target.Elem().Interface())
	}

	for name, rel := range obj.Relationships {
		spec, ok := meta.FieldByAttr(name)
		if !ok || !spec.Relationship || rel.Data == nil {
			continue
		}

		related, err := c.shallow(spec.Type, rel.Data)
		if err != nil {
			return nil, err
		}

		b.Set(spec.Name, related)
	}

	return b.Build()
}

func (c *Codec) shallow(t reflect.Type, ref *ResourceIdentifier) (Model, error) {
	meta, err := c.registry.Metadata(t)
	if err != nil {
		return nil, err
	}

	if ref.Type != meta.ResourceType {
		return nil, fmt.Errorf("%w: relationship expects type %q, got %q", ErrInvalidDocument, meta.ResourceType, ref.Type)
	}

	id, err := c.factory.Parse(ref.ID)
	if err != nil {
		return nil, err
	}

	return NewShallowModel(t, id)
}

// UnmarshalDocument decodes a single-resource document. It returns nil
// when the primary data is null.
func UnmarshalDocument[M any, P ModelPtr[M]](c *Codec, data []byte) (P, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}

	obj, err := doc.One()
	if err != nil || obj == nil {
		return nil, err
	}

	return UnmarshalResource[M, P](c, obj)
}

// UnmarshalCollection decodes a collection document into a page.
func UnmarshalCollection[M any, P ModelPtr[M]](c *Codec, data []byte) (*Page[P], error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}

	objs, err := doc.Many()
	if err != nil {
		return nil, err
	}

	page := &Page[P]{
		Items: make([]P, 0, len(objs)),
		Links: doc.Links,
		Meta:  doc.Meta,
	}

	for i := range objs {
		model, err := UnmarshalResource[M, P](c, &objs[i])
		if err != nil {
			return nil, err
		}

		page.Items = append(page.Items, model)
	}

	return page, nil
}
