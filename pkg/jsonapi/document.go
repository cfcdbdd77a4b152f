package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Links holds the link members of a document, resource or relationship.
type Links struct {
	Self    string `json:"self,omitempty"    yaml:"self,omitempty"`
	Related string `json:"related,omitempty" yaml:"related,omitempty"`
	First   string `json:"first,omitempty"   yaml:"first,omitempty"`
	Last    string `json:"last,omitempty"    yaml:"last,omitempty"`
	Prev    string `json:"prev,omitempty"    yaml:"prev,omitempty"`
	Next    string `json:"next,omitempty"    yaml:"next,omitempty"`
}

// ResourceIdentifier is a resource linkage: type and id only.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Relationship is a to-one relationship member. A nil Data encodes as null.
type Relationship struct {
	Data  *ResourceIdentifier `json:"data"`
	Links *Links              `json:"links,omitempty"`
	Meta  map[string]any      `json:"meta,omitempty"`
}

// ResourceObject is one resource in a document.
type ResourceObject struct {
	Type          string                     `json:"type"`
	ID            string                     `json:"id,omitempty"`
	Attributes    map[string]json.RawMessage `json:"attributes,omitempty"`
	Relationships map[string]Relationship    `json:"relationships,omitempty"`
	Links         *Links                     `json:"links,omitempty"`
	Meta          map[string]any             `json:"meta,omitempty"`
}

// Document is a top-level JSON:API document. Data holds either a single
// resource object, an array of them, or null.
type Document struct {
	Data     json.RawMessage  `json:"data,omitempty"`
	Included []ResourceObject `json:"included,omitempty"`
	Errors   []ErrorObject    `json:"errors,omitempty"`
	Links    *Links           `json:"links,omitempty"`
	Meta     map[string]any   `json:"meta,omitempty"`
}

// NewSingleDocument wraps one resource object in a document.
func NewSingleDocument(obj *ResourceObject) (*Document, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encoding resource: %w", err)
	}

	return &Document{Data: data}, nil
}

// ParseDocument decodes a document and rejects one carrying errors.
func ParseDocument(data []byte) (*Document, error) {
	doc := &Document{}

	err := json.Unmarshal(data, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if len(doc.Errors) > 0 {
		return nil, &ResponseError{Errors: doc.Errors}
	}

	return doc, nil
}

// IsCollection reports whether the primary data is an array.
func (d *Document) IsCollection() bool {
	trimmed := bytes.TrimSpace(d.Data)

	return len(trimmed) > 0 && trimmed[0] == '['
}

// One returns the single primary resource, or nil when data is null.
func (d *Document) One() (*ResourceObject, error) {
	trimmed := bytes.TrimSpace(d.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil //nolint:nilnil // null primary data is valid
	}

	if d.IsCollection() {
		return nil, fmt.Errorf("%w: expected a single resource, got a collection", ErrInvalidDocument)
	}

	obj := &ResourceObject{}

	err := json.Unmarshal(trimmed, obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return obj, nil
}

// Many returns the primary resources of a collection document.
func (d *Document) Many() ([]ResourceObject, error) {
	trimmed := bytes.TrimSpace(d.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if !d.IsCollection() {
		return nil, fmt.Errorf("%w: expected a collection, got a single resource", ErrInvalidDocument)
	}

	var objs []ResourceObject

	err := json.Unmarshal(trimmed, &objs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return objs, nil
}
