package jsonapi

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Identifier distinguishes a model that has never been persisted from one
// stored remotely under a concrete key.
//
// Persisted identifiers are immutable values: two of the same variant
// wrapping the same key are Equal, and they are comparable with == so they
// can key maps. The New identifier is a flyweight that is equal only to
// itself, and callers comparing models must treat "both new" as "different"
// (see Equal).
type Identifier interface {
	// IsNew reports whether the identifier belongs to an unsaved model.
	IsNew() bool

	// String returns the wire form of the identifier. It is empty for New.
	String() string

	// Equal reports whether other identifies the same remote entity.
	Equal(other Identifier) bool
}

type newIdentifier struct {
	_ byte
}

var theNewIdentifier = &newIdentifier{}

// NewIdentifier returns the identifier carried by every unsaved model.
func NewIdentifier() Identifier {
	return theNewIdentifier
}

func (n *newIdentifier) IsNew() bool { return true }

func (n *newIdentifier) String() string { return "" }

// Equal is identity-based.
func (n *newIdentifier) Equal(other Identifier) bool {
	o, ok := other.(*newIdentifier)

	return ok && o == n
}

// UUIDIdentifier is a persisted identifier keyed by a UUID.
type UUIDIdentifier struct {
	value uuid.UUID
}

// NewUUIDIdentifier wraps an existing UUID.
func NewUUIDIdentifier(value uuid.UUID) UUIDIdentifier {
	return UUIDIdentifier{value: value}
}

// RandomUUIDIdentifier returns an identifier for a freshly generated UUID.
func RandomUUIDIdentifier() UUIDIdentifier {
	return UUIDIdentifier{value: uuid.New()}
}

// ParseUUIDIdentifier parses the canonical textual form of a UUID.
func ParseUUIDIdentifier(value string) (UUIDIdentifier, error) {
	if value == "" {
		return UUIDIdentifier{}, fmt.Errorf("uuid identifier: %w", ErrNilArgument)
	}

	parsed, err := uuid.Parse(value)
	if err != nil {
		return UUIDIdentifier{}, fmt.Errorf("%w: %q is not a UUID: %w", ErrInvalidIdentifierFormat, value, err)
	}

	return UUIDIdentifier{value: parsed}, nil
}

// UUID returns the wrapped value.
func (id UUIDIdentifier) UUID() uuid.UUID { return id.value }

func (id UUIDIdentifier) IsNew() bool { return false }

func (id UUIDIdentifier) String() string { return id.value.String() }

func (id UUIDIdentifier) Equal(other Identifier) bool {
	o, ok := other.(UUIDIdentifier)

	return ok && o.value == id.value
}

// MarshalText implements encoding.TextMarshaler.
func (id UUIDIdentifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// IntIdentifier is a persisted identifier keyed by an integer.
type IntIdentifier struct {
	value int64
}

// NewIntIdentifier wraps an integer key.
func NewIntIdentifier(value int64) IntIdentifier {
	return IntIdentifier{value: value}
}

// ParseIntIdentifier parses a base-10 integer key.
func ParseIntIdentifier(value string) (IntIdentifier, error) {
	if value == "" {
		return IntIdentifier{}, fmt.Errorf("integer identifier: %w", ErrNilArgument)
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return IntIdentifier{}, fmt.Errorf("%w: %q is not an integer: %w", ErrInvalidIdentifierFormat, value, err)
	}

	return IntIdentifier{value: parsed}, nil
}

// Int64 returns the wrapped value.
func (id IntIdentifier) Int64() int64 { return id.value }

func (id IntIdentifier) IsNew() bool { return false }

func (id IntIdentifier) String() string { return strconv.FormatInt(id.value, 10) }

func (id IntIdentifier) Equal(other Identifier) bool {
	o, ok := other.(IntIdentifier)

	return ok && o.value == id.value
}

// MarshalText implements encoding.TextMarshaler.
func (id IntIdentifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// StringIdentifier is a persisted identifier keyed by an opaque string.
type StringIdentifier struct {
	value string
}

// NewStringIdentifier wraps an opaque, non-empty key.
func NewStringIdentifier(value string) (StringIdentifier, error) {
	if value == "" {
		return StringIdentifier{}, fmt.Errorf("string identifier: %w", ErrNilArgument)
	}

	return StringIdentifier{value: value}, nil
}

func (id StringIdentifier) IsNew() bool { return false }

func (id StringIdentifier) String() string { return id.value }

func (id StringIdentifier) Equal(other Identifier) bool {
	o, ok := other.(StringIdentifier)

	return ok && o.value == id.value
}

// MarshalText implements encoding.TextMarshaler.
func (id StringIdentifier) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// IdentifierParser turns a wire string into one identifier variant.
type IdentifierParser func(value string) (Identifier, error)

// IntParser parses integer identifiers.
func IntParser(value string) (Identifier, error) {
	return ParseIntIdentifier(value)
}

// UUIDParser parses UUID identifiers.
func UUIDParser(value string) (Identifier, error) {
	return ParseUUIDIdentifier(value)
}

// StringParser accepts any non-empty string.
func StringParser(value string) (Identifier, error) {
	return NewStringIdentifier(value)
}

// IdentifierFactory parses wire strings by trying each parser in order.
type IdentifierFactory struct {
	parsers []IdentifierParser
}

// NewIdentifierFactory creates a factory trying parsers in the given order.
func NewIdentifierFactory(parsers ...IdentifierParser) *IdentifierFactory {
	return &IdentifierFactory{parsers: parsers}
}

var defaultIdentifierFactory = NewIdentifierFactory(IntParser, UUIDParser, StringParser)

// DefaultIdentifierFactory tries integer, then UUID, then opaque string.
// The opaque parser accepts anything non-empty, so it must stay last.
func DefaultIdentifierFactory() *IdentifierFactory {
	return defaultIdentifierFactory
}

// Parse returns the first successful parse of value.
func (f *IdentifierFactory) Parse(value string) (Identifier, error) {
	id, ok, err := f.CreateFrom(value)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedIdentifier, value)
	}

	return id, nil
}

// CreateFrom is the non-failing form of Parse: it reports ok=false when no
// parser accepts value, and fails only when value is empty.
func (f *IdentifierFactory) CreateFrom(value string) (Identifier, bool, error) {
	if value == "" {
		return nil, false, fmt.Errorf("identifier: %w", ErrNilArgument)
	}

	for _, parse := range f.parsers {
		id, err := parse(value)
		if err == nil {
			return id, true, nil
		}
	}

	return nil, false, nil
}

// ParseIdentifier parses value with the default factory.
func ParseIdentifier(value string) (Identifier, error) {
	return defaultIdentifierFactory.Parse(value)
}

// CreateIdentifierFrom parses value with the default factory without failing
// on unrecognized input.
func CreateIdentifierFrom(value string) (Identifier, bool, error) {
	return defaultIdentifierFactory.CreateFrom(value)
}
