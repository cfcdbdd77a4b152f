package jsonapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Static errors for err113 compliance.
var (
	// ErrConfiguration is returned when a model type cannot be used by a builder.
	ErrConfiguration = errors.New("model configuration error")

	// ErrValidation is the parent of every field validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrRequiredFieldMissing is returned by the strict handler for an unset required field.
	ErrRequiredFieldMissing = errors.New("required field missing")

	// ErrUnknownField is returned when a field name is not builder-populated on the model.
	ErrUnknownField = errors.New("unknown field")

	// ErrFieldType is returned when a value cannot be stored in the target field.
	ErrFieldType = errors.New("value has wrong type for field")

	// ErrIdentifierRequired is returned by BuildShallow when no identifier is pending.
	ErrIdentifierRequired = errors.New("identifier required")

	// ErrIdentityConflict is returned when a persisted identifier would be replaced.
	ErrIdentityConflict = errors.New("identifier already assigned")

	// ErrNilArgument is returned when a required argument is nil or empty.
	ErrNilArgument = errors.New("argument must not be nil")

	// ErrInvalidIdentifierFormat is returned when a string is not valid for an identifier variant.
	ErrInvalidIdentifierFormat = errors.New("invalid identifier format")

	// ErrUnrecognizedIdentifier is returned when no identifier variant accepts a string.
	ErrUnrecognizedIdentifier = errors.New("unrecognized identifier format")

	// ErrInvalidPageNumber is returned for page numbers below 1.
	ErrInvalidPageNumber = errors.New("page number must be at least 1")

	// ErrInvalidPageLimit is returned for negative page limits other than UnlimitedPages.
	ErrInvalidPageLimit = errors.New("invalid page limit")

	// ErrNoMoreItems is returned by Next on an exhausted iterator.
	ErrNoMoreItems = errors.New("no more items")

	// ErrEmptyPage is reported when a fetch returns no page at all.
	ErrEmptyPage = errors.New("fetch returned no page")

	// ErrInvalidDocument is returned when a JSON:API document cannot be decoded.
	ErrInvalidDocument = errors.New("invalid JSON:API document")
)

// FieldError describes a failure tied to one field of one model type.
type FieldError struct {
	Model string
	Field string
	Err   error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Model, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is reports ErrValidation for every field-level validation failure.
func (e *FieldError) Is(target error) bool {
	if target == ErrValidation {
		return errors.Is(e.Err, ErrRequiredFieldMissing) ||
			errors.Is(e.Err, ErrUnknownField) ||
			errors.Is(e.Err, ErrFieldType)
	}

	return false
}

func newFieldError(model, field string, err error) *FieldError {
	return &FieldError{Model: model, Field: field, Err: err}
}

// ErrorObject is a JSON:API error object.
type ErrorObject struct {
	ID     string         `json:"id,omitempty"     yaml:"id,omitempty"`
	Status string         `json:"status,omitempty" yaml:"status,omitempty"`
	Code   string         `json:"code,omitempty"   yaml:"code,omitempty"`
	Title  string         `json:"title,omitempty"  yaml:"title,omitempty"`
	Detail string         `json:"detail,omitempty" yaml:"detail,omitempty"`
	Source *ErrorSource   `json:"source,omitempty" yaml:"source,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"   yaml:"meta,omitempty"`
}

// ErrorSource points at the part of the request that caused an error.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"   yaml:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty" yaml:"parameter,omitempty"`
}

// Error implements the error interface.
func (e *ErrorObject) Error() string {
	switch {
	case e.Title != "" && e.Detail != "":
		return fmt.Sprintf("%s: %s (status: %s)", e.Title, e.Detail, e.Status)
	case e.Title != "":
		return fmt.Sprintf("%s (status: %s)", e.Title, e.Status)
	default:
		return fmt.Sprintf("%s (status: %s)", e.Detail, e.Status)
	}
}

// StatusCode returns the HTTP status of the error object, or 0 if unset.
func (e *ErrorObject) StatusCode() int {
	code, err := strconv.Atoi(e.Status)
	if err != nil {
		return 0
	}

	return code
}

// ResponseError is the errors member of a failed JSON:API response.
type ResponseError struct {
	StatusCode int           `json:"-"`
	Errors     []ErrorObject `json:"errors"`
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	if len(e.Errors) == 0 {
		if e.StatusCode != 0 {
			return fmt.Sprintf("request failed with status %d", e.StatusCode)
		}

		return "unknown error"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	return fmt.Sprintf("multiple errors: %v", e.Errors)
}

// FirstError returns the first error or nil.
func (e *ResponseError) FirstError() *ErrorObject {
	if len(e.Errors) > 0 {
		return &e.Errors[0]
	}

	return nil
}

func (e *ResponseError) status() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	if first := e.FirstError(); first != nil {
		return first.StatusCode()
	}

	return 0
}

// ParseResponseError decodes a JSON:API errors document.
func ParseResponseError(statusCode int, data []byte) (*ResponseError, error) {
	respErr := &ResponseError{StatusCode: statusCode}
	if len(data) == 0 {
		return respErr, nil
	}

	err := json.Unmarshal(data, respErr)
	if err != nil {
		return nil, fmt.Errorf("parsing error response: %w", err)
	}

	return respErr, nil
}

func hasStatus(err error, status int) bool {
	respErr := &ResponseError{}
	if errors.As(err, &respErr) {
		return respErr.status() == status
	}

	obj := &ErrorObject{}
	if errors.As(err, &obj) {
		return obj.StatusCode() == status
	}

	return false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}
