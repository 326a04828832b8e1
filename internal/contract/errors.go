package contract

import (
	"errors"
	"fmt"
)

var (
	// ErrContractViolation is matched (errors.Is) by every *Violation.
	ErrContractViolation = errors.New("contract violation")

	// ErrInvalidSchema is matched (errors.Is) by every *SchemaError.
	ErrInvalidSchema = errors.New("schema error")
)

// ViolationKind classifies which expectation a payload failed.
type ViolationKind string

const (
	// ViolationMissingField means a declared field is absent
	ViolationMissingField ViolationKind = "missing_field"
	// ViolationTypeMismatch means a field holds a value of the wrong type
	ViolationTypeMismatch ViolationKind = "type_mismatch"
	// ViolationNotAllowed means a string field holds a value outside its allowed set
	ViolationNotAllowed ViolationKind = "not_allowed"
	// ViolationMalformed means the raw payload could not be decoded as JSON
	ViolationMalformed ViolationKind = "malformed_payload"
)

// Violation reports the mismatch between a payload and a well-formed schema.
type Violation struct {
	Kind ViolationKind `json:"kind"`

	// Path is the field path, e.g. "currency" or "transactions[0].type".
	// "$" denotes the payload root.
	Path string `json:"path"`

	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// Reason is the human-readable description without the error-kind prefix.
func (v *Violation) Reason() string {
	switch v.Kind {
	case ViolationMissingField:
		return fmt.Sprintf("missing field `%s`", v.Path)
	case ViolationTypeMismatch:
		return fmt.Sprintf("field `%s` expected type `%s`, got `%s`", v.Path, v.Expected, v.Actual)
	case ViolationNotAllowed:
		return fmt.Sprintf("field `%s` value `%v` not in allowed set", v.Path, v.Value)
	case ViolationMalformed:
		return fmt.Sprintf("payload is not valid JSON: %v", v.Value)
	default:
		return fmt.Sprintf("field `%s` violates the contract", v.Path)
	}
}

// Error implements the error interface
func (v *Violation) Error() string {
	return "contract violation: " + v.Reason()
}

// Unwrap allows errors.Is(err, ErrContractViolation)
func (v *Violation) Unwrap() error {
	return ErrContractViolation
}

// SchemaError reports a malformed schema: a fixture defect on the caller's side,
// never a property of the payload.
type SchemaError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("schema error: field `%s`: %s", e.Path, e.Message)
	}
	return "schema error: " + e.Message
}

// Unwrap allows errors.Is(err, ErrInvalidSchema)
func (e *SchemaError) Unwrap() error {
	return ErrInvalidSchema
}

// IsViolation reports whether err carries a *Violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

// IsSchemaError reports whether err carries a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
