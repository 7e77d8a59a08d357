package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Application error codes.
// These map to HTTP status codes and determine user-facing messages.
const (
	ECONFLICT      = "conflict"         // 409 - Resource conflict (duplicate phone, active roadmap, etc.)
	EINTERNAL      = "internal"         // 500 - Internal server error (hide details)
	EINVALID       = "invalid"          // 400 - Malformed request
	EUNPROCESSABLE = "unprocessable"    // 422 - Well-formed but rejected (gateway refused, bad coupon)
	ENOTFOUND      = "not_found"        // 404 - Resource not found
	EUNAUTHORIZED  = "unauthorized"     // 401 - Authentication required
	EFORBIDDEN     = "forbidden"        // 403 - Authenticated but not permitted
	EPAYMENT       = "payment_required" // 402 - Payment blocked or insufficient funds
	ETOOLARGE      = "too_large"        // 413 - Request body over the limit
	ERATELIMIT     = "rate_limited"     // 429 - Too many requests
)

// Error represents an application error with a code and message.
// It implements the error interface and supports error wrapping.
type Error struct {
	// Code is a machine-readable error code (e.g., EINVALID, ENOTFOUND).
	Code string

	// Message is a human-readable error message safe to show to users.
	Message string

	// Op is the operation where the error occurred (e.g., "checkout.initiate").
	// Used for debugging and logging, not shown to users.
	Op string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by code and message so that errors.Is works
// against package-level sentinels even when Op was attached later.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithOp returns a copy of the error tagged with the operation.
func (e *Error) WithOp(op string) *Error {
	c := *e
	c.Op = op
	return &c
}

// ErrorCode extracts the error code from an error.
// Returns EINTERNAL for non-domain errors. Validation errors report EUNPROCESSABLE.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return EUNPROCESSABLE
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return EINTERNAL
}

// ErrorMessage extracts a user-facing message from an error.
// For internal errors, returns a generic message to avoid leaking details.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}

	return "An internal error occurred. Please try again later."
}

// ErrorOp extracts the operation from an error (for logging).
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Op
	}

	return ""
}

// Errorf creates a new domain error with formatted message.
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsCode returns true if err has the given error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// NotFound creates a not found error for a resource.
// Example: domain.NotFound("bundle.get", "bundle", id.String())
func NotFound(op, resource, identifier string) error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

func Unauthorized(op, message string) error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

func Forbidden(op, message string) error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}

func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

func Conflict(op, message string) error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

func Unprocessable(op, message string) error {
	return &Error{Code: EUNPROCESSABLE, Op: op, Message: message}
}

// Internal creates an internal error (wraps underlying error).
// The message shown to users will be generic; the underlying error is for logging.
func Internal(err error, op, message string) error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// =============================================================================
// Validation Errors (field-level errors, rendered as a 422 list)
// =============================================================================

// ValidationError represents one or more field validation failures.
type ValidationError struct {
	// Fields maps property names to their error messages.
	Fields map[string][]string

	Op string
}

func (e *ValidationError) Error() string {
	props := e.Properties()
	if len(props) == 1 {
		msg := props[0].Property + ": " + joinMessages(props[0].Errors)
		if e.Op != "" {
			return e.Op + ": " + msg
		}
		return msg
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: validation failed for %d fields", e.Op, len(e.Fields))
	}
	return fmt.Sprintf("validation failed for %d fields", len(e.Fields))
}

// PropertyErrors is the wire shape of a single invalid property.
type PropertyErrors struct {
	Property string   `json:"property"`
	Errors   []string `json:"errors"`
}

// Properties returns the field errors sorted by property name.
func (e *ValidationError) Properties() []PropertyErrors {
	out := make([]PropertyErrors, 0, len(e.Fields))
	for prop, msgs := range e.Fields {
		out = append(out, PropertyErrors{Property: prop, Errors: msgs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Property < out[j].Property })
	return out
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{
		Op:     op,
		Fields: map[string][]string{field: {message}},
	}
}

// AddFieldError appends a field error to an existing ValidationError,
// creating one when err is nil or not a ValidationError.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if err != nil && errors.As(err, &ve) {
		ve.Fields[field] = append(ve.Fields[field], message)
		return ve
	}

	return &ValidationError{
		Fields: map[string][]string{field: {message}},
	}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func joinMessages(msgs []string) string {
	out := ""
	for i, m := range msgs {
		if i > 0 {
			out += "; "
		}
		out += m
	}
	return out
}
