package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMethod is returned by the registry for an unregistered method.
	ErrUnknownMethod = errors.New("gateway: unknown payment method")

	// ErrEmptyIdentifier is returned when a gateway accepted the request but
	// returned no identifier.
	ErrEmptyIdentifier = errors.New("gateway: empty identifier")

	// ErrInvalidCallback is returned when the callback query lacks the identifier.
	ErrInvalidCallback = errors.New("gateway: invalid callback")

	// ErrNotPaid is returned by Verify when the gateway does not confirm payment.
	ErrNotPaid = errors.New("gateway: payment not confirmed")

	// ErrAmountMismatch is returned by Verify when the paid amount differs.
	ErrAmountMismatch = errors.New("gateway: paid amount mismatch")
)

// Error wraps a gateway API error with the gateway's own code and payload.
type Error struct {
	Gateway       string
	Code          int
	Message       string
	Payload       []byte
	OriginalError error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s (code: %d)", e.Gateway, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Gateway, e.Message)
}

func (e *Error) Unwrap() error {
	return e.OriginalError
}

// ErrorPayload returns the raw gateway payload carried by err, if any.
func ErrorPayload(err error) []byte {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Payload
	}
	return nil
}
