package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Code: EINVALID, Message: "invalid input"},
			expected: "invalid input",
		},
		{
			name:     "with operation",
			err:      &Error{Code: EINVALID, Op: "checkout.initiate", Message: "invalid input"},
			expected: "checkout.initiate: invalid input",
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    EINTERNAL,
				Op:      "checkout.initiate",
				Message: "failed to save",
				Err:     errors.New("database connection failed"),
			},
			expected: "checkout.initiate: failed to save: database connection failed",
		},
		{
			name: "wrapped error without op",
			err: &Error{
				Code:    EINTERNAL,
				Message: "failed to save",
				Err:     errors.New("database connection failed"),
			},
			expected: "failed to save: database connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_IsMatchesSentinelWithOp(t *testing.T) {
	sentinel := &Error{Code: EPAYMENT, Message: "Insufficient wallet balance"}
	tagged := sentinel.WithOp("checkout.initiate")

	if !errors.Is(tagged, sentinel) {
		t.Fatal("errors.Is should match a sentinel after WithOp")
	}
	if !errors.Is(fmt.Errorf("wrapped: %w", tagged), sentinel) {
		t.Fatal("errors.Is should match through fmt wrapping")
	}
	if errors.Is(tagged, &Error{Code: EPAYMENT, Message: "other"}) {
		t.Fatal("errors.Is should not match a different message")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"domain error", &Error{Code: EINVALID, Message: "test"}, EINVALID},
		{"wrapped domain error", fmt.Errorf("wrapped: %w", &Error{Code: ENOTFOUND, Message: "test"}), ENOTFOUND},
		{"validation error", NewValidationError("cart.total", "courses", "required"), EUNPROCESSABLE},
		{"non-domain error", errors.New("some error"), EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"domain error with message", &Error{Code: EINVALID, Message: "invalid course id"}, "invalid course id"},
		{"internal error hides message", &Error{Code: EINTERNAL, Message: "connection string leaked"}, "An internal error occurred. Please try again later."},
		{"non-domain error returns generic message", errors.New("some internal detail"), "An internal error occurred. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.expected {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidationError_Properties(t *testing.T) {
	err := NewValidationError("wallet.charge", "amount", "must be at least 10000")
	err = AddFieldError(err, "method", "is required")
	err = AddFieldError(err, "amount", "must be a number")

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("expected *ValidationError")
	}

	props := ve.Properties()
	if len(props) != 2 {
		t.Fatalf("len(Properties()) = %d, want 2", len(props))
	}
	if props[0].Property != "amount" || len(props[0].Errors) != 2 {
		t.Errorf("props[0] = %+v, want amount with 2 errors", props[0])
	}
	if props[1].Property != "method" {
		t.Errorf("props[1].Property = %q, want method", props[1].Property)
	}
	if ErrorOp(err) != "wallet.charge" {
		t.Errorf("ErrorOp() = %q, want wallet.charge", ErrorOp(err))
	}
}

func TestValidationError_SingleFieldMessage(t *testing.T) {
	err := NewValidationError("", "code", "coupon code is not valid")
	if got := err.Error(); got != "code: coupon code is not valid" {
		t.Errorf("Error() = %q", got)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		msg  string
	}{
		{"not found", NotFound("bundle.get", "bundle", "b1"), ENOTFOUND, "bundle not found: b1"},
		{"unauthorized", Unauthorized("", "sign in"), EUNAUTHORIZED, "sign in"},
		{"forbidden", Forbidden("", "admins only"), EFORBIDDEN, "admins only"},
		{"invalid", Invalid("", "bad id"), EINVALID, "bad id"},
		{"conflict", Conflict("roadmap.activate", "roadmap already active"), ECONFLICT, "roadmap already active"},
		{"unprocessable", Unprocessable("checkout", "gateway refused"), EUNPROCESSABLE, "gateway refused"},
		{"internal hides cause", Internal(errors.New("db down"), "x", "boom"), EINTERNAL, "An internal error occurred. Please try again later."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.code {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.code)
			}
			if got := ErrorMessage(tt.err); got != tt.msg {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.msg)
			}
		})
	}
}
