package domain

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestUserContext(t *testing.T) {
	t.Run("UserFromContext returns nil when anonymous", func(t *testing.T) {
		ctx := context.Background()
		if user := UserFromContext(ctx); user != nil {
			t.Errorf("expected nil user, got %+v", user)
		}
	})

	t.Run("UserFromContext returns user when set", func(t *testing.T) {
		expected := &User{ID: uuid.New(), Name: "Reza", Phone: "09120000000", Role: RoleMarketer}
		ctx := NewContextWithUser(context.Background(), expected)

		user := UserFromContext(ctx)
		if user == nil {
			t.Fatal("expected user, got nil")
		}
		if user.ID != expected.ID {
			t.Errorf("expected ID %v, got %v", expected.ID, user.ID)
		}
		if user.Role != RoleMarketer {
			t.Errorf("expected Role %q, got %q", RoleMarketer, user.Role)
		}
	})

	t.Run("UserIDFromContext returns uuid.Nil when anonymous", func(t *testing.T) {
		if id := UserIDFromContext(context.Background()); id != uuid.Nil {
			t.Errorf("expected uuid.Nil, got %v", id)
		}
	})

	t.Run("UserIDFromContext returns the user's ID", func(t *testing.T) {
		id := uuid.New()
		ctx := NewContextWithUser(context.Background(), &User{ID: id})
		if got := UserIDFromContext(ctx); got != id {
			t.Errorf("expected %v, got %v", id, got)
		}
	})
}

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want bool
	}{
		{"nil user", nil, false},
		{"learner", &User{Role: RoleUser}, false},
		{"marketer", &User{Role: RoleMarketer}, false},
		{"admin", &User{Role: RoleAdmin}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	t.Run("RequestIDFromContext returns empty string when no request ID", func(t *testing.T) {
		if requestID := RequestIDFromContext(context.Background()); requestID != "" {
			t.Errorf("expected empty string, got %q", requestID)
		}
	})

	t.Run("RequestIDFromContext returns request ID when set", func(t *testing.T) {
		ctx := NewContextWithRequestID(context.Background(), "req-12345")
		if requestID := RequestIDFromContext(ctx); requestID != "req-12345" {
			t.Errorf("expected %q, got %q", "req-12345", requestID)
		}
	})
}

func TestMultipleContextValues(t *testing.T) {
	user := &User{ID: uuid.New(), Email: "user@test.com"}

	ctx := NewContextWithUser(context.Background(), user)
	ctx = NewContextWithRequestID(ctx, "req-abc123")

	if got := UserFromContext(ctx); got == nil || got.ID != user.ID {
		t.Error("user not found or wrong ID")
	}
	if got := RequestIDFromContext(ctx); got != "req-abc123" {
		t.Errorf("expected request ID %q, got %q", "req-abc123", got)
	}
}
