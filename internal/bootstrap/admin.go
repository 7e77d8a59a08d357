// Package bootstrap handles one-time initialization tasks for the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/academy/internal/auth"
	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/repository"
)

// AdminMinPasswordLength is stricter than the signup minimum.
const AdminMinPasswordLength = 12

// AdminConfig contains configuration for the initial admin user.
type AdminConfig struct {
	Phone    string
	Password string
	Name     string
}

// Validate checks that the admin configuration is valid.
func (c *AdminConfig) Validate() error {
	if c.Phone == "" {
		return errors.New("admin phone is required")
	}
	if c.Password == "" {
		return errors.New("admin password is required")
	}
	if len(c.Password) < AdminMinPasswordLength {
		return fmt.Errorf("admin password must be at least %d characters", AdminMinPasswordLength)
	}
	return nil
}

// AdminStore is the subset of repository.Querier EnsureAdmin needs.
type AdminStore interface {
	GetUserByPhone(ctx context.Context, phone string) (repository.User, error)
	CreateUser(ctx context.Context, arg repository.CreateUserParams) (repository.User, error)
}

// EnsureAdmin creates the initial admin account if no user holds the phone.
// It is idempotent and safe to call on every startup.
//
// An existing user with the phone is left untouched, whatever its role: the
// bootstrap never promotes accounts.
func EnsureAdmin(ctx context.Context, store AdminStore, hasher *auth.Hasher, cfg *AdminConfig, logger *slog.Logger) error {
	if cfg == nil || cfg.Phone == "" || cfg.Password == "" {
		logger.Warn("bootstrap: skipping admin creation - ADMIN_PHONE or ADMIN_PASSWORD not set",
			"hint", "Set these environment variables to create an admin user on first startup",
		)
		return nil
	}

	cfg.Phone = strings.TrimSpace(cfg.Phone)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid admin configuration: %w", err)
	}

	existing, err := store.GetUserByPhone(ctx, cfg.Phone)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			logger.Warn("bootstrap: admin phone belongs to a non-admin user", "user_id", existing.ID, "role", existing.Role)
			return nil
		}
		logger.Info("bootstrap: admin user already exists", "user_id", existing.ID)
		return nil
	}
	if !errors.Is(err, repository.ErrNoRows) {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}

	passwordHash, err := hasher.Hash(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "Admin"
	}

	user, err := store.CreateUser(ctx, repository.CreateUserParams{
		Name:         name,
		Phone:        cfg.Phone,
		PasswordHash: passwordHash,
		Role:         domain.RoleAdmin,
	})
	if repository.IsUniqueViolation(err) {
		logger.Info("bootstrap: admin user already exists (concurrent creation)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("bootstrap: admin user created", "user_id", user.ID)
	return nil
}
