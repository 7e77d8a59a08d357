package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/domain"
)

// PathUUID parses the named path value.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError("handler.path", name, "must be a valid id")
	}
	return id, nil
}

// CurrentUser returns the signed-in user. Routes behind RequireAuth always
// have one.
func CurrentUser(r *http.Request) *domain.User {
	return domain.UserFromContext(r.Context())
}
