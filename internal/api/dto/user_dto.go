package dto

import (
	"time"

	"github.com/spec-kit/order-service/internal/domain"
)

// UserUpsertRequest is the POST /user payload. Every field besides email is
// kept as given on first registration.
type UserUpsertRequest map[string]any

// Email returns the email field when it is a string.
func (r UserUpsertRequest) Email() string {
	email, _ := r[domain.UserFieldEmail].(string)
	return email
}

// RoleResponse omits role when the caller is not registered.
type RoleResponse struct {
	Role domain.UserRole `json:"role,omitempty"`
}

// AuthResponse describes a minted development token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
