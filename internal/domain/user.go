package domain

import "time"

// UserRole is the access level granted to a registered user.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
)

// Document keys of the users collection.
const (
	UserFieldID           = "_id"
	UserFieldEmail        = "email"
	UserFieldRole         = "role"
	UserFieldCreatedAt    = "created_at"
	UserFieldLastLoggedIn = "last_loggedIn"
)

// User is a registered caller, keyed by email.
type User struct {
	ID           string
	Email        string
	Role         UserRole
	CreatedAt    time.Time
	LastLoggedIn time.Time
	// Profile holds caller-supplied fields kept from the first registration.
	Profile map[string]any
}

// IsReservedUserField reports whether key is managed by the registry and
// must not be taken from caller input.
func IsReservedUserField(key string) bool {
	switch key {
	case UserFieldID, "id", UserFieldEmail, UserFieldRole, UserFieldCreatedAt, UserFieldLastLoggedIn:
		return true
	}
	return false
}
