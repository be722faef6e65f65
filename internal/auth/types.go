package auth

import (
	"errors"
	"slices"
)

// Role represents an authorisation tier for API clients.
type Role string

const (
	// RoleViewer can read status, registries and the mirrored state tree.
	RoleViewer Role = "viewer"

	// RoleOperator can additionally change forwarding state on devices.
	RoleOperator Role = "operator"
)

// ValidRoles is the set of assignable roles.
var ValidRoles = []Role{RoleViewer, RoleOperator}

// IsValidRole returns true if r is an assignable role.
func IsValidRole(r Role) bool {
	return slices.Contains(ValidRoles, r)
}

// Client is a provisioned API client.
type Client struct {
	ID         string `json:"id"`
	SecretHash string `json:"-"` // never serialised
	Role       Role   `json:"role"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrDuplicateClient    = errors.New("duplicate client id")
	ErrTokenInvalid       = errors.New("invalid token")
)
