package domain

import (
	"errors"
	"time"
)

const (
	RoleCommittente = "committente"
	RoleImpresa     = "impresa"
	RoleProgettista = "progettista"
	RoleAdmin       = "admin"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrIdentityNotFound = errors.New("identity not found")
var ErrIdentityExists = errors.New("identity already exists")

// UnlockerRoles are the roles allowed to pay for contact unlocks.
var UnlockerRoles = []string{RoleImpresa, RoleProgettista}

// ValidRole reports whether role is one of the known marketplace roles.
func ValidRole(role string) bool {
	switch role {
	case RoleCommittente, RoleImpresa, RoleProgettista, RoleAdmin:
		return true
	}
	return false
}

// Identity models an authenticated actor in the marketplace.
// Role is immutable after registration.
type Identity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"created_at"`
}
