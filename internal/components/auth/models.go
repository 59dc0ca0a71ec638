package auth

import (
	"errors"

	"github.com/google/uuid"

	"github.com/andrasnagy-data/bizops/internal/shared/token"
)

var (
	ErrNotFound      = errors.New("credential not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type (
	// Credential is the stored record for one principal.
	Credential struct {
		ID           uuid.UUID
		Username     string
		PasswordHash string `json:"-"` // Never serialize password hash
		Roles        []string
		Permissions  []string
	}

	// Credentials is validated sign-in/sign-up input: trimmed, length-checked, nothing else.
	Credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
)

// Principal strips the password hash and exposes only what a token may carry.
func (c *Credential) Principal() token.Principal {
	return token.Principal{
		ID:          c.ID.String(),
		Username:    c.Username,
		Roles:       c.Roles,
		Permissions: c.Permissions,
	}
}
