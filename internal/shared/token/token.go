// Package token issues and verifies the signed session claim.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/andrasnagy-data/bizops/internal/shared/config"
)

var (
	ErrMissingSecret      = errors.New("token signing secret is not configured")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingSubject     = errors.New("token claim sub is missing")
	ErrMissingRoles       = errors.New("token claim roles is missing")
	ErrMissingPermissions = errors.New("token claim permissions is missing")
)

type (
	// Principal is the outward-facing identity a token is issued for. It has no password field.
	Principal struct {
		ID          string
		Username    string
		Roles       []string
		Permissions []string
	}

	// Claims is the token payload. Subject holds the credential id.
	Claims struct {
		Username    string   `json:"username,omitempty"`
		Roles       []string `json:"roles"`
		Permissions []string `json:"permissions"`
		jwt.RegisteredClaims
	}

	Issuer struct {
		secret []byte
		issuer string
		ttl    time.Duration
		now    func() time.Time
	}
)

func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{
		secret: cfg.SigningSecret(),
		issuer: cfg.TokenIssuer,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// HasPermission reports whether the claim grants perm.
func (c *Claims) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Sign issues an HS256 token for p. Roles and permissions are always encoded as arrays.
func (i *Issuer) Sign(p Principal) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrMissingSecret
	}

	now := i.now()
	claims := Claims{
		Username:    p.Username,
		Roles:       nonNil(p.Roles),
		Permissions: nonNil(p.Permissions),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  p.ID,
			Issuer:   i.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and that sub, roles and permissions are present.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	if len(i.secret) == 0 {
		return nil, ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	switch {
	case claims.Subject == "":
		return nil, ErrMissingSubject
	case claims.Roles == nil:
		return nil, ErrMissingRoles
	case claims.Permissions == nil:
		return nil, ErrMissingPermissions
	}
	return claims, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
