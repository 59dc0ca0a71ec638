package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/andrasnagy-data/bizops/internal/shared/config"
)

// bcrypt ignores input past this many bytes.
const bcryptMaxInput = 72

// BcryptHasher hashes and compares passwords with bcrypt at a configured cost.
type BcryptHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     string
	dummyErr  error
}

func NewBcryptHasher(cfg *config.Config) *BcryptHasher {
	return NewBcryptHasherWithCost(cfg.HashCost)
}

// NewBcryptHasherWithCost falls back to cost 10 when cost is outside bcrypt's accepted range.
func NewBcryptHasherWithCost(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prepare(password), h.cost)
	if err != nil {
		return "", oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// Compare reports whether password matches hash. A mismatch is (false, nil); only a malformed
// hash is an error.
func (h *BcryptHasher) Compare(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), prepare(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("PASSWORD_COMPARE_FAILED").Wrap(err)
	}
}

// CompareDummy burns the same time as a real comparison. Sign-in calls it for unknown usernames.
func (h *BcryptHasher) CompareDummy(password string) error {
	h.dummyOnce.Do(func() {
		h.dummy, h.dummyErr = h.Hash("dummy-password-for-timing")
	})
	if h.dummyErr != nil {
		return h.dummyErr
	}
	_, err := h.Compare(password, h.dummy)
	return err
}

func prepare(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
