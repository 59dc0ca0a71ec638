package auth

import (
	"context"
	"errors"

	"github.com/andrasnagy-data/bizops/internal/shared/apperr"
	"github.com/andrasnagy-data/bizops/internal/shared/metrics"
	"github.com/andrasnagy-data/bizops/internal/shared/token"
)

// Sign-in step codes.
const (
	CodeSignInValidation = "C01H01-01"
	CodeSignInLookup     = "C01H01-02"
	CodeSignInUnknown    = "C01H01-03"
	CodeSignInCompare    = "C01H01-04"
	CodeSignInMismatch   = "C01H01-05"
	CodeSignInSign       = "C01H01-06"
)

// Sign-up step codes.
const (
	CodeSignUpValidation = "C01H02-01"
	CodeSignUpLookup     = "C01H02-02"
	CodeSignUpTaken      = "C01H02-03"
	CodeSignUpHash       = "C01H02-04"
	CodeSignUpCreate     = "C01H02-05"
	CodeSignUpSign       = "C01H02-06"
)

const (
	opSignIn = "signin"
	opSignUp = "signup"
)

var errBadPassword = errors.New("password does not match")

type (
	servicer interface {
		SignIn(ctx context.Context, body []byte) (string, error)
		SignUp(ctx context.Context, body []byte) (string, error)
	}

	credentialStore interface {
		FindByUsername(ctx context.Context, username string) (*Credential, error)
		Create(ctx context.Context, username, passwordHash string) (*Credential, error)
	}

	passwordHasher interface {
		Hash(password string) (string, error)
		Compare(password, hash string) (bool, error)
		CompareDummy(password string) error
	}

	tokenSigner interface {
		Sign(p token.Principal) (string, error)
	}

	credentialsValidator interface {
		Credentials(raw []byte) (Credentials, error)
	}

	attemptRecorder interface {
		RecordAuthAttempt(operation, outcome string)
	}

	service struct {
		validator credentialsValidator
		store     credentialStore
		hasher    passwordHasher
		signer    tokenSigner
		attempts  attemptRecorder
	}
)

func NewService(
	validator *Validator,
	store *Store,
	hasher *BcryptHasher,
	issuer *token.Issuer,
	m *metrics.Metrics,
) servicer {
	return newService(validator, store, hasher, issuer, m)
}

func newService(
	validator credentialsValidator,
	store credentialStore,
	hasher passwordHasher,
	signer tokenSigner,
	attempts attemptRecorder,
) *service {
	return &service{
		validator: validator,
		store:     store,
		hasher:    hasher,
		signer:    signer,
		attempts:  attempts,
	}
}

// SignIn validates the body, looks the credential up, checks the password and issues a token.
// An unknown username is indistinguishable from a wrong password for the caller.
func (s *service) SignIn(ctx context.Context, body []byte) (string, error) {
	tok, err := s.signIn(ctx, body)
	s.record(opSignIn, err)
	return tok, err
}

func (s *service) signIn(ctx context.Context, body []byte) (string, error) {
	creds, err := s.validator.Credentials(body)
	if err != nil {
		return "", apperr.Invalid(CodeSignInValidation, err)
	}

	cred, err := s.store.FindByUsername(ctx, creds.Username)
	if errors.Is(err, ErrNotFound) {
		// Spend the same bcrypt time as a real comparison.
		_ = s.hasher.CompareDummy(creds.Password)
		return "", apperr.Wrap(apperr.Forbidden, CodeSignInUnknown, err)
	}
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, CodeSignInLookup, err)
	}

	ok, err := s.hasher.Compare(creds.Password, cred.PasswordHash)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, CodeSignInCompare, err)
	}
	if !ok {
		return "", apperr.Wrap(apperr.Forbidden, CodeSignInMismatch, errBadPassword)
	}

	tok, err := s.signer.Sign(cred.Principal())
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, CodeSignInSign, err)
	}
	return tok, nil
}

// SignUp validates the body, creates the credential and issues a token for it. The store's
// unique constraint decides races between concurrent sign-ups for one username.
func (s *service) SignUp(ctx context.Context, body []byte) (string, error) {
	tok, err := s.signUp(ctx, body)
	s.record(opSignUp, err)
	return tok, err
}

func (s *service) signUp(ctx context.Context, body []byte) (string, error) {
	creds, err := s.validator.Credentials(body)
	if err != nil {
		return "", apperr.Invalid(CodeSignUpValidation, err)
	}

	_, err = s.store.FindByUsername(ctx, creds.Username)
	switch {
	case err == nil:
		return "", apperr.Wrap(apperr.Forbidden, CodeSignUpTaken, ErrUsernameTaken)
	case !errors.Is(err, ErrNotFound):
		return "", apperr.Wrap(apperr.Internal, CodeSignUpLookup, err)
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, CodeSignUpHash, err)
	}

	cred, err := s.store.Create(ctx, creds.Username, hash)
	if errors.Is(err, ErrUsernameTaken) {
		return "", apperr.Wrap(apperr.Forbidden, CodeSignUpTaken, err)
	}
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, CodeSignUpCreate, err)
	}

	tok, err := s.signer.Sign(cred.Principal())
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, CodeSignUpSign, err)
	}
	return tok, nil
}

func (s *service) record(operation string, err error) {
	if s.attempts == nil {
		return
	}
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = apperr.From(err).Code
	}
	s.attempts.RecordAuthAttempt(operation, outcome)
}
