package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/andrasnagy-data/bizops/internal/shared/database"
)

var ErrUnknownRole = errors.New("unknown role")

// Store is the PostgreSQL credential store.
type Store struct {
	db    database.Querier
	newID func() uuid.UUID
}

func NewStore(db database.Querier) *Store {
	return &Store{db: db, newID: uuid.New}
}

// FindByUsername looks up a credential by exact username together with the ids of its roles and
// of every permission those roles grant.
func (s *Store) FindByUsername(ctx context.Context, username string) (*Credential, error) {
	stmt := `
	SELECT
		u.id::text,
		u.username,
		u.password_hash,
		COALESCE(array_agg(DISTINCT ur.role_id) FILTER (WHERE ur.role_id IS NOT NULL), '{}') AS roles,
		COALESCE(array_agg(DISTINCT rp.permission_id) FILTER (WHERE rp.permission_id IS NOT NULL), '{}') AS permissions
	FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id
	LEFT JOIN role_permissions rp ON rp.role_id = ur.role_id
	WHERE u.username = $1
	GROUP BY u.id`

	var (
		rawID string
		c     Credential
	)
	err := s.db.QueryRow(ctx, stmt, username).Scan(
		&rawID,
		&c.Username,
		&c.PasswordHash,
		&c.Roles,
		&c.Permissions,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("CREDENTIAL_LOOKUP_FAILED").With("username", username).Wrap(err)
	}

	c.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, oops.Code("CREDENTIAL_ID_INVALID").With("id", rawID).Wrap(err)
	}
	return &c, nil
}

// Create inserts a credential with no roles. The username constraint is the authority on
// uniqueness: a violation is reported as ErrUsernameTaken.
func (s *Store) Create(ctx context.Context, username, passwordHash string) (*Credential, error) {
	id := s.newID()

	stmt := `
	INSERT INTO users (
		id, username, password_hash
	)
	VALUES (
		$1, $2, $3
	)`

	_, err := s.db.Exec(ctx, stmt, id, username, passwordHash)
	if isViolation(err, pgerrcode.UniqueViolation) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, oops.Code("CREDENTIAL_CREATE_FAILED").With("username", username).Wrap(err)
	}

	return &Credential{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Roles:        []string{},
		Permissions:  []string{},
	}, nil
}

// AssignRoles grants roles to a credential. Already granted roles are ignored.
func (s *Store) AssignRoles(ctx context.Context, id uuid.UUID, roles []string) error {
	if len(roles) == 0 {
		return nil
	}

	stmt := `
	INSERT INTO user_roles (user_id, role_id)
	SELECT $1, unnest($2::text[])
	ON CONFLICT DO NOTHING`

	_, err := s.db.Exec(ctx, stmt, id, roles)
	if isViolation(err, pgerrcode.ForeignKeyViolation) {
		return oops.Code("ROLE_UNKNOWN").With("roles", roles).Wrap(ErrUnknownRole)
	}
	if err != nil {
		return oops.Code("ROLE_ASSIGN_FAILED").With("user_id", id.String()).Wrap(err)
	}
	return nil
}

func isViolation(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
