package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/andrasnagy-data/bizops/internal/shared/database"
)

type (
	repoer interface {
		List(ctx context.Context) ([]Role, error)
		GetByID(ctx context.Context, id string) (*Role, error)
	}

	repo struct {
		db database.Querier
	}
)

const selectRoles = `
	SELECT
		r.id,
		r.name,
		COALESCE(array_agg(rp.permission_id ORDER BY rp.permission_id) FILTER (WHERE rp.permission_id IS NOT NULL), '{}') AS permissions
	FROM roles r
	LEFT JOIN role_permissions rp ON rp.role_id = r.id`

func NewRepo(db database.Querier) repoer {
	return &repo{db: db}
}

// List returns every role with its permission ids, ordered by role id.
func (r *repo) List(ctx context.Context) ([]Role, error) {
	stmt := selectRoles + `
	GROUP BY r.id, r.name
	ORDER BY r.id`

	rows, err := r.db.Query(ctx, stmt)
	if err != nil {
		return nil, oops.Code("ROLE_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	roles := []Role{}
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Permissions); err != nil {
			return nil, oops.Code("ROLE_SCAN_FAILED").Wrap(err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ROLE_LIST_FAILED").Wrap(err)
	}
	return roles, nil
}

func (r *repo) GetByID(ctx context.Context, id string) (*Role, error) {
	stmt := selectRoles + `
	WHERE r.id = $1
	GROUP BY r.id, r.name`

	var role Role
	err := r.db.QueryRow(ctx, stmt, id).Scan(&role.ID, &role.Name, &role.Permissions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("ROLE_GET_FAILED").With("role_id", id).Wrap(err)
	}
	return &role, nil
}
