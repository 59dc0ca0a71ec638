package roles

import (
	"context"
	"errors"

	"github.com/andrasnagy-data/bizops/internal/shared/apperr"
)

const (
	CodeListFailed = "C02H01-01"
	CodeGetFailed  = "C02H02-01"
	CodeNotFound   = "C02H02-02"
)

type (
	servicer interface {
		List(ctx context.Context) ([]Role, error)
		Get(ctx context.Context, id string) (*Role, error)
	}

	service struct {
		repo repoer
	}
)

func NewService(repo repoer) servicer {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]Role, error) {
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, CodeListFailed, err)
	}
	return roles, nil
}

func (s *service) Get(ctx context.Context, id string) (*Role, error) {
	role, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Wrap(apperr.NotFound, CodeNotFound, err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, CodeGetFailed, err)
	}
	return role, nil
}
