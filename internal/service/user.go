package service

import (
	"context"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/repository"
)

// UserService loads user accounts.
type UserService struct {
	repo repository.Querier
}

// NewUserService creates a UserService.
func NewUserService(repo repository.Querier) *UserService {
	return &UserService{repo: repo}
}

// Get returns the user with the given ID.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	const op = "user.get"

	u, err := s.repo.GetUser(ctx, id)
	if isNoRows(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, domain.PersistenceError(op, err)
	}
	return &domain.User{ID: u.ID, Username: u.Username, Email: u.Email}, nil
}
