package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/alexanderramin/pdptrack/internal/domain"
	"github.com/alexanderramin/pdptrack/internal/repository"
	"github.com/google/uuid"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 20
)

type userService struct {
	users repository.UserRepo
}

func NewUserService(users repository.UserRepo) UserService {
	return &userService{users: users}
}

func (s *userService) Register(ctx context.Context, name, email string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := requireText("name", name); err != nil {
		return nil, err
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, fmt.Errorf("email %q is not a valid address: %w", email, domain.ErrValidation)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email %q is already registered: %w", email, domain.ErrValidation)
	} else if !isNotFound(err) {
		return nil, err
	}

	u := &domain.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) Resolve(ctx context.Context, ref string) (*domain.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	if strings.Contains(ref, "@") {
		return s.users.GetByEmail(ctx, ref)
	}
	return s.users.GetByID(ctx, ref)
}

func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

// Search matches name or email. limit is clamped to [1, 20]; zero means 10.
func (s *userService) Search(ctx context.Context, query string, limit int) ([]*domain.User, error) {
	switch {
	case limit == 0:
		limit = defaultSearchLimit
	case limit < 1:
		limit = 1
	case limit > maxSearchLimit:
		limit = maxSearchLimit
	}
	return s.users.Search(ctx, strings.TrimSpace(query), limit)
}
