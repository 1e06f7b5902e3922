package users

import (
	"context"
	"errors"
	"strings"
)

var ErrInvalidInput = errors.New("invalid input")

const (
	maxPhoneLen   = 32
	maxAddressLen = 300
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth records the identity returned by the OAuth provider.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// UpdateContact applies the non-nil fields of c.
func (s *Service) UpdateContact(ctx context.Context, userID string, c Contact) (User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if c.Phone != nil {
		user.Phone = strings.TrimSpace(*c.Phone)
	}
	if c.Address != nil {
		user.Address = strings.TrimSpace(*c.Address)
	}
	if len([]rune(user.Phone)) > maxPhoneLen || len([]rune(user.Address)) > maxAddressLen {
		return User{}, ErrInvalidInput
	}
	if err := s.Repo.UpdateContact(ctx, userID, user.Phone, user.Address); err != nil {
		return User{}, err
	}
	return user, nil
}
