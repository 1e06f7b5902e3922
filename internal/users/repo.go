package users

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

// Repo persists users.
type Repo interface {
	// Upsert stores the identity fields from a login; contact fields are kept.
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	UpdateContact(ctx context.Context, userID, phone, address string) error
}
