package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"oriani/internal/models"
)

type UserStore struct {
	coll Collection
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	doc, err := s.coll.FindOne(ctx, Filter{"email": email})
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", email, err)
	}
	return decodeOne[models.User](doc)
}

// Create stores a user with an already hashed password.
func (s *UserStore) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now(),
	}
	if err := s.coll.InsertOne(ctx, user.ID, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
