package service

import (
	"context"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

type UserService struct {
	store Store
}

func NewUserService(store Store) *UserService {
	return &UserService{store: store}
}

// EnsureUser registers the player or refreshes their chat and name.
func (s *UserService) EnsureUser(ctx context.Context, userID, chatID int64, name string) error {
	_, err := s.store.Users().Save(ctx, entities.NewUser(userID, chatID, name))
	return err
}

func (s *UserService) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	return s.store.Users().GetByID(ctx, userID)
}
