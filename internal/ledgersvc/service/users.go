package service

import (
	"context"
	"fmt"

	"github.com/banknote-app/banknote-services/internal/ledgersvc/models"

	"github.com/gofrs/uuid"
)

// UserService struct represents the user identity layer. The ledger itself
// treats user ids as opaque.
type UserService struct {
	users UserRepository
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

// GetOrCreateUser loads the profile for userID, creating one on first contact.
// An empty userID mints a fresh anonymous identity.
func (s *UserService) GetOrCreateUser(ctx context.Context, userID, name string, anonymous bool) (*models.User, error) {
	if userID != "" {
		existing, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	if userID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("failed to generate user id: %w", err)
		}
		userID = id.String()
	}

	u := models.User{
		UserID:      userID,
		Name:        name,
		Avatar:      defaultAvatarURL(userID),
		IsAnonymous: anonymous,
	}
	if _, err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &u, nil
}

func (s *UserService) SetUsername(ctx context.Context, userID, name string) error {
	return s.users.UpdateName(ctx, userID, name)
}

func defaultAvatarURL(userID string) string {
	return "https://api.dicebear.com/7.x/bottts-neutral/svg?seed=" + userID
}
