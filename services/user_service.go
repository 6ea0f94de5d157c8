package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nexora-club/membership-backend/models"
	"github.com/nexora-club/membership-backend/repositories"
)

type UserService interface {
	GetProfile(ctx context.Context, id int) (*models.User, error)
	UpdateProfile(ctx context.Context, caller *Claims, targetID int, upd models.ProfileUpdate) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile replaces the target's profile fields wholesale. Only the
// user themselves or an admin may do this.
func (s *userService) UpdateProfile(ctx context.Context, caller *Claims, targetID int, upd models.ProfileUpdate) (*models.User, error) {
	if caller.UserID != targetID && caller.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}

	user, err := s.userRepo.UpdateProfile(ctx, targetID, upd)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user %d: %w", targetID, err)
	}
	user.PasswordHash = ""
	return user, nil
}
