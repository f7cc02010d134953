package service

import (
	"context"
	"strings"

	"campusnest/internal/models"
	"campusnest/internal/repository"
	"campusnest/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
}

// UpdateProfileInput holds the profile fields a user may change. Nil fields are kept.
type UpdateProfileInput struct {
	UserID     uint    `json:"-"`
	Name       *string `json:"name" validate:"omitnil,notblank,max=120"`
	ProfilePic *string `json:"profilePic" validate:"omitnil,max=2048"`
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetPublicProfile returns the fields other users may see.
func (s *UserService) GetPublicProfile(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	public := user.PublicProfile()
	return &public, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.ProfilePic != nil {
		fields["profile_pic"] = *in.ProfilePic
	}
	if len(fields) > 0 {
		if err := s.userRepo.UpdateProfile(ctx, in.UserID, fields); err != nil {
			return nil, err
		}
	}
	return s.userRepo.GetByID(ctx, in.UserID)
}

// SetAdminByEmail grants or revokes admin rights. It is only reachable from
// the admin command line, never from the HTTP API.
func (s *UserService) SetAdminByEmail(ctx context.Context, email string, isAdmin bool) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetAdmin(ctx, user.ID, isAdmin); err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin
	return user, nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}
