package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yukikurage/community-api/internal/constants"
	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/repository"
	"github.com/yukikurage/community-api/internal/storage"
	"github.com/yukikurage/community-api/internal/utils"
	"gorm.io/gorm"
)

// UserService handles profile reads, edits and avatars.
type UserService struct {
	userRepo repository.UserRepository
	avatars  ImageStore
	log      *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, avatars ImageStore, log *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		avatars:  avatars,
		log:      log,
	}
}

// ProfileInput holds the editable profile fields.
type ProfileInput struct {
	FirstName string
	LastName  string
	Company   string
	JobTitle  string
	Industry  string
}

func (s *UserService) load(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, wrapInternal("load user", err)
	}
	return user, nil
}

func requireSelf(actor *AuthenticatedUser, id uint64) error {
	if actor == nil {
		return ErrLoginRequired
	}
	if actor.ID != id {
		return ErrNotSelf
	}
	return nil
}

// GetProfile returns a user's public profile.
func (s *UserService) GetProfile(ctx context.Context, id uint64) (*models.User, error) {
	return s.load(ctx, id)
}

// UpdateProfile rewrites the caller's own profile. Names are required; the
// other fields keep their value when left blank.
func (s *UserService) UpdateProfile(ctx context.Context, actor *AuthenticatedUser, id uint64, input ProfileInput) (*models.User, error) {
	if err := requireSelf(actor, id); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	update := repository.ProfileUpdate{
		FirstName: utils.SanitizeName(input.FirstName),
		LastName:  utils.SanitizeName(input.LastName),
		Company:   utils.SanitizeName(input.Company),
		JobTitle:  utils.SanitizeName(input.JobTitle),
		Industry:  utils.SanitizeName(input.Industry),
	}
	if update.FirstName == "" || update.LastName == "" {
		return nil, validationError("First name and last name are required")
	}
	if update.Company == "" {
		update.Company = current.Company
	}
	if update.JobTitle == "" {
		update.JobTitle = current.JobTitle
	}
	if update.Industry == "" {
		update.Industry = current.Industry
	}

	if err := s.userRepo.UpdateProfile(ctx, id, update); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, wrapInternal("update profile", err)
	}
	return s.load(ctx, id)
}

// UploadAvatar stores a new avatar for the caller and returns its name. The
// new file is removed if the user record cannot be updated; the previous
// avatar is removed once the update succeeds.
func (s *UserService) UploadAvatar(ctx context.Context, actor *AuthenticatedUser, id uint64, data []byte) (string, error) {
	if err := requireSelf(actor, id); err != nil {
		return "", err
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	ext, _, err := storage.DetectImage(data)
	if err != nil {
		return "", err
	}
	name, err := s.avatars.Save(constants.AvatarPrefix, data, ext)
	if err != nil {
		return "", wrapInternal("store avatar", err)
	}

	if err := s.userRepo.SetAvatar(ctx, id, name); err != nil {
		if rmErr := s.avatars.Remove(name); rmErr != nil {
			s.log.Warn("failed to remove orphaned avatar", "file", name, "error", rmErr)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", wrapInternal("set avatar", err)
	}

	if current.AvatarPath != nil && *current.AvatarPath != name {
		if err := s.avatars.Remove(*current.AvatarPath); err != nil {
			s.log.Warn("failed to remove previous avatar", "user_id", id, "error", err)
		}
	}

	s.log.Info("avatar updated", "user_id", id, "file", name)
	return name, nil
}

// AvatarName returns the stored avatar name of a user.
func (s *UserService) AvatarName(ctx context.Context, id uint64) (string, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if user.AvatarPath == nil || *user.AvatarPath == "" {
		return "", ErrAvatarNotFound
	}
	return *user.AvatarPath, nil
}
