package repository

import (
	"context"

	"github.com/yukikurage/community-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// LinkGoogle attaches a hashed Google id to an account that has none yet
func (r *GormUserRepository) LinkGoogle(ctx context.Context, id uint64, googleIDHash string) error {
	return r.updateOne(ctx, id, map[string]interface{}{
		"google_id_hash": googleIDHash,
	})
}

// UpdateProfile rewrites the editable profile fields
func (r *GormUserRepository) UpdateProfile(ctx context.Context, id uint64, update ProfileUpdate) error {
	return r.updateOne(ctx, id, map[string]interface{}{
		"first_name": update.FirstName,
		"last_name":  update.LastName,
		"company":    update.Company,
		"job_title":  update.JobTitle,
		"industry":   update.Industry,
	})
}

// SetAvatar stores the avatar file name
func (r *GormUserRepository) SetAvatar(ctx context.Context, id uint64, path string) error {
	return r.updateOne(ctx, id, map[string]interface{}{
		"avatar_path": path,
	})
}

func (r *GormUserRepository) updateOne(ctx context.Context, id uint64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountMembers counts users admitted to the community
func (r *GormUserRepository) CountMembers(ctx context.Context, communityID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("community_id = ?", communityID).
		Count(&count).Error
	return count, err
}

// ListMembers lists users admitted to the community
func (r *GormUserRepository) ListMembers(ctx context.Context, communityID uint64) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("joined_at DESC").Order("id DESC").
		Find(&users).Error
	return users, err
}
