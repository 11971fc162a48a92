package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/community-api/internal/models"
	"gorm.io/gorm"
)

// GormLikeRepository is a GORM implementation of LikeRepository
type GormLikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &GormLikeRepository{db: db}
}

// Toggle flips the user's like on target inside one transaction. A concurrent
// duplicate insert surfaces as gorm.ErrDuplicatedKey from the unique index.
func (r *GormLikeRepository) Toggle(ctx context.Context, userID uint64, target LikeTarget) (*ToggleResult, error) {
	var result ToggleResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		err := tx.Where("user_id = ? AND "+target.column()+" = ?", userID, target.ID).First(&existing).Error

		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			result.Liked = false
			result.LikeID = existing.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.Like{UserID: userID}
			if target.Kind == models.LikeTargetComment {
				like.CommentID = &target.ID
			} else {
				like.PostID = &target.ID
			}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			result.Liked = true
			result.LikeID = like.ID
		default:
			return err
		}

		return tx.Model(&models.Like{}).
			Where(target.column()+" = ?", target.ID).
			Count(&result.TotalLikes).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FindByID finds a like by ID
func (r *GormLikeRepository) FindByID(ctx context.Context, id uint64) (*models.Like, error) {
	var like models.Like
	if err := r.db.WithContext(ctx).First(&like, id).Error; err != nil {
		return nil, err
	}
	return &like, nil
}

// Delete removes a like and counts what remains on its target
func (r *GormLikeRepository) Delete(ctx context.Context, like *models.Like) (int64, error) {
	var remaining int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Like{}, like.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		q := tx.Model(&models.Like{})
		if like.PostID != nil {
			q = q.Where("post_id = ?", *like.PostID)
		} else if like.CommentID != nil {
			q = q.Where("comment_id = ?", *like.CommentID)
		}
		return q.Count(&remaining).Error
	})
	return remaining, err
}

// ListForTarget lists users who liked a target
func (r *GormLikeRepository) ListForTarget(ctx context.Context, target LikeTarget) ([]LikerView, error) {
	var views []LikerView
	err := r.db.WithContext(ctx).
		Table("likes").
		Select("likes.id, likes.user_id, users.first_name, users.last_name, users.job_title, likes.created_at").
		Joins("JOIN users ON users.id = likes.user_id").
		Where("likes."+target.column()+" = ?", target.ID).
		Order("likes.created_at DESC").Order("likes.id DESC").
		Scan(&views).Error
	return views, err
}

// LikedIDs returns the subset of ids the user has liked
func (r *GormLikeRepository) LikedIDs(ctx context.Context, userID uint64, kind models.LikeTargetKind, ids []uint64) ([]uint64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	column := LikeTarget{Kind: kind}.column()

	var liked []uint64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND "+column+" IN ?", userID, ids).
		Pluck(column, &liked).Error
	return liked, err
}
