package repository

import (
	"context"

	"github.com/yukikurage/community-api/internal/models"
	"gorm.io/gorm"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

const commentViewColumns = `comments.id, comments.post_id, comments.user_id, comments.text,
	comments.edited, comments.created_at, comments.updated_at,
	users.first_name, users.last_name, users.job_title, users.avatar_path,
	(SELECT COUNT(*) FROM likes WHERE likes.comment_id = comments.id) AS like_count,
	EXISTS (SELECT 1 FROM likes WHERE likes.comment_id = comments.id AND likes.user_id = ?) AS liked_by_viewer`

func (r *GormCommentRepository) viewQuery(ctx context.Context, viewerID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("comments").
		Select(commentViewColumns, viewerID).
		Joins("JOIN users ON users.id = comments.user_id")
}

// Create creates a new comment
func (r *GormCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// FindByID finds a comment by ID
func (r *GormCommentRepository) FindByID(ctx context.Context, id uint64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// FindView loads one comment with author and like counter
func (r *GormCommentRepository) FindView(ctx context.Context, id, viewerID uint64) (*CommentView, error) {
	var views []CommentView
	if err := r.viewQuery(ctx, viewerID).Where("comments.id = ?", id).Limit(1).Scan(&views).Error; err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &views[0], nil
}

// ListByPost lists comments on a post in posting order
func (r *GormCommentRepository) ListByPost(ctx context.Context, postID, viewerID uint64) ([]CommentView, error) {
	var views []CommentView
	err := r.viewQuery(ctx, viewerID).
		Where("comments.post_id = ?", postID).
		Order("comments.created_at ASC").Order("comments.id ASC").
		Scan(&views).Error
	return views, err
}

// UpdateText rewrites the text and marks the comment edited
func (r *GormCommentRepository) UpdateText(ctx context.Context, id uint64, text string) error {
	result := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"text":   text,
			"edited": true,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCascade deletes a comment together with its likes
func (r *GormCommentRepository) DeleteCascade(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Comment{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
