package repository

import (
	"context"

	"github.com/yukikurage/community-api/internal/database"
	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/utils"
	"gorm.io/gorm"
)

// GormPostRepository is a GORM implementation of PostRepository
type GormPostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &GormPostRepository{db: db}
}

const postViewColumns = `posts.id, posts.user_id, posts.content, posts.image_url,
	posts.created_at, posts.updated_at,
	users.first_name, users.last_name, users.job_title, users.avatar_path,
	(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count,
	(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count,
	EXISTS (SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked_by_viewer`

func (r *GormPostRepository) viewQuery(ctx context.Context, viewerID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("posts").
		Select(postViewColumns, viewerID).
		Joins("JOIN users ON users.id = posts.user_id")
}

// Create creates a new post
func (r *GormPostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// FindByID finds a post by ID
func (r *GormPostRepository) FindByID(ctx context.Context, id uint64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindView loads one post with author and counters
func (r *GormPostRepository) FindView(ctx context.Context, id, viewerID uint64) (*PostView, error) {
	var views []PostView
	if err := r.viewQuery(ctx, viewerID).Where("posts.id = ?", id).Limit(1).Scan(&views).Error; err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &views[0], nil
}

// List retrieves a page of posts, newest first
func (r *GormPostRepository) List(ctx context.Context, viewerID uint64, params utils.PaginationParams) ([]PostView, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var views []PostView
	err := r.viewQuery(ctx, viewerID).
		Scopes(database.NewestFirst("posts"), database.Paginate(params)).
		Scan(&views).Error
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// Update rewrites content and image
func (r *GormPostRepository) Update(ctx context.Context, id uint64, content string, imageURL *string) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":   content,
			"image_url": imageURL,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCascade deletes likes on the post's comments, likes on the post, the
// comments and finally the post in one transaction. Nothing is removed when
// the post does not exist.
func (r *GormPostRepository) DeleteCascade(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.Like{}).Error; err != nil {
			return err
		}

		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}

		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// RecordImage stores the uploader of a saved image
func (r *GormPostRepository) RecordImage(ctx context.Context, image *models.PostImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// FindImage finds an uploaded image by name
func (r *GormPostRepository) FindImage(ctx context.Context, name string) (*models.PostImage, error) {
	var image models.PostImage
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&image).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

// ReleaseImage deletes the upload record when no post uses the image. Names
// without a record are never released.
func (r *GormPostRepository) ReleaseImage(ctx context.Context, name string) (bool, error) {
	released := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.Post{}).Where("image_url = ?", name).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return nil
		}

		result := tx.Where("name = ?", name).Delete(&models.PostImage{})
		if result.Error != nil {
			return result.Error
		}
		released = result.RowsAffected > 0
		return nil
	})
	return released, err
}
