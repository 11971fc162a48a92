package repository

import (
	"context"

	"github.com/yukikurage/community-api/internal/database"
	"github.com/yukikurage/community-api/internal/models"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// ListForReceiver lists notifications for a user with sender details
func (r *GormNotificationRepository) ListForReceiver(ctx context.Context, receiverID uint64) ([]NotificationView, error) {
	var views []NotificationView
	err := r.db.WithContext(ctx).
		Table("notifications").
		Select(`notifications.id, notifications.receiver_id, notifications.sender_id,
			notifications.community_id, notifications.message, notifications.is_read,
			notifications.created_at,
			users.first_name AS sender_first_name, users.last_name AS sender_last_name,
			users.avatar_path AS sender_avatar`).
		Joins("LEFT JOIN users ON users.id = notifications.sender_id").
		Where("notifications.receiver_id = ?", receiverID).
		Scopes(database.NewestFirst("notifications")).
		Scan(&views).Error
	return views, err
}

// CountUnread counts unread notifications for a user
func (r *GormNotificationRepository) CountUnread(ctx context.Context, receiverID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error
	return count, err
}

// MarkAllRead flags every unread notification for a user as read
func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, receiverID uint64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
