package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/community-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommunityRepository is a GORM implementation of CommunityRepository
type GormCommunityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository creates a new CommunityRepository
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &GormCommunityRepository{db: db}
}

// Get loads the singleton community
func (r *GormCommunityRepository) Get(ctx context.Context) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).Order("id").First(&community).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

// UpdateInfo updates name and description
func (r *GormCommunityRepository) UpdateInfo(ctx context.Context, id uint64, name, description string) error {
	result := r.db.WithContext(ctx).Model(&models.Community{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":        name,
			"description": description,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateJoinRequest stores a join request unless one with the same sender,
// receiver and message is already pending. The sender row is locked first so
// concurrent requests from one user run the check one at a time.
func (r *GormCommunityRepository) CreateJoinRequest(ctx context.Context, request *models.Notification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sender models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&sender, request.SenderID).Error; err != nil {
			return err
		}

		var count int64
		err := tx.Model(&models.Notification{}).
			Where("sender_id = ? AND receiver_id = ? AND message = ?", request.SenderID, request.ReceiverID, request.Message).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrJoinRequestExists
		}
		return tx.Create(request).Error
	})
}

// ProcessJoinRequest grants membership when approved, stores the outcome
// notification and deletes the request, all in one transaction.
func (r *GormCommunityRepository) ProcessJoinRequest(ctx context.Context, params ProcessJoinParams) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.Notification
		if err := tx.First(&request, params.NotificationID).Error; err != nil {
			return err
		}
		if request.SenderID != params.UserID {
			return ErrJoinRequestMismatch
		}

		if params.Approve {
			result := tx.Model(&models.User{}).Where("id = ?", params.UserID).
				Update("community_id", params.CommunityID)
			if result.Error != nil {
				return fmt.Errorf("grant membership: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		if err := tx.Create(params.Outcome).Error; err != nil {
			return fmt.Errorf("create outcome notification: %w", err)
		}

		result := tx.Delete(&models.Notification{}, request.ID)
		if result.Error != nil {
			return fmt.Errorf("delete join request: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.New("join request vanished during processing")
		}
		return nil
	})
}

// ApproveMember admits a user and deletes the join requests they sent.
// requestPattern is a LIKE pattern matching join request messages.
func (r *GormCommunityRepository) ApproveMember(ctx context.Context, communityID, userID uint64, requestPattern string) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("community_id", communityID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		result = tx.Where("sender_id = ? AND message LIKE ?", userID, requestPattern).
			Delete(&models.Notification{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected
		return nil
	})
	return removed, err
}
