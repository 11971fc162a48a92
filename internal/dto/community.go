package dto

import (
	"time"

	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/repository"
)

// CommunityDTO represents the singleton community
type CommunityDTO struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	AdminUserID *uint64 `json:"adminUserId"`
}

// SenderDTO is the sender of a notification
type SenderDTO struct {
	ID        uint64  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	AvatarURL *string `json:"avatarUrl"`
}

// NotificationDTO represents a notification in API responses
type NotificationDTO struct {
	ID          uint64    `json:"id"`
	ReceiverID  uint64    `json:"receiverId"`
	SenderID    uint64    `json:"senderId"`
	CommunityID *uint64   `json:"communityId"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
	Sender      SenderDTO `json:"sender"`
}

// ToCommunityDTO converts a Community model to CommunityDTO
func ToCommunityDTO(c models.Community) CommunityDTO {
	return CommunityDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		AdminUserID: c.AdminUserID,
	}
}

// ToNotificationDTOs converts notification views to DTOs
func ToNotificationDTOs(views []repository.NotificationView) []NotificationDTO {
	out := make([]NotificationDTO, len(views))
	for i, v := range views {
		out[i] = NotificationDTO{
			ID:          v.ID,
			ReceiverID:  v.ReceiverID,
			SenderID:    v.SenderID,
			CommunityID: v.CommunityID,
			Message:     v.Message,
			IsRead:      v.IsRead,
			CreatedAt:   v.CreatedAt,
			Sender: SenderDTO{
				ID:        v.SenderID,
				FirstName: v.SenderFirstName,
				LastName:  v.SenderLastName,
				AvatarURL: AvatarURL(v.SenderID, v.SenderAvatar),
			},
		}
	}
	return out
}
