package models

import "time"

type Notification struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	ReceiverID  uint64    `gorm:"not null" json:"receiverId"`
	SenderID    uint64    `gorm:"not null" json:"senderId"`
	CommunityID *uint64   `json:"communityId"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	IsRead      bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`

	Sender User `gorm:"foreignKey:SenderID" json:"-"`
}
