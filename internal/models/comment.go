package models

import "time"

type Comment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	PostID    uint64    `gorm:"not null" json:"postId"`
	UserID    uint64    `gorm:"not null" json:"userId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Edited    bool      `gorm:"not null;default:false" json:"edited"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Author User   `gorm:"foreignKey:UserID" json:"-"`
	Likes  []Like `gorm:"foreignKey:CommentID" json:"-"`
}
