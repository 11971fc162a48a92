package models

import "time"

// PostImage records who uploaded a stored post image. Only the uploader may
// attach it to a post.
type PostImage struct {
	Name      string    `gorm:"primaryKey;type:varchar(255)" json:"name"`
	UserID    uint64    `gorm:"not null;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
