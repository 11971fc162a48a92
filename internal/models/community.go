package models

import "time"

type Community struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	AdminUserID *uint64   `json:"adminUserId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Admin *User `gorm:"foreignKey:AdminUserID" json:"-"`
}
