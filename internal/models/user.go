package models

import "time"

type PermissionLevel string

const (
	PermissionUser  PermissionLevel = "User"
	PermissionAdmin PermissionLevel = "Admin"
)

type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "local"
	AuthProviderGoogle AuthProvider = "google"
)

type User struct {
	ID              uint64          `gorm:"primarykey" json:"id"`
	FirstName       string          `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName        string          `gorm:"type:varchar(100);not null" json:"lastName"`
	Email           string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash    *string         `gorm:"type:varchar(255)" json:"-"`
	GoogleIDHash    *string         `gorm:"type:varchar(255)" json:"-"`
	AuthProvider    AuthProvider    `gorm:"type:varchar(20);not null;default:'local'" json:"authProvider"`
	Company         string          `gorm:"type:varchar(255)" json:"company"`
	JobTitle        string          `gorm:"type:varchar(255)" json:"jobTitle"`
	Industry        string          `gorm:"type:varchar(255)" json:"industry"`
	AvatarPath      *string         `gorm:"type:varchar(255)" json:"-"`
	CommunityID     *uint64         `gorm:"index" json:"communityId"`
	PermissionLevel PermissionLevel `gorm:"type:varchar(20);not null;default:'User'" json:"permissionLevel"`
	JoinedAt        time.Time       `json:"joinedAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the community admin permission.
func (u *User) IsAdmin() bool {
	return u.PermissionLevel == PermissionAdmin
}

// IsMember reports whether the user has been admitted to the community.
func (u *User) IsMember() bool {
	return u.CommunityID != nil
}
