package dto

import (
	"strconv"
	"time"

	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/services"
	"github.com/yukikurage/community-api/internal/session"
)

// UserSummaryDTO is the identity returned by login and current-user.
// The capitalized keys are what the frontend reads.
type UserSummaryDTO struct {
	ID              uint64                 `json:"id"`
	Email           string                 `json:"email"`
	FirstName       string                 `json:"firstName"`
	LastName        string                 `json:"lastName"`
	PermissionLevel models.PermissionLevel `json:"PermissionLevel"`
	CommunityID     *uint64                `json:"CommunityID"`
}

// UserResponse wraps a summary as {"user": ...}. A nil User encodes as null.
type UserResponse struct {
	User *UserSummaryDTO `json:"user"`
}

// ProfileDTO is a public user profile.
type ProfileDTO struct {
	ID              uint64                 `json:"id"`
	FirstName       string                 `json:"firstName"`
	LastName        string                 `json:"lastName"`
	Email           string                 `json:"email"`
	Company         string                 `json:"company"`
	JobTitle        string                 `json:"jobTitle"`
	Industry        string                 `json:"industry"`
	AuthProvider    models.AuthProvider    `json:"authProvider"`
	AvatarURL       *string                `json:"avatarUrl"`
	PermissionLevel models.PermissionLevel `json:"PermissionLevel"`
	CommunityID     *uint64                `json:"CommunityID"`
	JoinedAt        time.Time              `json:"joinedAt"`
}

// MemberDTO is a community member in listings.
type MemberDTO struct {
	ID        uint64    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Company   string    `json:"company"`
	JobTitle  string    `json:"jobTitle"`
	Industry  string    `json:"industry"`
	AvatarURL *string   `json:"avatarUrl"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// SessionDTO describes an active session without exposing its full id.
type SessionDTO struct {
	IDPrefix  string    `json:"idPrefix"`
	UserID    uint64    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AvatarURL is the public path of a user's avatar, or nil without one.
func AvatarURL(userID uint64, avatarPath *string) *string {
	if avatarPath == nil || *avatarPath == "" {
		return nil
	}
	url := "/users/" + strconv.FormatUint(userID, 10) + "/avatar"
	return &url
}

// ToUserSummaryDTO converts an authenticated user to its summary
func ToUserSummaryDTO(user *services.AuthenticatedUser) *UserSummaryDTO {
	if user == nil {
		return nil
	}
	return &UserSummaryDTO{
		ID:              user.ID,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		PermissionLevel: user.PermissionLevel,
		CommunityID:     user.CommunityID,
	}
}

// ToProfileDTO converts a User model to ProfileDTO
func ToProfileDTO(user models.User) ProfileDTO {
	return ProfileDTO{
		ID:              user.ID,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Email:           user.Email,
		Company:         user.Company,
		JobTitle:        user.JobTitle,
		Industry:        user.Industry,
		AuthProvider:    user.AuthProvider,
		AvatarURL:       AvatarURL(user.ID, user.AvatarPath),
		PermissionLevel: user.PermissionLevel,
		CommunityID:     user.CommunityID,
		JoinedAt:        user.JoinedAt,
	}
}

// ToMemberDTOs converts member users to DTOs
func ToMemberDTOs(users []models.User) []MemberDTO {
	members := make([]MemberDTO, len(users))
	for i, u := range users {
		members[i] = MemberDTO{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Company:   u.Company,
			JobTitle:  u.JobTitle,
			Industry:  u.Industry,
			AvatarURL: AvatarURL(u.ID, u.AvatarPath),
			JoinedAt:  u.JoinedAt,
		}
	}
	return members
}

// ToSessionDTOs converts sessions to DTOs
func ToSessionDTOs(list []session.Session) []SessionDTO {
	out := make([]SessionDTO, len(list))
	for i, s := range list {
		prefix := s.ID
		if len(prefix) > 8 {
			prefix = prefix[:8]
		}
		out[i] = SessionDTO{
			IDPrefix:  prefix,
			UserID:    s.UserID,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
		}
	}
	return out
}
