package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/utils"
)

var (
	// ErrJoinRequestExists is returned when an identical pending join request is already stored.
	ErrJoinRequestExists = errors.New("repository: join request already pending")
	// ErrJoinRequestMismatch is returned when a notification was not sent by the user being processed.
	ErrJoinRequestMismatch = errors.New("repository: notification does not belong to user")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// LinkGoogle stores the hashed external id for an existing account
	LinkGoogle(ctx context.Context, id uint64, googleIDHash string) error

	// UpdateProfile rewrites the editable profile fields
	UpdateProfile(ctx context.Context, id uint64, update ProfileUpdate) error

	// SetAvatar stores the avatar file name
	SetAvatar(ctx context.Context, id uint64, path string) error

	// CountMembers counts users admitted to the community
	CountMembers(ctx context.Context, communityID uint64) (int64, error)

	// ListMembers lists users admitted to the community, newest first
	ListMembers(ctx context.Context, communityID uint64) ([]models.User, error)
}

// ProfileUpdate holds the editable profile fields
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Company   string
	JobTitle  string
	Industry  string
}

// CommunityRepository defines the interface for the singleton community and its join workflow
type CommunityRepository interface {
	// Get loads the community row
	Get(ctx context.Context) (*models.Community, error)

	// UpdateInfo updates name and description
	UpdateInfo(ctx context.Context, id uint64, name, description string) error

	// CreateJoinRequest stores a join request unless an identical one is pending
	CreateJoinRequest(ctx context.Context, request *models.Notification) error

	// ProcessJoinRequest applies an admin decision to a stored join request atomically
	ProcessJoinRequest(ctx context.Context, params ProcessJoinParams) error

	// ApproveMember admits a user and removes their pending join requests atomically
	ApproveMember(ctx context.Context, communityID, userID uint64, requestPattern string) (int64, error)
}

// ProcessJoinParams describes one admin decision on a join request
type ProcessJoinParams struct {
	NotificationID uint64
	UserID         uint64
	Approve        bool
	CommunityID    uint64
	Outcome        *models.Notification
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// ListForReceiver lists notifications for a user, newest first
	ListForReceiver(ctx context.Context, receiverID uint64) ([]NotificationView, error)

	// CountUnread counts unread notifications for a user
	CountUnread(ctx context.Context, receiverID uint64) (int64, error)

	// MarkAllRead flags every unread notification for a user as read
	MarkAllRead(ctx context.Context, receiverID uint64) (int64, error)
}

// NotificationView is a notification joined with its sender
type NotificationView struct {
	ID              uint64
	ReceiverID      uint64
	SenderID        uint64
	CommunityID     *uint64
	Message         string
	IsRead          bool
	CreatedAt       time.Time
	SenderFirstName string
	SenderLastName  string
	SenderAvatar    *string
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	// Create creates a new post
	Create(ctx context.Context, post *models.Post) error

	// FindByID finds a post by ID
	FindByID(ctx context.Context, id uint64) (*models.Post, error)

	// FindView loads one post with author and counters
	FindView(ctx context.Context, id, viewerID uint64) (*PostView, error)

	// List retrieves a page of posts, newest first
	List(ctx context.Context, viewerID uint64, params utils.PaginationParams) ([]PostView, int64, error)

	// Update rewrites content and image
	Update(ctx context.Context, id uint64, content string, imageURL *string) error

	// DeleteCascade deletes a post with its comments and all related likes
	DeleteCascade(ctx context.Context, id uint64) error

	// RecordImage stores the uploader of a saved image
	RecordImage(ctx context.Context, image *models.PostImage) error

	// FindImage finds an uploaded image by name
	FindImage(ctx context.Context, name string) (*models.PostImage, error)

	// ReleaseImage drops the upload record once no post references the
	// image and reports whether the stored file may be removed
	ReleaseImage(ctx context.Context, name string) (bool, error)
}

// PostView is a post joined with its author and counters
type PostView struct {
	ID            uint64
	UserID        uint64
	Content       string
	ImageURL      *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	FirstName     string
	LastName      string
	JobTitle      string
	AvatarPath    *string
	LikeCount     int64
	CommentCount  int64
	LikedByViewer bool
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a new comment
	Create(ctx context.Context, comment *models.Comment) error

	// FindByID finds a comment by ID
	FindByID(ctx context.Context, id uint64) (*models.Comment, error)

	// FindView loads one comment with author and like counter
	FindView(ctx context.Context, id, viewerID uint64) (*CommentView, error)

	// ListByPost lists comments on a post, oldest first
	ListByPost(ctx context.Context, postID, viewerID uint64) ([]CommentView, error)

	// UpdateText rewrites the text and marks the comment edited
	UpdateText(ctx context.Context, id uint64, text string) error

	// DeleteCascade deletes a comment and its likes
	DeleteCascade(ctx context.Context, id uint64) error
}

// CommentView is a comment joined with its author and like counter
type CommentView struct {
	ID            uint64
	PostID        uint64
	UserID        uint64
	Text          string
	Edited        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	FirstName     string
	LastName      string
	JobTitle      string
	AvatarPath    *string
	LikeCount     int64
	LikedByViewer bool
}

// LikeTarget identifies the post or comment a like points at
type LikeTarget struct {
	Kind models.LikeTargetKind
	ID   uint64
}

func (t LikeTarget) column() string {
	if t.Kind == models.LikeTargetComment {
		return "comment_id"
	}
	return "post_id"
}

// ToggleResult describes the outcome of a like toggle
type ToggleResult struct {
	Liked      bool
	LikeID     uint64
	TotalLikes int64
}

// LikeRepository defines the interface for like data access
type LikeRepository interface {
	// Toggle removes the user's like on target if present, otherwise inserts one
	Toggle(ctx context.Context, userID uint64, target LikeTarget) (*ToggleResult, error)

	// FindByID finds a like by ID
	FindByID(ctx context.Context, id uint64) (*models.Like, error)

	// Delete removes a like and returns the remaining count on its target
	Delete(ctx context.Context, like *models.Like) (int64, error)

	// ListForTarget lists users who liked a target, newest first
	ListForTarget(ctx context.Context, target LikeTarget) ([]LikerView, error)

	// LikedIDs returns which of ids the user has liked for the given kind
	LikedIDs(ctx context.Context, userID uint64, kind models.LikeTargetKind, ids []uint64) ([]uint64, error)
}

// LikerView is a like joined with the liking user
type LikerView struct {
	ID        uint64
	UserID    uint64
	FirstName string
	LastName  string
	JobTitle  string
	CreatedAt time.Time
}
