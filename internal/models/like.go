package models

import "time"

// Like targets exactly one of a post or a comment. A user may like a given
// target at most once.
type Like struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:idx_likes_user_post;uniqueIndex:idx_likes_user_comment" json:"userId"`
	PostID    *uint64   `gorm:"uniqueIndex:idx_likes_user_post;check:chk_likes_single_target,(post_id IS NULL) <> (comment_id IS NULL)" json:"postId"`
	CommentID *uint64   `gorm:"uniqueIndex:idx_likes_user_comment" json:"commentId"`
	CreatedAt time.Time `json:"createdAt"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

type LikeTargetKind string

const (
	LikeTargetPost    LikeTargetKind = "post"
	LikeTargetComment LikeTargetKind = "comment"
)
