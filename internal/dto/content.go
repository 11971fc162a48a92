package dto

import (
	"time"

	"github.com/yukikurage/community-api/internal/constants"
	"github.com/yukikurage/community-api/internal/repository"
	"github.com/yukikurage/community-api/internal/services"
	"github.com/yukikurage/community-api/internal/utils"
)

// AuthorDTO holds the author fields joined onto posts and comments
type AuthorDTO struct {
	ID        uint64  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	JobTitle  string  `json:"jobTitle"`
	AvatarURL *string `json:"avatarUrl"`
}

// PostDTO represents a post in API responses
type PostDTO struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"userId"`
	Content      string    `json:"content"`
	ImageName    *string   `json:"imageName"`
	ImageURL     *string   `json:"imageUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Author       AuthorDTO `json:"author"`
	LikeCount    int64     `json:"likeCount"`
	CommentCount int64     `json:"commentCount"`
	IsLiked      bool      `json:"isLiked"`
}

// PostListResponse represents a paginated list of posts
type PostListResponse struct {
	Posts      []PostDTO                `json:"posts"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	PostID    uint64    `json:"postId"`
	UserID    uint64    `json:"userId"`
	Text      string    `json:"text"`
	Edited    bool      `json:"edited"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    AuthorDTO `json:"author"`
	LikeCount int64     `json:"likeCount"`
	IsLiked   bool      `json:"isLiked"`
}

// LikerDTO is a user who liked a post or comment
type LikerDTO struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	JobTitle  string    `json:"jobTitle"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeListResponse lists likers with the total
type LikeListResponse struct {
	Likes []LikerDTO `json:"likes"`
	Total int        `json:"total"`
}

// ToggleLikeResponse reports the outcome of a like toggle
type ToggleLikeResponse struct {
	Action     string `json:"action"`
	IsLiked    bool   `json:"isLiked"`
	TotalLikes int64  `json:"totalLikes"`
	LikeID     uint64 `json:"likeId"`
}

// PostImageURL is the public path of a stored post image
func PostImageURL(name *string) *string {
	if name == nil || *name == "" {
		return nil
	}
	url := constants.PostImageRoute + *name
	return &url
}

// ToPostDTO converts a post view to PostDTO
func ToPostDTO(v repository.PostView) PostDTO {
	return PostDTO{
		ID:        v.ID,
		UserID:    v.UserID,
		Content:   v.Content,
		ImageName: v.ImageURL,
		ImageURL:  PostImageURL(v.ImageURL),
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
		Author: AuthorDTO{
			ID:        v.UserID,
			FirstName: v.FirstName,
			LastName:  v.LastName,
			JobTitle:  v.JobTitle,
			AvatarURL: AvatarURL(v.UserID, v.AvatarPath),
		},
		LikeCount:    v.LikeCount,
		CommentCount: v.CommentCount,
		IsLiked:      v.LikedByViewer,
	}
}

// ToPostListResponse converts a page of post views
func ToPostListResponse(views []repository.PostView, params utils.PaginationParams, total int64) PostListResponse {
	posts := make([]PostDTO, len(views))
	for i, v := range views {
		posts[i] = ToPostDTO(v)
	}
	return PostListResponse{
		Posts:      posts,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// ToCommentDTO converts a comment view to CommentDTO
func ToCommentDTO(v repository.CommentView) CommentDTO {
	return CommentDTO{
		ID:        v.ID,
		PostID:    v.PostID,
		UserID:    v.UserID,
		Text:      v.Text,
		Edited:    v.Edited,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
		Author: AuthorDTO{
			ID:        v.UserID,
			FirstName: v.FirstName,
			LastName:  v.LastName,
			JobTitle:  v.JobTitle,
			AvatarURL: AvatarURL(v.UserID, v.AvatarPath),
		},
		LikeCount: v.LikeCount,
		IsLiked:   v.LikedByViewer,
	}
}

// ToCommentDTOs converts comment views to DTOs
func ToCommentDTOs(views []repository.CommentView) []CommentDTO {
	out := make([]CommentDTO, len(views))
	for i, v := range views {
		out[i] = ToCommentDTO(v)
	}
	return out
}

// ToLikeListResponse converts liker views
func ToLikeListResponse(views []repository.LikerView) LikeListResponse {
	likes := make([]LikerDTO, len(views))
	for i, v := range views {
		likes[i] = LikerDTO{
			ID:        v.ID,
			UserID:    v.UserID,
			FirstName: v.FirstName,
			LastName:  v.LastName,
			JobTitle:  v.JobTitle,
			CreatedAt: v.CreatedAt,
		}
	}
	return LikeListResponse{Likes: likes, Total: len(likes)}
}

// ToToggleLikeResponse converts a toggle outcome
func ToToggleLikeResponse(o *services.ToggleOutcome) ToggleLikeResponse {
	return ToggleLikeResponse{
		Action:     o.Action,
		IsLiked:    o.IsLiked,
		TotalLikes: o.TotalLikes,
		LikeID:     o.LikeID,
	}
}
