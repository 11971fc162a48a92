package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/community-api/internal/dto"
	"github.com/yukikurage/community-api/internal/middleware"
	"github.com/yukikurage/community-api/internal/services"
)

// CommentHandler serves comments.
type CommentHandler struct {
	commentService *services.CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// ListByPost returns the comments on a post.
func (h *CommentHandler) ListByPost(c *gin.Context) {
	postID, ok := parseIDParam(c, "postId", "post ID")
	if !ok {
		return
	}

	viewer, _ := middleware.GetUser(c)
	views, err := h.commentService.ListByPost(c.Request.Context(), viewer, postID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": dto.ToCommentDTOs(views)})
}

// CreateComment adds a comment to a post.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	type CreateCommentRequest struct {
		PostID uint64 `json:"postId" binding:"required"`
		Text   string `json:"text"`
	}

	var req CreateCommentRequest
	if !bindJSON(c, &req, "postId is required") {
		return
	}

	user, _ := middleware.GetUser(c)
	view, err := h.commentService.Create(c.Request.Context(), user, req.PostID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCommentDTO(*view))
}

// UpdateComment edits the caller's comment.
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	id, ok := parseIDParam(c, "commentId", "comment ID")
	if !ok {
		return
	}

	type UpdateCommentRequest struct {
		Text string `json:"text"`
	}

	var req UpdateCommentRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	user, _ := middleware.GetUser(c)
	view, err := h.commentService.Update(c.Request.Context(), user, id, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCommentDTO(*view))
}

// DeleteComment deletes a comment and its likes.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := parseIDParam(c, "commentId", "comment ID")
	if !ok {
		return
	}

	user, _ := middleware.GetUser(c)
	if err := h.commentService.Delete(c.Request.Context(), user, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Comment deleted successfully",
	})
}
