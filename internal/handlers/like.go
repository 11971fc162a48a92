package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/community-api/internal/dto"
	apierrors "github.com/yukikurage/community-api/internal/errors"
	"github.com/yukikurage/community-api/internal/middleware"
	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/services"
)

// LikeHandler serves likes on posts and comments.
type LikeHandler struct {
	likeService *services.LikeService
}

// NewLikeHandler creates a new LikeHandler.
func NewLikeHandler(likeService *services.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

// Toggle likes or unlikes a post or a comment.
func (h *LikeHandler) Toggle(c *gin.Context) {
	type ToggleLikeRequest struct {
		PostID    *uint64 `json:"postId"`
		CommentID *uint64 `json:"commentId"`
	}

	var req ToggleLikeRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	user, _ := middleware.GetUser(c)
	outcome, err := h.likeService.Toggle(c.Request.Context(), user, req.PostID, req.CommentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToToggleLikeResponse(outcome))
}

// ListForPost lists who liked a post.
func (h *LikeHandler) ListForPost(c *gin.Context) {
	h.list(c, models.LikeTargetPost, "postId", "post ID")
}

// ListForComment lists who liked a comment.
func (h *LikeHandler) ListForComment(c *gin.Context) {
	h.list(c, models.LikeTargetComment, "commentId", "comment ID")
}

func (h *LikeHandler) list(c *gin.Context, kind models.LikeTargetKind, param, label string) {
	id, ok := parseIDParam(c, param, label)
	if !ok {
		return
	}

	views, err := h.likeService.ListForTarget(c.Request.Context(), kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToLikeListResponse(views))
}

// Delete removes one of the caller's likes.
func (h *LikeHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "likeId", "like ID")
	if !ok {
		return
	}

	user, _ := middleware.GetUser(c)
	remaining, err := h.likeService.Delete(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"totalLikes": remaining,
	})
}

// Status reports which of the listed posts and comments the user has liked.
// Ids come as comma separated postIds and commentIds query values.
func (h *LikeHandler) Status(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId", "user ID")
	if !ok {
		return
	}
	postIDs, err := parseIDList(c.Query("postIds"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid postIds")
		return
	}
	commentIDs, err := parseIDList(c.Query("commentIds"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid commentIds")
		return
	}

	user, _ := middleware.GetUser(c)
	status, err := h.likeService.Status(c.Request.Context(), user, userID, postIDs, commentIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
