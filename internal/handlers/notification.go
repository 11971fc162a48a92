package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/community-api/internal/dto"
	apierrors "github.com/yukikurage/community-api/internal/errors"
	"github.com/yukikurage/community-api/internal/middleware"
	"github.com/yukikurage/community-api/internal/services"
)

// NotificationHandler serves the caller's notifications and the admin's
// decisions on join requests.
type NotificationHandler struct {
	notificationService *services.NotificationService
	communityService    *services.CommunityService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *services.NotificationService, communityService *services.CommunityService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		communityService:    communityService,
	}
}

// requestedUserID reads an optional userId from the query string.
func requestedUserID(c *gin.Context) (*uint64, bool) {
	raw := c.Query("userId")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid userId")
		return nil, false
	}
	return &id, true
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	requested, ok := requestedUserID(c)
	if !ok {
		return
	}

	user, _ := middleware.GetUser(c)
	views, err := h.notificationService.List(c.Request.Context(), user, requested)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": dto.ToNotificationDTOs(views)})
}

// UnreadCount returns the number of unread notifications.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	requested, ok := requestedUserID(c)
	if !ok {
		return
	}

	user, _ := middleware.GetUser(c)
	count, err := h.notificationService.UnreadCount(c.Request.Context(), user, requested)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead marks all of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	type MarkReadRequest struct {
		UserID *uint64 `json:"userId"`
	}

	var req MarkReadRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req, "Invalid request body") {
			return
		}
	}

	user, _ := middleware.GetUser(c)
	changed, err := h.notificationService.MarkAllRead(c.Request.Context(), user, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"updated": changed,
	})
}

// ProcessJoin applies the admin's decision on a join request.
func (h *NotificationHandler) ProcessJoin(c *gin.Context) {
	type ProcessJoinRequest struct {
		NotificationID uint64 `json:"notificationId" binding:"required"`
		UserID         uint64 `json:"userId" binding:"required"`
		Approve        *bool  `json:"approve" binding:"required"`
	}

	var req ProcessJoinRequest
	if !bindJSON(c, &req, "notificationId, userId and approve are required") {
		return
	}

	user, _ := middleware.GetUser(c)
	err := h.communityService.ProcessJoinRequest(c.Request.Context(), user, req.NotificationID, req.UserID, *req.Approve)
	if err != nil {
		respondError(c, err)
		return
	}

	status := "declined"
	if *req.Approve {
		status = "approved"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  status,
	})
}
