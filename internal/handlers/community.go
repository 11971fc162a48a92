package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/community-api/internal/dto"
	"github.com/yukikurage/community-api/internal/middleware"
	"github.com/yukikurage/community-api/internal/services"
)

// CommunityHandler serves the singleton community and its join workflow.
type CommunityHandler struct {
	communityService *services.CommunityService
}

// NewCommunityHandler creates a new CommunityHandler.
func NewCommunityHandler(communityService *services.CommunityService) *CommunityHandler {
	return &CommunityHandler{communityService: communityService}
}

// GetInfo returns the community name and description.
func (h *CommunityHandler) GetInfo(c *gin.Context) {
	community, err := h.communityService.Info(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCommunityDTO(*community))
}

// UpdateInfo changes name and description. Admin only.
func (h *CommunityHandler) UpdateInfo(c *gin.Context) {
	type UpdateCommunityRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}

	var req UpdateCommunityRequest
	if !bindJSON(c, &req, "Community name is required") {
		return
	}

	user, _ := middleware.GetUser(c)
	community, err := h.communityService.UpdateInfo(c.Request.Context(), user, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCommunityDTO(*community))
}

// MembersCount returns the number of admitted members.
func (h *CommunityHandler) MembersCount(c *gin.Context) {
	count, err := h.communityService.MembersCount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// JoinedMembers lists admitted members.
func (h *CommunityHandler) JoinedMembers(c *gin.Context) {
	members, err := h.communityService.JoinedMembers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": dto.ToMemberDTOs(members)})
}

// Join sends a join request to the admin.
func (h *CommunityHandler) Join(c *gin.Context) {
	user, _ := middleware.GetUser(c)
	if err := h.communityService.RequestJoin(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Join request sent",
	})
}

// ApproveJoin admits a user directly. Admin only.
func (h *CommunityHandler) ApproveJoin(c *gin.Context) {
	type ApproveJoinRequest struct {
		UserID uint64 `json:"userId" binding:"required"`
	}

	var req ApproveJoinRequest
	if !bindJSON(c, &req, "userId is required") {
		return
	}

	user, _ := middleware.GetUser(c)
	if err := h.communityService.ApproveJoin(c.Request.Context(), user, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User approved",
	})
}
