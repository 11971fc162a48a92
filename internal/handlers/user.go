package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/community-api/internal/constants"
	"github.com/yukikurage/community-api/internal/dto"
	"github.com/yukikurage/community-api/internal/middleware"
	"github.com/yukikurage/community-api/internal/services"
)

// UserHandler serves profiles and avatars.
type UserHandler struct {
	userService *services.UserService
	avatars     FileLocator
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService, avatars FileLocator) *UserHandler {
	return &UserHandler{
		userService: userService,
		avatars:     avatars,
	}
}

// GetProfile returns a user's profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	id, ok := parseIDParam(c, "userId", "user ID")
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProfileDTO(*user))
}

// UpdateProfile edits the caller's own profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := parseIDParam(c, "userId", "user ID")
	if !ok {
		return
	}

	type UpdateProfileRequest struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Company   string `json:"company"`
		JobTitle  string `json:"jobTitle"`
		Industry  string `json:"industry"`
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	actor, _ := middleware.GetUser(c)
	user, err := h.userService.UpdateProfile(c.Request.Context(), actor, id, services.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		JobTitle:  req.JobTitle,
		Industry:  req.Industry,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProfileDTO(*user))
}

// UploadAvatar replaces the caller's avatar.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	id, ok := parseIDParam(c, "userId", "user ID")
	if !ok {
		return
	}

	actor, _ := middleware.GetUser(c)
	if actor == nil || actor.ID != id {
		respondError(c, services.ErrNotSelf)
		return
	}

	data, err := readUpload(c, constants.UploadFieldAvatar)
	if err != nil {
		respondError(c, err)
		return
	}

	name, err := h.userService.UploadAvatar(c.Request.Context(), actor, id, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"avatarUrl": dto.AvatarURL(id, &name),
	})
}

// GetAvatar streams a user's avatar.
func (h *UserHandler) GetAvatar(c *gin.Context) {
	id, ok := parseIDParam(c, "userId", "user ID")
	if !ok {
		return
	}

	name, err := h.userService.AvatarName(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	serveStoredFile(c, h.avatars, name, "Avatar not found")
}
