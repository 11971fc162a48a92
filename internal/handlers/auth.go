package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/community-api/internal/dto"
	apierrors "github.com/yukikurage/community-api/internal/errors"
	"github.com/yukikurage/community-api/internal/middleware"
	"github.com/yukikurage/community-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	cookie      CookieConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, cookie CookieConfig) *AuthHandler {
	if cookie.TTL == 0 {
		cookie.TTL = authService.SessionTTL()
	}
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

// Signup registers a new user.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		Email     string `json:"email" binding:"required"`
		Password  string `json:"password" binding:"required"`
		Company   string `json:"company" binding:"required"`
		JobTitle  string `json:"jobTitle" binding:"required"`
		Industry  string `json:"industry" binding:"required"`
	}

	var req SignupRequest
	if !bindJSON(c, &req, "All fields are required") {
		return
	}

	userID, err := h.authService.Signup(c.Request.Context(), services.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Company:   req.Company,
		JobTitle:  req.JobTitle,
		Industry:  req.Industry,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"userId":  userID,
	})
}

// Login authenticates a user and starts a new session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if !bindJSON(c, &req, "Email and password are required") {
		return
	}

	user, sess, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, middleware.GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.cookie.saveSessionID(c, sess.ID); err != nil {
		_ = h.authService.EndSession(c.Request.Context(), sess.ID)
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, dto.UserResponse{User: dto.ToUserSummaryDTO(user)})
}

// Logout tombstones the caller, destroys the session and expires the cookie.
// It succeeds for anonymous callers too.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	err := h.authService.Logout(c.Request.Context(), userID, middleware.GetSessionID(c))
	if cookieErr := h.cookie.clear(c); cookieErr != nil {
		_ = c.Error(cookieErr)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user, or 401 with a null user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		if middleware.GetSessionID(c) != "" {
			if err := h.cookie.clear(c); err != nil {
				_ = c.Error(err)
			}
		}
		c.JSON(http.StatusUnauthorized, dto.UserResponse{})
		return
	}

	c.JSON(http.StatusOK, dto.UserResponse{User: dto.ToUserSummaryDTO(user)})
}

// VerifySession reports whether the caller is authenticated.
func (h *AuthHandler) VerifySession(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	c.JSON(http.StatusOK, gin.H{
		"authenticated": ok,
		"hasSession":    middleware.GetSessionID(c) != "",
		"user":          dto.ToUserSummaryDTO(user),
	})
}

// CleanupSession destroys the caller's session without a logout tombstone.
func (h *AuthHandler) CleanupSession(c *gin.Context) {
	err := h.authService.EndSession(c.Request.Context(), middleware.GetSessionID(c))
	if cookieErr := h.cookie.clear(c); cookieErr != nil {
		_ = c.Error(cookieErr)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListSessions enumerates active sessions. Admin only.
func (h *AuthHandler) ListSessions(c *gin.Context) {
	list, err := h.authService.ListSessions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": dto.ToSessionDTOs(list),
		"count":    len(list),
	})
}

// ClearAllSessions wipes every session and logout tombstone. Admin only.
func (h *AuthHandler) ClearAllSessions(c *gin.Context) {
	n, err := h.authService.ClearAllSessions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.cookie.clear(c); err != nil {
		_ = c.Error(err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cleared": n,
	})
}
