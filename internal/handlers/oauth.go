package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/community-api/internal/constants"
	"github.com/yukikurage/community-api/internal/dto"
	apierrors "github.com/yukikurage/community-api/internal/errors"
	"github.com/yukikurage/community-api/internal/middleware"
	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/oauth"
	"github.com/yukikurage/community-api/internal/services"
)

// OAuthProvider is the external identity provider used by OAuthHandler.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.Profile, error)
}

// OAuthHandler runs the Google sign-in redirect flow.
type OAuthHandler struct {
	authService *services.AuthService
	provider    OAuthProvider
	signer      *oauth.StateSigner
	frontendURL string
	cookie      CookieConfig
	log         *slog.Logger
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(authService *services.AuthService, provider OAuthProvider, signer *oauth.StateSigner, frontendURL string, cookie CookieConfig, log *slog.Logger) *OAuthHandler {
	if cookie.TTL == 0 {
		cookie.TTL = authService.SessionTTL()
	}
	return &OAuthHandler{
		authService: authService,
		provider:    provider,
		signer:      signer,
		frontendURL: frontendURL,
		cookie:      cookie,
		log:         log,
	}
}

// GoogleStart redirects to the Google consent page.
func (h *OAuthHandler) GoogleStart(c *gin.Context) {
	nonce, state, err := h.signer.Issue()
	if err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "")
		return
	}

	s := sessions.Default(c)
	s.Set(constants.SessionKeyOAuthNonce, nonce)
	if err := s.Save(); err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

func (h *OAuthHandler) fail(c *gin.Context, reason string) {
	if err := sessions.Default(c).Save(); err != nil {
		h.log.Warn("failed to save session", "error", err)
	}
	c.Redirect(http.StatusFound, h.frontendURL+"/login?error="+url.QueryEscape(reason))
}

// GoogleCallback completes the flow and redirects to the frontend with the
// user payload.
func (h *OAuthHandler) GoogleCallback(c *gin.Context) {
	if c.Query("error") != "" {
		h.fail(c, "auth_failed")
		return
	}

	s := sessions.Default(c)
	nonce, _ := s.Get(constants.SessionKeyOAuthNonce).(string)
	s.Delete(constants.SessionKeyOAuthNonce)

	if err := h.signer.Verify(c.Query("state"), nonce); err != nil {
		h.log.Warn("rejected oauth callback", "error", err)
		h.fail(c, "invalid_state")
		return
	}

	ctx := c.Request.Context()
	profile, err := h.provider.Exchange(ctx, c.Query("code"))
	if err != nil {
		h.log.Warn("oauth exchange failed", "error", err)
		if errors.Is(err, oauth.ErrNoEmail) {
			h.fail(c, "missing_email")
			return
		}
		h.fail(c, "auth_failed")
		return
	}

	user, sess, err := h.authService.OAuthLogin(ctx, services.OAuthProfile{
		Provider:   models.AuthProviderGoogle,
		ExternalID: profile.Subject,
		Email:      profile.Email,
		GivenName:  profile.GivenName,
		FamilyName: profile.FamilyName,
	}, middleware.GetSessionID(c))
	if err != nil {
		if errors.Is(err, services.ErrInternal) {
			h.log.Error("oauth login failed", "error", err)
		}
		h.fail(c, "auth_failed")
		return
	}

	if err := h.cookie.saveSessionID(c, sess.ID); err != nil {
		_ = h.authService.EndSession(ctx, sess.ID)
		h.log.Error("failed to save session", "error", err)
		h.fail(c, "auth_failed")
		return
	}

	payload, err := json.Marshal(dto.ToUserSummaryDTO(user))
	if err != nil {
		h.fail(c, "auth_failed")
		return
	}
	c.Redirect(http.StatusFound, h.frontendURL+"/community?googleAuthSuccess=1&user="+url.QueryEscape(string(payload)))
}
