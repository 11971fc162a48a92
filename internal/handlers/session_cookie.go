package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/community-api/internal/constants"
)

// CookieConfig controls the attributes of the session cookie.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

func (cc CookieConfig) options(maxAge int) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   cc.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// saveSessionID replaces the cookie session contents with sid.
func (cc CookieConfig) saveSessionID(c *gin.Context, sid string) error {
	s := sessions.Default(c)
	s.Clear()
	s.Set(constants.SessionKeyID, sid)
	s.Options(cc.options(int(cc.TTL.Seconds())))
	return s.Save()
}

// clear empties the cookie session and expires the cookie.
func (cc CookieConfig) clear(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(cc.options(-1))
	return s.Save()
}
