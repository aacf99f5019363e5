package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lugayetu/collector/internal/api/middleware"
	"github.com/lugayetu/collector/internal/core/ports"
)

// CookieConfig controls the attributes of the session cookie.
type CookieConfig struct {
	Secure bool
}

func (cc CookieConfig) set(c echo.Context, s *ports.Session) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    s.Cookie,
		Path:     "/",
		Expires:  time.Now().Add(s.TTL),
		MaxAge:   int(s.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cc CookieConfig) clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionCookie(c echo.Context) string {
	cookie, err := c.Cookie(middleware.SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
