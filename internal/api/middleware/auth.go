package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lugayetu/collector/internal/core/domain"
)

// SessionCookie is the name of the web session cookie.
const SessionCookie = "lugayetu_session"

const principalKey = "principal"

// Authenticator resolves the caller from a bearer token or a session cookie.
type Authenticator interface {
	UserFromToken(ctx context.Context, token string) (*domain.User, error)
	UserFromSession(ctx context.Context, cookie string) (*domain.User, error)
}

// SetPrincipal stores the authenticated caller on the request context.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the caller stored by one of the auth middlewares.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok && p != nil
}

// Bearer authenticates the request with an "Authorization: Bearer" token.
func Bearer(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authenticateBearer(c, auth); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// Session authenticates the request with the signed session cookie.
func Session(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authenticateSession(c, auth); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// SessionOrBearer uses the bearer token when an Authorization header is
// present and the session cookie otherwise.
func SessionOrBearer(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var err error
			if c.Request().Header.Get(echo.HeaderAuthorization) != "" {
				err = authenticateBearer(c, auth)
			} else {
				err = authenticateSession(c, auth)
			}
			if err != nil {
				return err
			}
			return next(c)
		}
	}
}

func authenticateBearer(c echo.Context, auth Authenticator) error {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return domain.ErrUnauthenticated
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	user, err := auth.UserFromToken(c.Request().Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		return err
	}
	SetPrincipal(c, domain.PrincipalOf(user))
	return nil
}

func authenticateSession(c echo.Context, auth Authenticator) error {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return domain.ErrUnauthenticated
	}

	user, err := auth.UserFromSession(c.Request().Context(), cookie.Value)
	if err != nil {
		return err
	}
	SetPrincipal(c, domain.PrincipalOf(user))
	return nil
}
