package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/lugayetu/collector/internal/core/domain"
)

// ApprovalGate lets admins and approved contributors through. It runs on
// every request, so revoking approval takes effect immediately.
func ApprovalGate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return domain.ErrUnauthenticated
			}
			if !domain.PassesApprovalGate(p) {
				return domain.ErrNotApproved
			}
			return next(c)
		}
	}
}

// AdminOnly rejects every caller that is not an administrator.
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return domain.ErrUnauthenticated
			}
			if !p.IsAdmin() {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
