package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lugayetu/collector/internal/api/middleware"
	"github.com/lugayetu/collector/internal/core/domain"
)

// ctxPrincipal returns the caller resolved by the auth middleware. Routes
// that reach a handler without one are misconfigured, so treat them as
// unauthenticated.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, name+" must be a positive integer")
	}
	return id, nil
}

// optionalID parses an optional numeric query or form value; empty yields 0.
func optionalID(field, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, domain.NewValidationError(field, field+" must be a positive integer")
	}
	return id, nil
}

func optionalInt(c echo.Context, name string) int {
	n, _ := strconv.Atoi(c.QueryParam(name))
	return n
}

func invalidPayload() error {
	return domain.NewValidationError("body", "invalid payload")
}
