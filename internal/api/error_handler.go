package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/api/handler"
	"github.com/lugayetu/collector/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - maps domain errors to their HTTP status codes;
//   - logs unexpected errors without leaking details to the client;
//   - renders the envelope {"success": false, "message": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			log.Warn().Err(err).Str("path", c.Path()).Msg("error after response was committed")
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, handler.Envelope{Success: false, Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Message
	}

	// Echo's own errors (router 404/405, body limit, rate limiter).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusRequestEntityTooLarge {
			return he.Code, domain.ErrPayloadTooLarge.Error()
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrNotApproved):
		return http.StatusForbidden, "account pending admin approval"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrAdminProtected):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrLanguageNotFound),
		errors.Is(err, domain.ErrSentenceNotFound),
		errors.Is(err, domain.ErrRecordingNotFound),
		errors.Is(err, domain.ErrAudioNotFound),
		errors.Is(err, domain.ErrSeedFileNotFound):
		return http.StatusNotFound, rootMessage(err)
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrUserIDTaken),
		errors.Is(err, domain.ErrLanguageExists),
		errors.Is(err, domain.ErrSentenceExists),
		errors.Is(err, domain.ErrAlreadyRecorded):
		return http.StatusConflict, rootMessage(err)
	case errors.Is(err, domain.ErrUnsafePath):
		return http.StatusBadRequest, "invalid audio file name"
	case errors.Is(err, domain.ErrSeedMismatch):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, domain.ErrPayloadTooLarge.Error()
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// rootMessage returns the sentinel's own text, dropping the wrapping
// operation prefixes the services add.
func rootMessage(err error) string {
	for _, target := range []error{
		domain.ErrUserNotFound, domain.ErrLanguageNotFound, domain.ErrSentenceNotFound,
		domain.ErrRecordingNotFound, domain.ErrAudioNotFound, domain.ErrSeedFileNotFound,
		domain.ErrUserExists, domain.ErrUserIDTaken, domain.ErrLanguageExists,
		domain.ErrSentenceExists, domain.ErrAlreadyRecorded,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
