package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/api/metrics"
	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

// AdminHandler serves the /admin area. Every route sits behind AdminOnly.
type AdminHandler struct {
	admin     ports.AdminService
	languages ports.LanguageService
	export    ports.ExportService
	logger    zerolog.Logger
	now       func() time.Time
}

func NewAdminHandler(admin ports.AdminService, languages ports.LanguageService, export ports.ExportService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, languages: languages, export: export, logger: logger, now: time.Now}
}

type createLanguageRequest struct {
	Name string `json:"name" form:"name" validate:"required"`
	Code string `json:"code" form:"code" validate:"required"`
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	stats, err := h.admin.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", stats)
}

// Users handles GET /admin/users.
func (h *AdminHandler) Users(c echo.Context) error {
	users, err := h.admin.Users(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", map[string]any{"users": users})
}

// PendingCount handles GET /admin/users/pending-count.
func (h *AdminHandler) PendingCount(c echo.Context) error {
	n, err := h.admin.PendingCount(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", map[string]int64{"count": n})
}

// Approve handles POST /admin/users/:id/approve.
func (h *AdminHandler) Approve(c echo.Context) error {
	return h.setApproval(c, true)
}

// Reject handles POST /admin/users/:id/reject.
func (h *AdminHandler) Reject(c echo.Context) error {
	return h.setApproval(c, false)
}

func (h *AdminHandler) setApproval(c echo.Context, approved bool) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.admin.SetApproval(c.Request().Context(), p.ID(), id, approved)
	if err != nil {
		return err
	}

	msg := "user rejected"
	if approved {
		msg = "user approved"
	}
	return respond(c, http.StatusOK, msg, user)
}

// DeleteUser handles DELETE /admin/users/:id.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.admin.DeleteUser(c.Request().Context(), p.ID(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "user deleted", nil)
}

// Languages handles GET /admin/languages.
func (h *AdminHandler) Languages(c echo.Context) error {
	langs, err := h.languages.Summaries(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", map[string]any{"languages": langs})
}

// CreateLanguage handles POST /admin/languages.
func (h *AdminHandler) CreateLanguage(c echo.Context) error {
	var req createLanguageRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	lang, err := h.languages.Create(c.Request().Context(), ports.CreateLanguageInput{Name: req.Name, Code: req.Code})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "language created", lang)
}

// DeleteLanguage handles DELETE /admin/languages/:id.
func (h *AdminHandler) DeleteLanguage(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.languages.Delete(c.Request().Context(), p.ID(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "language deleted", nil)
}

// ImportSentences handles POST /admin/languages/:id/import. A multipart
// "records" file is loaded as text<TAB>translation lines; otherwise the
// language's own seed files are read.
func (h *AdminHandler) ImportSentences(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var res *ports.ImportResult
	if isMultipart(c) {
		fh, ferr := c.FormFile("records")
		if ferr != nil {
			return domain.NewValidationError("records", "records file is required")
		}
		f, ferr := fh.Open()
		if ferr != nil {
			return fmt.Errorf("open records: %w", ferr)
		}
		defer f.Close()
		res, err = h.languages.ImportRecords(ctx, id, f)
	} else {
		res, err = h.languages.ImportFromFiles(ctx, id)
	}
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fmt.Sprintf("%d sentences imported", res.Inserted), res)
}

// Recordings handles GET /admin/recordings?user_id=&language_id=&date=&search=.
func (h *AdminHandler) Recordings(c echo.Context) error {
	userID, err := optionalID("user_id", c.QueryParam("user_id"))
	if err != nil {
		return err
	}
	languageID, err := optionalID("language_id", c.QueryParam("language_id"))
	if err != nil {
		return err
	}

	rows, err := h.admin.Recordings(c.Request().Context(), ports.RecordingQuery{
		UserID:     userID,
		LanguageID: languageID,
		Date:       strings.TrimSpace(c.QueryParam("date")),
		Search:     strings.TrimSpace(c.QueryParam("search")),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", map[string]any{"recordings": rows, "count": len(rows)})
}

// DeleteRecording handles DELETE /admin/recordings/:id.
func (h *AdminHandler) DeleteRecording(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.admin.DeleteRecording(c.Request().Context(), p.ID(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "recording deleted", nil)
}

// ExportCSV handles GET /admin/export/csv.
func (h *AdminHandler) ExportCSV(c echo.Context) error {
	return h.download(c, "csv", "text/csv; charset=utf-8", h.export.WriteCSV)
}

// ExportZIP handles GET /admin/export/zip.
func (h *AdminHandler) ExportZIP(c echo.Context) error {
	return h.download(c, "zip", "application/zip", h.export.WriteZIP)
}

// download loads the corpus, then streams the export into the response.
// Load failures still get a proper error status. Once the first byte is out
// the status can no longer change, so later failures are only logged and the
// client sees a truncated file.
func (h *AdminHandler) download(c echo.Context, format, contentType string, write func(ctx context.Context, w io.Writer, snap *ports.ExportSnapshot) error) error {
	ctx := c.Request().Context()
	snap, err := h.export.Load(ctx)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("lugayetu_export_%s.%s", h.now().UTC().Format("20060102_150405"), format)
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, contentType)
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	res.WriteHeader(http.StatusOK)

	if err := write(ctx, res, snap); err != nil {
		h.logger.Error().Err(err).Str("format", format).Int("recordings", len(snap.Recordings)).Msg("export aborted mid-stream")
		return err
	}
	metrics.ExportsTotal.WithLabelValues(format).Inc()
	return nil
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}
