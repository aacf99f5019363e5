package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/api/handler"
	"github.com/lugayetu/collector/internal/core/ports"
)

type failingExport struct{ err error }

func (f failingExport) Load(context.Context) (*ports.ExportSnapshot, error) { return nil, f.err }

func (f failingExport) WriteCSV(context.Context, io.Writer, *ports.ExportSnapshot) error {
	return nil
}

func (f failingExport) WriteZIP(context.Context, io.Writer, *ports.ExportSnapshot) error {
	return nil
}

func TestExport_LoadFailureReturns500(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())
	h := handler.NewAdminHandler(nil, nil, failingExport{err: errors.New("list recordings: mongo down")}, zerolog.Nop())
	e.GET("/admin/export/csv", h.ExportCSV)
	e.GET("/admin/export/zip", h.ExportZIP)

	for _, path := range []string{"/admin/export/csv", "/admin/export/zip"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", path, rec.Code)
		}
		if rec.Header().Get(echo.HeaderContentDisposition) != "" {
			t.Fatalf("%s: failed export must not be offered as a download", path)
		}
		var env handler.Envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s: invalid json %q: %v", path, rec.Body.String(), err)
		}
		if env.Success || env.Message != "internal server error" {
			t.Fatalf("%s: unexpected envelope %+v", path, env)
		}
	}
}
