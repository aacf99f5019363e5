package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

func TestAdminHandler_Approve(t *testing.T) {
	e := newEcho()
	admin := &stubAdminService{
		setApprovalFn: func(ctx context.Context, adminID, userID int64, approved bool) (*domain.User, error) {
			if adminID != 1 || userID != 8 || !approved {
				t.Fatalf("unexpected args %d %d %v", adminID, userID, approved)
			}
			return &domain.User{ID: 8, IsApproved: true}, nil
		},
	}
	h := NewAdminHandler(admin, &stubLanguageService{}, &stubExportService{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	c := withPrincipal(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec), 1, true)
	c.SetParamNames("id")
	c.SetParamValues("8")

	if err := h.Approve(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	env, data := decodeEnvelope(t, rec)
	if env.Message != "user approved" || data["is_approved"] != true {
		t.Fatalf("unexpected response %+v %+v", env, data)
	}
}

func TestAdminHandler_Reject_BadID(t *testing.T) {
	e := newEcho()
	h := NewAdminHandler(&stubAdminService{}, &stubLanguageService{}, &stubExportService{}, zerolog.Nop())

	c := withPrincipal(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder()), 1, true)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := h.Reject(c); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminHandler_Recordings_PassesFilters(t *testing.T) {
	e := newEcho()
	admin := &stubAdminService{
		recordingsFn: func(ctx context.Context, q ports.RecordingQuery) ([]ports.RecordingRow, error) {
			want := ports.RecordingQuery{UserID: 3, LanguageID: 2, Date: "2024-05-01", Search: "amahoro"}
			if q != want {
				t.Fatalf("unexpected query %+v", q)
			}
			return []ports.RecordingRow{{ID: 1}}, nil
		},
	}
	h := NewAdminHandler(admin, &stubLanguageService{}, &stubExportService{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/admin/recordings?user_id=3&language_id=2&date=2024-05-01&search=amahoro", nil)
	rec := httptest.NewRecorder()
	if err := h.Recordings(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	_, data := decodeEnvelope(t, rec)
	if data["count"] != float64(1) {
		t.Fatalf("unexpected payload %+v", data)
	}
}

func TestAdminHandler_ImportSentences_FromFiles(t *testing.T) {
	e := newEcho()
	langs := &stubLanguageService{
		fromFilesFn: func(ctx context.Context, id int64) (*ports.ImportResult, error) {
			if id != 2 {
				t.Fatalf("unexpected id %d", id)
			}
			return &ports.ImportResult{Inserted: 3, Skipped: 1}, nil
		},
	}
	h := NewAdminHandler(&stubAdminService{}, langs, &stubExportService{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("2")

	if err := h.ImportSentences(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	_, data := decodeEnvelope(t, rec)
	if data["inserted"] != float64(3) || data["skipped"] != float64(1) {
		t.Fatalf("unexpected payload %+v", data)
	}
}

func TestAdminHandler_ImportSentences_FromUpload(t *testing.T) {
	e := newEcho()
	langs := &stubLanguageService{
		fromRecordsFn: func(ctx context.Context, id int64, r io.Reader) (*ports.ImportResult, error) {
			data, _ := io.ReadAll(r)
			if string(data) != "Amahoro\tPaix\n" {
				t.Fatalf("unexpected upload %q", data)
			}
			return &ports.ImportResult{Inserted: 1}, nil
		},
	}
	h := NewAdminHandler(&stubAdminService{}, langs, &stubExportService{}, zerolog.Nop())

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, _ := w.CreateFormFile("records", "records.tsv")
	part.Write([]byte("Amahoro\tPaix\n"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("2")

	if err := h.ImportSentences(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestAdminHandler_ExportCSV(t *testing.T) {
	e := newEcho()
	h := NewAdminHandler(&stubAdminService{}, &stubLanguageService{}, &stubExportService{csv: "ID,Nom\n"}, zerolog.Nop())
	h.now = func() time.Time { return time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	if err := h.ExportCSV(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(got, "lugayetu_export_20240501_083000.csv") {
		t.Fatalf("unexpected disposition %q", got)
	}
	if rec.Body.String() != "ID,Nom\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestAdminHandler_ExportZIP_LoadFailure(t *testing.T) {
	e := newEcho()
	boom := errors.New("mongo down")
	h := NewAdminHandler(&stubAdminService{}, &stubLanguageService{}, &stubExportService{loadErr: boom}, zerolog.Nop())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := h.ExportZIP(c); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if c.Response().Committed {
		t.Fatalf("headers must not be sent when the export cannot be loaded")
	}
	if rec.Header().Get(echo.HeaderContentDisposition) != "" {
		t.Fatalf("no attachment expected on failure")
	}
}

func TestAdminHandler_ExportZIP_StreamFailure(t *testing.T) {
	e := newEcho()
	boom := errors.New("disk gone")
	h := NewAdminHandler(&stubAdminService{}, &stubLanguageService{}, &stubExportService{err: boom}, zerolog.Nop())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := h.ExportZIP(c); !errors.Is(err, boom) {
		t.Fatalf("expected stream error, got %v", err)
	}
	if !c.Response().Committed {
		t.Fatalf("a failure mid-stream happens after the headers are out")
	}
}
