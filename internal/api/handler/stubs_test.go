package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lugayetu/collector/internal/api/middleware"
	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func withPrincipal(c echo.Context, id int64, admin bool) echo.Context {
	middleware.SetPrincipal(c, domain.NewPrincipal(id, admin, true))
	return c
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (Envelope, map[string]any) {
	t.Helper()
	var raw struct {
		Envelope
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	data := map[string]any{}
	if len(raw.Data) > 0 && string(raw.Data) != "null" {
		if err := json.Unmarshal(raw.Data, &data); err != nil {
			t.Fatalf("data is not an object: %v", err)
		}
	}
	return raw.Envelope, data
}

type stubAuthService struct {
	registerFn     func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	authenticateFn func(ctx context.Context, email, password string) (*domain.User, error)
	loginFn        func(ctx context.Context, email, password string) (string, *domain.User, error)
	startFn        func(ctx context.Context, userID int64, remember bool) (*ports.Session, error)
	endFn          func(ctx context.Context, cookie string) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	return s.authenticateFn(ctx, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) UserFromToken(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUnauthenticated
}

func (s *stubAuthService) StartSession(ctx context.Context, userID int64, remember bool) (*ports.Session, error) {
	return s.startFn(ctx, userID, remember)
}

func (s *stubAuthService) UserFromSession(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUnauthenticated
}

func (s *stubAuthService) EndSession(ctx context.Context, cookie string) error {
	if s.endFn == nil {
		return nil
	}
	return s.endFn(ctx, cookie)
}

type stubAccountService struct {
	ports.AccountService
	updateFn     func(ctx context.Context, userID int64, in ports.ProfileUpdate) (*domain.User, error)
	recordingsFn func(ctx context.Context, userID int64, page, perPage int) (*ports.RecordingPage, error)
	verifyFn     func(ctx context.Context, userID int64, password string) error
	deleteFn     func(ctx context.Context, userID int64) error
}

func (s *stubAccountService) UpdateProfile(ctx context.Context, userID int64, in ports.ProfileUpdate) (*domain.User, error) {
	return s.updateFn(ctx, userID, in)
}

func (s *stubAccountService) Recordings(ctx context.Context, userID int64, page, perPage int) (*ports.RecordingPage, error) {
	return s.recordingsFn(ctx, userID, page, perPage)
}

func (s *stubAccountService) VerifyPassword(ctx context.Context, userID int64, password string) error {
	return s.verifyFn(ctx, userID, password)
}

func (s *stubAccountService) DeleteAccount(ctx context.Context, userID int64) error {
	return s.deleteFn(ctx, userID)
}

type stubRecordingService struct {
	nextFn   func(ctx context.Context, userID, languageID int64) (*ports.Assignment, error)
	submitFn func(ctx context.Context, in ports.SubmitInput) (*ports.SubmitResult, error)
	openFn   func(ctx context.Context, p domain.Principal, id int64) (*ports.AudioFile, error)
	byNameFn func(ctx context.Context, p domain.Principal, name string) (*ports.AudioFile, error)
}

func (s *stubRecordingService) NextSentence(ctx context.Context, userID, languageID int64) (*ports.Assignment, error) {
	return s.nextFn(ctx, userID, languageID)
}

func (s *stubRecordingService) Submit(ctx context.Context, in ports.SubmitInput) (*ports.SubmitResult, error) {
	return s.submitFn(ctx, in)
}

func (s *stubRecordingService) OpenAudio(ctx context.Context, p domain.Principal, id int64) (*ports.AudioFile, error) {
	return s.openFn(ctx, p, id)
}

func (s *stubRecordingService) OpenAudioByName(ctx context.Context, p domain.Principal, name string) (*ports.AudioFile, error) {
	return s.byNameFn(ctx, p, name)
}

type stubLanguageService struct {
	ports.LanguageService
	listFn        func(ctx context.Context) ([]*domain.Language, error)
	fromFilesFn   func(ctx context.Context, id int64) (*ports.ImportResult, error)
	fromRecordsFn func(ctx context.Context, id int64, r io.Reader) (*ports.ImportResult, error)
}

func (s *stubLanguageService) List(ctx context.Context) ([]*domain.Language, error) {
	return s.listFn(ctx)
}

func (s *stubLanguageService) ImportFromFiles(ctx context.Context, id int64) (*ports.ImportResult, error) {
	return s.fromFilesFn(ctx, id)
}

func (s *stubLanguageService) ImportRecords(ctx context.Context, id int64, r io.Reader) (*ports.ImportResult, error) {
	return s.fromRecordsFn(ctx, id, r)
}

type stubAdminService struct {
	ports.AdminService
	setApprovalFn func(ctx context.Context, adminID, userID int64, approved bool) (*domain.User, error)
	recordingsFn  func(ctx context.Context, q ports.RecordingQuery) ([]ports.RecordingRow, error)
}

func (s *stubAdminService) SetApproval(ctx context.Context, adminID, userID int64, approved bool) (*domain.User, error) {
	return s.setApprovalFn(ctx, adminID, userID, approved)
}

func (s *stubAdminService) Recordings(ctx context.Context, q ports.RecordingQuery) ([]ports.RecordingRow, error) {
	return s.recordingsFn(ctx, q)
}

type stubExportService struct {
	csv     string
	loadErr error
	err     error
}

func (s *stubExportService) Load(_ context.Context) (*ports.ExportSnapshot, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return &ports.ExportSnapshot{}, nil
}

func (s *stubExportService) WriteCSV(_ context.Context, w io.Writer, _ *ports.ExportSnapshot) error {
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, s.csv)
	return err
}

func (s *stubExportService) WriteZIP(_ context.Context, _ io.Writer, _ *ports.ExportSnapshot) error {
	return s.err
}
