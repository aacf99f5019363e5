package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/api/handler"
	"github.com/lugayetu/collector/internal/api/middleware"
	"github.com/lugayetu/collector/internal/core/ports"
)

// multipartOverhead leaves room for form fields and boundaries around the
// audio part; the store enforces the exact audio limit.
const multipartOverhead = 1 << 20

// Services are the core use cases the router exposes.
type Services struct {
	Auth       ports.AuthService
	Account    ports.AccountService
	Recordings ports.RecordingService
	Admin      ports.AdminService
	Languages  ports.LanguageService
	Export     ports.ExportService
}

type Options struct {
	MaxUploadBytes  int64
	LoginRatePerMin int
	CookieSecure    bool
	// Checks are probed by GET /health/ready, keyed by dependency name.
	Checks map[string]handler.Checker
	// Registry receives the HTTP metrics; nil means the default registry,
	// which also holds the domain metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, opts Options, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(promConfig(opts.Registry)))

	// --- Dependencies ---
	cookies := handler.CookieConfig{Secure: opts.CookieSecure}
	authHandler := handler.NewAuthHandler(svc.Auth, cookies, log)
	accountHandler := handler.NewAccountHandler(svc.Account, svc.Auth, cookies, log)
	recordingHandler := handler.NewRecordingHandler(svc.Recordings, svc.Languages, log)
	adminHandler := handler.NewAdminHandler(svc.Admin, svc.Languages, svc.Export, log)
	healthHandler := handler.NewHealthHandler(opts.Checks)

	bearer := middleware.Bearer(svc.Auth)
	session := middleware.Session(svc.Auth)
	approved := middleware.ApprovalGate()
	loginLimit := middleware.LoginRateLimit(opts.LoginRatePerMin)
	uploadLimit := echomiddleware.BodyLimitWithConfig(echomiddleware.BodyLimitConfig{
		Limit: fmt.Sprintf("%dB", opts.MaxUploadBytes+multipartOverhead),
	})

	// --- REST API ---
	api := e.Group("/api")
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login, loginLimit)
	api.GET("/provinces", authHandler.Provinces)

	user := api.Group("/user", bearer, approved)
	user.GET("/profile", accountHandler.Profile)
	user.PUT("/profile", accountHandler.UpdateProfile)
	user.GET("/stats", accountHandler.Stats)
	user.DELETE("/account", accountHandler.DeleteAccount)

	bearerGate := []echo.MiddlewareFunc{bearer, approved}
	api.GET("/languages", recordingHandler.Languages, bearerGate...)
	api.GET("/sentences/next", recordingHandler.NextSentence, bearerGate...)
	api.POST("/recordings", recordingHandler.Submit, uploadLimit, bearer, approved)
	api.GET("/recordings", accountHandler.Recordings, bearerGate...)
	api.GET("/recordings/:id/audio", recordingHandler.Audio, bearerGate...)

	// --- Web (session cookie) ---
	e.POST("/register", authHandler.WebRegister)
	e.POST("/login", authHandler.WebLogin, loginLimit)
	e.POST("/logout", authHandler.WebLogout)

	sessionGate := []echo.MiddlewareFunc{session, approved}
	e.GET("/record", recordingHandler.Record, sessionGate...)
	e.POST("/save_recording", recordingHandler.Submit, uploadLimit, session, approved)
	e.GET("/my-recordings", accountHandler.Recordings, sessionGate...)
	e.GET("/profile", accountHandler.Profile, sessionGate...)
	e.POST("/profile", accountHandler.WebUpdateProfile, sessionGate...)
	e.POST("/delete-account", accountHandler.WebDeleteAccount, sessionGate...)
	e.GET("/audio/:filename", recordingHandler.AudioByName, sessionGate...)

	// --- Admin (session or bearer) ---
	admin := e.Group("/admin", middleware.SessionOrBearer(svc.Auth), middleware.AdminOnly())
	admin.GET("/dashboard", adminHandler.Dashboard)
	admin.GET("/users", adminHandler.Users)
	admin.GET("/users/pending-count", adminHandler.PendingCount)
	admin.POST("/users/:id/approve", adminHandler.Approve)
	admin.POST("/users/:id/reject", adminHandler.Reject)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.GET("/languages", adminHandler.Languages)
	admin.POST("/languages", adminHandler.CreateLanguage)
	admin.DELETE("/languages/:id", adminHandler.DeleteLanguage)
	admin.POST("/languages/:id/import", adminHandler.ImportSentences, uploadLimit)
	admin.GET("/recordings", adminHandler.Recordings)
	admin.DELETE("/recordings/:id", adminHandler.DeleteRecording)
	admin.GET("/export/csv", adminHandler.ExportCSV)
	admin.GET("/export/zip", adminHandler.ExportZIP)

	// --- Operational (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", promHandler(opts.Registry))

	return e
}

func promConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{Subsystem: "lugayetu"}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func promHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
