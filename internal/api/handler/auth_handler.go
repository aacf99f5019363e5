package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/api/metrics"
	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

const (
	channelAPI = "api"
	channelWeb = "web"

	minWebAge = 13
	maxWebAge = 120
)

type AuthHandler struct {
	authService ports.AuthService
	cookies     CookieConfig
	logger      zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, cookies CookieConfig, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies, logger: logger}
}

// registerRequest accepts JSON and form bodies. Age is a json.Number so
// both 30 and "30" bind.
type registerRequest struct {
	LastName       string      `json:"nom"           form:"nom"           validate:"required"`
	FirstName      string      `json:"prenom"        form:"prenom"        validate:"required"`
	Age            json.Number `json:"age"           form:"age"           validate:"required"`
	Sex            string      `json:"sexe"          form:"sexe"          validate:"required,oneof=Homme Femme Autre"`
	SpokenLanguage string      `json:"langue_parlee" form:"langue_parlee" validate:"required"`
	Province       string      `json:"province"      form:"province"      validate:"required,province"`
	City           string      `json:"ville_village" form:"ville_village" validate:"required"`
	Email          string      `json:"email"         form:"email"         validate:"required,email"`
	Password       string      `json:"password"      form:"password"      validate:"required"`
}

type webRegisterRequest struct {
	registerRequest
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
	Terms           string `json:"terms"            form:"terms"`
}

type loginRequest struct {
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
	Remember string `json:"remember" form:"remember"`
}

type authResponse struct {
	Token string       `json:"access_token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

func (r registerRequest) input() (ports.RegisterInput, error) {
	age, err := strconv.Atoi(strings.TrimSpace(string(r.Age)))
	if err != nil {
		return ports.RegisterInput{}, domain.NewValidationError("age", "age must be an integer")
	}
	return ports.RegisterInput{
		LastName:       r.LastName,
		FirstName:      r.FirstName,
		Age:            age,
		Sex:            r.Sex,
		SpokenLanguage: r.SpokenLanguage,
		Province:       r.Province,
		City:           r.City,
		Email:          r.Email,
		Password:       r.Password,
	}, nil
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues(channelAPI).Inc()

	return respond(c, http.StatusCreated, "registration received, awaiting admin approval", authResponse{User: user})
}

// WebRegister handles POST /register. On top of the API rules it requires
// accepted terms, a matching password confirmation and an age of 13 to 120.
func (h *AuthHandler) WebRegister(c echo.Context) error {
	var req webRegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if !accepted(req.Terms) {
		return domain.NewValidationError("terms", "terms must be accepted")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return err
	}
	if in.Age < minWebAge || in.Age > maxWebAge {
		return domain.NewValidationError("age", "age must be between 13 and 120")
	}

	user, err := h.authService.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues(channelWeb).Inc()

	return respond(c, http.StatusCreated, "registration received, awaiting admin approval", authResponse{User: user})
}

// Login handles POST /api/login and returns a bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	metrics.LoginsTotal.WithLabelValues(channelAPI, loginResult(err)).Inc()
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "login successful", authResponse{Token: token, User: user})
}

// WebLogin handles POST /login and opens a session cookie.
func (h *AuthHandler) WebLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}

	ctx := c.Request().Context()
	user, err := h.authService.Authenticate(ctx, req.Email, req.Password)
	metrics.LoginsTotal.WithLabelValues(channelWeb, loginResult(err)).Inc()
	if err != nil {
		return err
	}

	session, err := h.authService.StartSession(ctx, user.ID, accepted(req.Remember))
	if err != nil {
		return err
	}
	h.cookies.set(c, session)

	return respond(c, http.StatusOK, "login successful", authResponse{User: user})
}

// WebLogout handles POST /logout. It always clears the cookie.
func (h *AuthHandler) WebLogout(c echo.Context) error {
	if cookie := sessionCookie(c); cookie != "" {
		if err := h.authService.EndSession(c.Request().Context(), cookie); err != nil {
			h.logger.Warn().Err(err).Msg("failed to delete session")
		}
	}
	h.cookies.clear(c)
	return respond(c, http.StatusOK, "logged out", nil)
}

// Provinces handles GET /api/provinces.
func (h *AuthHandler) Provinces(c echo.Context) error {
	return respond(c, http.StatusOK, "", map[string][]string{"provinces": domain.Provinces})
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials), domain.IsValidation(err):
		return "invalid"
	case errors.Is(err, domain.ErrNotApproved):
		return "not_approved"
	default:
		return "error"
	}
}

// accepted reads an HTML checkbox or a JSON boolean rendered as text.
func accepted(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
