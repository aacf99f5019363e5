package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

// AccountHandler serves the contributor's own profile, statistics and
// recordings on both the API and the web surface.
type AccountHandler struct {
	account ports.AccountService
	auth    ports.AuthService
	cookies CookieConfig
	logger  zerolog.Logger
}

func NewAccountHandler(account ports.AccountService, auth ports.AuthService, cookies CookieConfig, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{account: account, auth: auth, cookies: cookies, logger: logger}
}

// profileRequest leaves every field optional; empty values keep the stored one.
type profileRequest struct {
	LastName       string      `json:"nom"           form:"nom"`
	FirstName      string      `json:"prenom"        form:"prenom"`
	Age            json.Number `json:"age"           form:"age"`
	Sex            string      `json:"sexe"          form:"sexe"          validate:"omitempty,oneof=Homme Femme Autre"`
	SpokenLanguage string      `json:"langue_parlee" form:"langue_parlee"`
	Province       string      `json:"province"      form:"province"      validate:"omitempty,province"`
	City           string      `json:"ville_village" form:"ville_village"`
	Password       string      `json:"password"      form:"password"`
}

// webProfileRequest is the stricter web form: every field is required and a
// new password must be confirmed.
type webProfileRequest struct {
	LastName        string      `json:"nom"              form:"nom"              validate:"required"`
	FirstName       string      `json:"prenom"           form:"prenom"           validate:"required"`
	Age             json.Number `json:"age"              form:"age"              validate:"required"`
	Sex             string      `json:"sexe"             form:"sexe"             validate:"required,oneof=Homme Femme Autre"`
	SpokenLanguage  string      `json:"langue_parlee"    form:"langue_parlee"    validate:"required"`
	Province        string      `json:"province"         form:"province"         validate:"required,province"`
	City            string      `json:"ville_village"    form:"ville_village"    validate:"required"`
	NewPassword     string      `json:"new_password"     form:"new_password"     validate:"omitempty,min=6"`
	ConfirmPassword string      `json:"confirm_password" form:"confirm_password" validate:"eqfield=NewPassword"`
}

type deleteAccountRequest struct {
	Password string `json:"password" form:"password"`
}

func parseAge(raw json.Number) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0, nil
	}
	age, err := strconv.Atoi(s)
	if err != nil || age < 0 {
		return 0, domain.NewValidationError("age", "age must be an integer")
	}
	return age, nil
}

// Profile handles GET /api/user/profile and GET /profile.
func (h *AccountHandler) Profile(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.account.Profile(c.Request().Context(), p.ID())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", user)
}

// UpdateProfile handles PUT /api/user/profile.
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	age, err := parseAge(req.Age)
	if err != nil {
		return err
	}

	user, err := h.account.UpdateProfile(c.Request().Context(), p.ID(), ports.ProfileUpdate{
		LastName:       req.LastName,
		FirstName:      req.FirstName,
		Age:            age,
		Sex:            req.Sex,
		SpokenLanguage: req.SpokenLanguage,
		Province:       req.Province,
		City:           req.City,
		NewPassword:    req.Password,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "profile updated", user)
}

// WebUpdateProfile handles POST /profile.
func (h *AccountHandler) WebUpdateProfile(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req webProfileRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	age, err := parseAge(req.Age)
	if err != nil {
		return err
	}
	if age < minWebAge || age > maxWebAge {
		return domain.NewValidationError("age", "age must be between 13 and 120")
	}

	user, err := h.account.UpdateProfile(c.Request().Context(), p.ID(), ports.ProfileUpdate{
		LastName:       req.LastName,
		FirstName:      req.FirstName,
		Age:            age,
		Sex:            req.Sex,
		SpokenLanguage: req.SpokenLanguage,
		Province:       req.Province,
		City:           req.City,
		NewPassword:    req.NewPassword,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "profile updated", user)
}

// Stats handles GET /api/user/stats.
func (h *AccountHandler) Stats(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	stats, err := h.account.Stats(c.Request().Context(), p.ID())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", stats)
}

// Recordings handles GET /api/recordings and GET /my-recordings.
func (h *AccountHandler) Recordings(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	page, err := h.account.Recordings(c.Request().Context(), p.ID(), optionalInt(c, "page"), optionalInt(c, "per_page"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", page)
}

// DeleteAccount handles DELETE /api/user/account.
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.account.DeleteAccount(c.Request().Context(), p.ID()); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "account deleted", nil)
}

// WebDeleteAccount handles POST /delete-account. The password is re-checked
// and the session is closed afterwards.
func (h *AccountHandler) WebDeleteAccount(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if p.IsAdmin() {
		return domain.ErrAdminProtected
	}
	var req deleteAccountRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}
	if req.Password == "" {
		return domain.NewValidationError("password", "password is required")
	}

	ctx := c.Request().Context()
	if err := h.account.VerifyPassword(ctx, p.ID(), req.Password); err != nil {
		return err
	}
	if err := h.account.DeleteAccount(ctx, p.ID()); err != nil {
		return err
	}

	if cookie := sessionCookie(c); cookie != "" {
		if err := h.auth.EndSession(ctx, cookie); err != nil {
			h.logger.Warn().Err(err).Int64("user_id", p.ID()).Msg("failed to delete session of removed account")
		}
	}
	h.cookies.clear(c)
	return respond(c, http.StatusOK, "account deleted", nil)
}
