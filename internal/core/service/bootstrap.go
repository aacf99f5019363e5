package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

// AdminInput describes an administrator account to provision.
type AdminInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Bootstrapper provisions the data a fresh deployment needs.
type Bootstrapper struct {
	repos     Repositories
	auth      *AuthService
	languages *LanguageService
	logger    zerolog.Logger
}

func NewBootstrapper(repos Repositories, auth *AuthService, languages *LanguageService, logger zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{repos: repos, auth: auth, languages: languages, logger: logger}
}

// EnsureAdmin creates the administrator unless the email is already taken.
// It reports whether a new account was created.
func (b *Bootstrapper) EnsureAdmin(ctx context.Context, in AdminInput) (*domain.User, bool, error) {
	if in.Email == "" || len(in.Password) < minPasswordLength {
		return nil, false, domain.NewValidationError("admin", fmt.Sprintf("admin email and a password of at least %d characters are required", minPasswordLength))
	}

	email := normalizeEmail(in.Email)
	existing, err := b.repos.Users.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, fmt.Errorf("ensure admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("ensure admin: hash password: %w", err)
	}
	admin := &domain.User{
		LastName:       valueOr(in.LastName, "Admin"),
		FirstName:      valueOr(in.FirstName, "System"),
		Age:            30,
		Sex:            domain.SexOther,
		SpokenLanguage: "Kirundi",
		Province:       "Kinshasa",
		City:           "Kinshasa",
		Email:          email,
		PasswordHash:   string(hash),
		IsAdmin:        true,
		IsApproved:     true,
		AcceptedTerms:  true,
		CreatedAt:      time.Now().UTC(),
	}

	for attempt := 0; attempt < maxUserIDAttempts; attempt++ {
		admin.UserID = b.auth.nextUserID(ctx, attempt == 0)
		created, err := b.repos.Users.Create(ctx, admin)
		if errors.Is(err, domain.ErrUserIDTaken) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("ensure admin: %w", err)
		}
		b.logger.Info().Int64("user_id", created.ID).Str("email", email).Msg("admin account created")
		return created, true, nil
	}
	return nil, false, fmt.Errorf("ensure admin: %w", domain.ErrUserIDTaken)
}

// EnsureLanguage creates the language when its code is unknown and imports
// its seed files.
func (b *Bootstrapper) EnsureLanguage(ctx context.Context, name, code string) (*domain.Language, *ports.ImportResult, error) {
	lang, err := b.repos.Languages.FindByCode(ctx, code)
	if errors.Is(err, domain.ErrLanguageNotFound) {
		lang, err = b.languages.Create(ctx, ports.CreateLanguageInput{Name: name, Code: code})
	}
	if err != nil {
		return nil, nil, fmt.Errorf("ensure language %s: %w", code, err)
	}

	res, err := b.languages.ImportFromFiles(ctx, lang.ID)
	if err != nil {
		return lang, nil, fmt.Errorf("ensure language %s: %w", code, err)
	}
	return lang, res, nil
}

// BackfillUserIDs assigns user<id> to accounts stored without an identifier.
func (b *Bootstrapper) BackfillUserIDs(ctx context.Context) (int, error) {
	users, err := b.repos.Users.MissingUserID(ctx)
	if err != nil {
		return 0, fmt.Errorf("backfill user ids: %w", err)
	}
	for _, u := range users {
		u.UserID = domain.FormatUserID(u.ID)
		if err := b.repos.Users.Update(ctx, u); err != nil {
			return 0, fmt.Errorf("backfill user %d: %w", u.ID, err)
		}
	}
	if len(users) > 0 {
		b.logger.Info().Int("count", len(users)).Msg("user identifiers backfilled")
	}
	return len(users), nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
