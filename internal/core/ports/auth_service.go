package ports

import (
	"context"
	"time"

	"github.com/lugayetu/collector/internal/core/domain"
)

// RegisterInput carries the self-registration form.
type RegisterInput struct {
	LastName       string
	FirstName      string
	Age            int
	Sex            string
	SpokenLanguage string
	Province       string
	City           string
	Email          string
	Password       string
}

// Session is a freshly opened web session.
type Session struct {
	Cookie string
	TTL    time.Duration
}

// AuthService covers registration, credential checks, bearer tokens and web sessions.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Authenticate verifies credentials, then the approval gate.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	// Login authenticates and issues a bearer token.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	UserFromToken(ctx context.Context, token string) (*domain.User, error)

	StartSession(ctx context.Context, userID int64, remember bool) (*Session, error)
	UserFromSession(ctx context.Context, cookie string) (*domain.User, error)
	EndSession(ctx context.Context, cookie string) error
}
