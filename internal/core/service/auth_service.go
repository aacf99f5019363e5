package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

const maxUserIDAttempts = 3

// AuthConfig holds secrets and lifetimes for tokens and sessions.
type AuthConfig struct {
	JWTSecret     string
	SessionSecret string
	TokenTTL      time.Duration
	SessionTTL    time.Duration
	RememberTTL   time.Duration
}

// AuthService implements registration, login, bearer tokens and web sessions.
type AuthService struct {
	users     ports.UserRepository
	sessions  ports.SessionStore
	cfg       AuthConfig
	dummyHash []byte
	logger    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionStore, cfg AuthConfig, logger zerolog.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.RememberTTL <= 0 {
		cfg.RememberTTL = 30 * 24 * time.Hour
	}
	// Compared against on unknown emails so both login failures cost one bcrypt run.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("lugayetu-unknown-account"), bcrypt.DefaultCost)
	return &AuthService{users: users, sessions: sessions, cfg: cfg, dummyHash: dummy, logger: logger}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	user := &domain.User{
		LastName:       strings.TrimSpace(in.LastName),
		FirstName:      strings.TrimSpace(in.FirstName),
		Age:            in.Age,
		Sex:            domain.Sex(in.Sex),
		SpokenLanguage: strings.TrimSpace(in.SpokenLanguage),
		Province:       in.Province,
		City:           strings.TrimSpace(in.City),
		Email:          email,
		PasswordHash:   string(hash),
		AcceptedTerms:  true,
		CreatedAt:      time.Now().UTC(),
	}

	for attempt := 0; attempt < maxUserIDAttempts; attempt++ {
		user.UserID = s.nextUserID(ctx, attempt == 0)
		created, err := s.users.Create(ctx, user)
		if errors.Is(err, domain.ErrUserIDTaken) {
			s.logger.Warn().Str("user_id", user.UserID).Int("attempt", attempt+1).Msg("user identifier collision, retrying")
			continue
		}
		if err != nil {
			if errors.Is(err, domain.ErrUserExists) {
				return nil, err
			}
			return nil, fmt.Errorf("register: %w", err)
		}
		s.logger.Info().Int64("user_id", created.ID).Str("sequential_id", created.UserID).Msg("user registered")
		return created, nil
	}
	return nil, fmt.Errorf("register: %w", domain.ErrUserIDTaken)
}

// nextUserID walks the identifier fallback chain: the database sequence, the
// last created user's suffix plus one, the highest numeric ID plus one, and
// finally the current unix time.
func (s *AuthService) nextUserID(ctx context.Context, useSequence bool) string {
	if useSequence {
		n, err := s.users.NextUserSeq(ctx)
		if err == nil {
			return domain.FormatUserID(n)
		}
		s.logger.Warn().Err(err).Msg("user_id sequence unavailable")
	}
	if last, err := s.users.LastCreated(ctx); err == nil {
		if n, ok := domain.ParseUserIDSuffix(last.UserID); ok {
			return domain.FormatUserID(n + 1)
		}
	}
	if max, err := s.users.MaxID(ctx); err == nil {
		return domain.FormatUserID(max + 1)
	}
	return domain.FormatUserID(time.Now().Unix())
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.NewValidationError("email", "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !domain.PassesApprovalGate(domain.PrincipalOf(user)) {
		return nil, domain.ErrNotApproved
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("login: sign token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.cfg.JWTSecret))
}

// UserFromToken validates a bearer token and reloads its subject, so that
// deleted accounts stop authenticating immediately.
func (s *AuthService) UserFromToken(ctx context.Context, token string) (*domain.User, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.loadPrincipalUser(ctx, id)
}

func (s *AuthService) loadPrincipalUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return user, nil
}

func validateRegistration(in ports.RegisterInput) error {
	required := []struct{ field, value string }{
		{"nom", in.LastName},
		{"prenom", in.FirstName},
		{"sexe", in.Sex},
		{"langue_parlee", in.SpokenLanguage},
		{"province", in.Province},
		{"ville_village", in.City},
		{"email", in.Email},
		{"password", in.Password},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.NewValidationError(r.field, r.field+" is required")
		}
	}
	if in.Age <= 0 {
		return domain.NewValidationError("age", "age is required")
	}
	if !domain.Sex(in.Sex).Valid() {
		return domain.NewValidationError("sexe", "sexe must be one of: Homme Femme Autre")
	}
	if !domain.IsValidProvince(in.Province) {
		return domain.NewValidationError("province", "province is not recognised")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
