package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

// StartSession opens a server-side session and returns the signed cookie value.
func (s *AuthService) StartSession(ctx context.Context, userID int64, remember bool) (*ports.Session, error) {
	ttl := s.cfg.SessionTTL
	if remember {
		ttl = s.cfg.RememberTTL
	}

	id, err := s.sessions.Create(ctx, userID, ttl)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &ports.Session{Cookie: s.signSession(id), TTL: ttl}, nil
}

func (s *AuthService) UserFromSession(ctx context.Context, cookie string) (*domain.User, error) {
	id, ok := s.verifySession(cookie)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	userID, err := s.sessions.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.loadPrincipalUser(ctx, userID)
}

func (s *AuthService) EndSession(ctx context.Context, cookie string) error {
	id, ok := s.verifySession(cookie)
	if !ok {
		return nil
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// signSession renders <id>.<base64url(HMAC-SHA256(id))>.
func (s *AuthService) signSession(id string) string {
	return id + "." + base64.RawURLEncoding.EncodeToString(s.sessionMAC(id))
}

func (s *AuthService) verifySession(cookie string) (string, bool) {
	id, sig, ok := strings.Cut(cookie, ".")
	if !ok || id == "" {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	return id, hmac.Equal(got, s.sessionMAC(id))
}

func (s *AuthService) sessionMAC(id string) []byte {
	mac := hmac.New(sha256.New, []byte(s.cfg.SessionSecret))
	mac.Write([]byte(id))
	return mac.Sum(nil)
}
