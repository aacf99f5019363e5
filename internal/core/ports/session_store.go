package ports

import (
	"context"
	"time"
)

// SessionStore keeps server-side web sessions. Lookup returns
// domain.ErrUnauthenticated for unknown or expired sessions.
type SessionStore interface {
	Create(ctx context.Context, userID int64, ttl time.Duration) (string, error)
	Lookup(ctx context.Context, sessionID string) (int64, error)
	Delete(ctx context.Context, sessionID string) error
}

// SubmissionLock guards a (user, sentence) pair while one upload is in flight.
type SubmissionLock interface {
	// Acquire reports false when another submission already holds the pair.
	Acquire(ctx context.Context, userID, sentenceID int64, ttl time.Duration) (bool, error)
	Release(ctx context.Context, userID, sentenceID int64) error
}
