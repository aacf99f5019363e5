package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmissionLock serializes uploads for one (user, sentence) pair.
// Key format: submission:<user_id>:<sentence_id>
type SubmissionLock struct {
	client *redis.Client
}

func NewSubmissionLock(client *redis.Client) *SubmissionLock {
	return &SubmissionLock{client: client}
}

// Acquire sets the key only if absent. It expires after ttl so a crashed
// request cannot hold the pair forever.
func (l *SubmissionLock) Acquire(ctx context.Context, userID, sentenceID int64, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, submissionKey(userID, sentenceID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire submission lock: %w", err)
	}
	return ok, nil
}

func (l *SubmissionLock) Release(ctx context.Context, userID, sentenceID int64) error {
	if err := l.client.Del(ctx, submissionKey(userID, sentenceID)).Err(); err != nil {
		return fmt.Errorf("release submission lock: %w", err)
	}
	return nil
}

func submissionKey(userID, sentenceID int64) string {
	return fmt.Sprintf("submission:%d:%d", userID, sentenceID)
}
