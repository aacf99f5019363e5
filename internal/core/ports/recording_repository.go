package ports

import (
	"context"
	"time"

	"github.com/lugayetu/collector/internal/core/domain"
)

// RecordingFilter narrows a recording query. Zero values mean "any".
type RecordingFilter struct {
	UserID int64

	// When RestrictSentences is set only recordings of SentenceIDs match; an
	// empty SentenceIDs then matches nothing.
	RestrictSentences bool
	SentenceIDs       []int64

	From time.Time // created_at >= From
	To   time.Time // created_at < To

	Offset int
	Limit  int
}

// RecordingTotals aggregates a filtered set of recordings.
type RecordingTotals struct {
	Count    int64
	Duration float64
}

// RecordingRepository defines persistence operations for recordings.
type RecordingRepository interface {
	// Create returns domain.ErrAlreadyRecorded when the (user, sentence) pair exists.
	Create(ctx context.Context, r *domain.Recording) (*domain.Recording, error)
	FindByID(ctx context.Context, id int64) (*domain.Recording, error)
	FindByAudioPath(ctx context.Context, path string) (*domain.Recording, error)
	Exists(ctx context.Context, userID, sentenceID int64) (bool, error)
	SentenceIDsByUser(ctx context.Context, userID int64) ([]int64, error)

	// List returns matching recordings, newest first.
	List(ctx context.Context, filter RecordingFilter) ([]*domain.Recording, error)
	Totals(ctx context.Context, filter RecordingFilter) (RecordingTotals, error)
	AudioPaths(ctx context.Context) ([]string, error)

	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
	DeleteBySentences(ctx context.Context, sentenceIDs []int64) error
}
