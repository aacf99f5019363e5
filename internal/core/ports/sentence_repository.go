package ports

import (
	"context"

	"github.com/lugayetu/collector/internal/core/domain"
)

// SentenceRepository defines persistence operations for prompts.
type SentenceRepository interface {
	// Create returns domain.ErrSentenceExists when the language already holds the text.
	Create(ctx context.Context, s *domain.Sentence) (*domain.Sentence, error)
	FindByID(ctx context.Context, id int64) (*domain.Sentence, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Sentence, error)
	TextExists(ctx context.Context, languageID int64, text string) (bool, error)

	// IDs returns every sentence ID, restricted to languageID when it is non-zero.
	IDs(ctx context.Context, languageID int64) ([]int64, error)
	// SearchIDs returns the IDs of sentences whose text or translation contains
	// query, case-insensitively.
	SearchIDs(ctx context.Context, query string) ([]int64, error)
	CountByLanguage(ctx context.Context) (map[int64]int64, error)
	DeleteByLanguage(ctx context.Context, languageID int64) error
}
