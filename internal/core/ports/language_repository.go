package ports

import (
	"context"

	"github.com/lugayetu/collector/internal/core/domain"
)

// LanguageRepository defines persistence operations for target languages.
// Create returns domain.ErrLanguageExists when the name or code is taken.
type LanguageRepository interface {
	Create(ctx context.Context, lang *domain.Language) (*domain.Language, error)
	FindByID(ctx context.Context, id int64) (*domain.Language, error)
	FindByCode(ctx context.Context, code string) (*domain.Language, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Language, error)
	List(ctx context.Context) ([]*domain.Language, error)
	Delete(ctx context.Context, id int64) error
}
