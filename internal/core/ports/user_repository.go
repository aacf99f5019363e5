package ports

import (
	"context"

	"github.com/lugayetu/collector/internal/core/domain"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	// Create assigns the numeric ID and persists the user. It returns
	// domain.ErrUserExists on a duplicate email and domain.ErrUserIDTaken on a
	// duplicate sequential identifier.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	SetApproved(ctx context.Context, id int64, approved bool) error
	Delete(ctx context.Context, id int64) error

	// ListContributors returns non-admin users, newest first.
	ListContributors(ctx context.Context) ([]*domain.User, error)
	CountContributors(ctx context.Context, approved bool) (int64, error)

	// NextUserSeq draws the next value of the user_id sequence.
	NextUserSeq(ctx context.Context) (int64, error)
	LastCreated(ctx context.Context) (*domain.User, error)
	MaxID(ctx context.Context) (int64, error)
	// MissingUserID returns users stored without a sequential identifier.
	MissingUserID(ctx context.Context) ([]*domain.User, error)
}
