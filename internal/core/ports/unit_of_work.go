package ports

import "context"

// UnitOfWork runs fn inside one transaction. Repository calls made with the
// context passed to fn join that transaction; a non-nil error rolls it back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
