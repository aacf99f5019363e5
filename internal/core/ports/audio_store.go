package ports

import (
	"context"
	"io"
	"time"
)

// StoredAudio describes one blob held by an AudioStore.
type StoredAudio struct {
	Name    string
	ModTime time.Time
}

// AudioStore persists audio blobs under flat names.
type AudioStore interface {
	// Save writes at most limit bytes from r. It returns domain.ErrUnsafePath
	// when name resolves outside the store and domain.ErrPayloadTooLarge when
	// r holds more than limit bytes; nothing is kept in either case.
	Save(ctx context.Context, name string, r io.Reader, limit int64) (int64, error)
	// Open returns domain.ErrAudioNotFound when the blob is absent.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Remove deletes the blob; a missing blob is not an error.
	Remove(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]StoredAudio, error)
	Ping(ctx context.Context) error
}

// SeedFileStore holds the per-language sentence and translation files.
type SeedFileStore interface {
	// Ensure creates the named files empty when they do not exist yet.
	Ensure(ctx context.Context, names ...string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
