package metrics

import (
	"context"
	"io"

	"github.com/lugayetu/collector/internal/core/ports"
)

// InstrumentStore wraps an AudioStore so writes feed UploadBytes and failed
// removals feed AudioDeleteFailuresTotal.
func InstrumentStore(next ports.AudioStore) ports.AudioStore {
	return &instrumentedStore{AudioStore: next}
}

type instrumentedStore struct {
	ports.AudioStore
}

func (s *instrumentedStore) Save(ctx context.Context, name string, r io.Reader, limit int64) (int64, error) {
	n, err := s.AudioStore.Save(ctx, name, r, limit)
	if err == nil {
		UploadBytes.Observe(float64(n))
	}
	return n, err
}

func (s *instrumentedStore) Remove(ctx context.Context, name string) error {
	err := s.AudioStore.Remove(ctx, name)
	if err != nil {
		AudioDeleteFailuresTotal.Inc()
	}
	return err
}
