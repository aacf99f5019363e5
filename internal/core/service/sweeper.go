package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/core/ports"
)

// SweepResult summarizes one orphan sweep.
type SweepResult struct {
	Scanned int
	Removed int
	Failed  int
}

// Sweeper removes stored audio that no recording references. Blobs younger
// than the grace period are left alone since their row may not be committed yet.
type Sweeper struct {
	recordings ports.RecordingRepository
	store      ports.AudioStore
	grace      time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewSweeper(recordings ports.RecordingRepository, store ports.AudioStore, grace time.Duration, logger zerolog.Logger) *Sweeper {
	if grace <= 0 {
		grace = time.Hour
	}
	return &Sweeper{recordings: recordings, store: store, grace: grace, logger: logger, now: time.Now}
}

func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	blobs, err := s.store.List(ctx)
	if err != nil {
		return res, fmt.Errorf("sweep: list audio: %w", err)
	}
	paths, err := s.recordings.AudioPaths(ctx)
	if err != nil {
		return res, fmt.Errorf("sweep: list recordings: %w", err)
	}
	referenced := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		referenced[p] = struct{}{}
	}

	cutoff := s.now().Add(-s.grace)
	for _, b := range blobs {
		res.Scanned++
		if _, ok := referenced[b.Name]; ok || b.ModTime.After(cutoff) {
			continue
		}
		if err := s.store.Remove(ctx, b.Name); err != nil {
			res.Failed++
			s.logger.Warn().Err(err).Str("audio_path", b.Name).Msg("failed to remove orphaned audio")
			continue
		}
		res.Removed++
	}

	s.logger.Info().Int("scanned", res.Scanned).Int("removed", res.Removed).Int("failed", res.Failed).Msg("orphan sweep finished")
	return res, nil
}
