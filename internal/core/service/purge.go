package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

// Repositories bundles the persistence ports a service works with.
type Repositories struct {
	Users      ports.UserRepository
	Languages  ports.LanguageRepository
	Sentences  ports.SentenceRepository
	Recordings ports.RecordingRepository
	UnitOfWork ports.UnitOfWork
}

// purger deletes rows in one unit of work and unlinks the audio of every
// removed recording once the transaction has committed.
type purger struct {
	repos  Repositories
	store  ports.AudioStore
	logger zerolog.Logger
}

func (p *purger) deleteUser(ctx context.Context, userID int64) error {
	var paths []string
	err := p.repos.UnitOfWork.Do(ctx, func(ctx context.Context) error {
		recs, err := p.repos.Recordings.List(ctx, ports.RecordingFilter{UserID: userID})
		if err != nil {
			return err
		}
		paths = audioPaths(recs)
		if err := p.repos.Recordings.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return p.repos.Users.Delete(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("delete user %d: %w", userID, err)
	}
	p.removeBlobs(ctx, paths)
	return nil
}

func (p *purger) deleteLanguage(ctx context.Context, languageID int64) error {
	var paths []string
	err := p.repos.UnitOfWork.Do(ctx, func(ctx context.Context) error {
		ids, err := p.repos.Sentences.IDs(ctx, languageID)
		if err != nil {
			return err
		}
		recs, err := p.repos.Recordings.List(ctx, ports.RecordingFilter{RestrictSentences: true, SentenceIDs: ids})
		if err != nil {
			return err
		}
		paths = audioPaths(recs)
		if err := p.repos.Recordings.DeleteBySentences(ctx, ids); err != nil {
			return err
		}
		if err := p.repos.Sentences.DeleteByLanguage(ctx, languageID); err != nil {
			return err
		}
		return p.repos.Languages.Delete(ctx, languageID)
	})
	if err != nil {
		return fmt.Errorf("delete language %d: %w", languageID, err)
	}
	p.removeBlobs(ctx, paths)
	return nil
}

func (p *purger) deleteRecording(ctx context.Context, rec *domain.Recording) error {
	if err := p.repos.Recordings.Delete(ctx, rec.ID); err != nil {
		return fmt.Errorf("delete recording %d: %w", rec.ID, err)
	}
	p.removeBlobs(ctx, []string{rec.AudioPath})
	return nil
}

// removeBlobs is best-effort: the rows are already gone, so failures are only logged.
func (p *purger) removeBlobs(ctx context.Context, paths []string) {
	ctx = context.WithoutCancel(ctx)
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := p.store.Remove(ctx, path); err != nil {
			p.logger.Warn().Err(err).Str("audio_path", path).Msg("failed to remove audio file")
		}
	}
}

func audioPaths(recs []*domain.Recording) []string {
	paths := make([]string, 0, len(recs))
	for _, r := range recs {
		paths = append(paths, r.AudioPath)
	}
	return paths
}
