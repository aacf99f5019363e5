package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

// IngestConfig bounds audio uploads.
type IngestConfig struct {
	MaxUploadBytes int64
	LockTTL        time.Duration
}

// RecordingService assigns sentences and stores submitted audio.
type RecordingService struct {
	repos  Repositories
	store  ports.AudioStore
	lock   ports.SubmissionLock
	cfg    IngestConfig
	logger zerolog.Logger
	now    func() time.Time
	pick   func(n int) int
}

func NewRecordingService(repos Repositories, store ports.AudioStore, lock ports.SubmissionLock, cfg IngestConfig, logger zerolog.Logger) *RecordingService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 << 20
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &RecordingService{
		repos:  repos,
		store:  store,
		lock:   lock,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		pick:   rand.IntN,
	}
}

func (s *RecordingService) NextSentence(ctx context.Context, userID, languageID int64) (*ports.Assignment, error) {
	if languageID != 0 {
		if _, err := s.repos.Languages.FindByID(ctx, languageID); err != nil {
			return nil, err
		}
	}

	recorded, err := s.repos.Recordings.SentenceIDsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("next sentence: %w", err)
	}
	done := make(map[int64]struct{}, len(recorded))
	for _, id := range recorded {
		done[id] = struct{}{}
	}

	ids, err := s.repos.Sentences.IDs(ctx, languageID)
	if err != nil {
		return nil, fmt.Errorf("next sentence: %w", err)
	}
	eligible := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := done[id]; !ok {
			eligible = append(eligible, id)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	sent, err := s.repos.Sentences.FindByID(ctx, eligible[s.pick(len(eligible))])
	if err != nil {
		return nil, fmt.Errorf("next sentence: %w", err)
	}
	out := &ports.Assignment{
		ID:          sent.ID,
		Text:        sent.Text,
		Translation: sent.Translation,
		LanguageID:  sent.LanguageID,
	}
	if lang, err := s.repos.Languages.FindByID(ctx, sent.LanguageID); err == nil {
		out.LanguageName = lang.Name
	}
	return out, nil
}

// Submit stores one recording. The blob is written before the row; a failed
// insert removes the blob again.
func (s *RecordingService) Submit(ctx context.Context, in ports.SubmitInput) (*ports.SubmitResult, error) {
	if in.Audio == nil {
		return nil, domain.NewValidationError("audio", "audio file is required")
	}
	if in.Duration < 0 {
		return nil, domain.NewValidationError("duration", "duration must not be negative")
	}

	if _, err := s.repos.Sentences.FindByID(ctx, in.SentenceID); err != nil {
		return nil, err
	}

	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, in.UserID, in.SentenceID, s.cfg.LockTTL)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("submission lock unavailable, continuing without it")
		case !acquired:
			return nil, domain.ErrAlreadyRecorded
		default:
			defer func() {
				if err := s.lock.Release(context.WithoutCancel(ctx), in.UserID, in.SentenceID); err != nil {
					s.logger.Warn().Err(err).Msg("failed to release submission lock")
				}
			}()
		}
	}

	exists, err := s.repos.Recordings.Exists(ctx, in.UserID, in.SentenceID)
	if err != nil {
		return nil, fmt.Errorf("submit recording: %w", err)
	}
	if exists {
		return nil, domain.ErrAlreadyRecorded
	}

	now := s.now().UTC()
	ext := domain.AudioExtension(in.Filename, in.ContentType)
	name := domain.RecordingFilename(in.UserID, in.SentenceID, now, uuid.NewString()[:8], ext)

	size, err := s.store.Save(ctx, name, in.Audio, s.cfg.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("submit recording: %w", err)
	}

	var created *domain.Recording
	err = s.repos.UnitOfWork.Do(ctx, func(ctx context.Context) error {
		rec, err := s.repos.Recordings.Create(ctx, &domain.Recording{
			UserID:     in.UserID,
			SentenceID: in.SentenceID,
			AudioPath:  name,
			Duration:   in.Duration,
			CreatedAt:  now,
		})
		created = rec
		return err
	})
	if err != nil {
		if rmErr := s.store.Remove(context.WithoutCancel(ctx), name); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("audio_path", name).Msg("failed to remove orphaned upload")
		}
		if errors.Is(err, domain.ErrAlreadyRecorded) {
			return nil, err
		}
		return nil, fmt.Errorf("submit recording: %w", err)
	}

	s.logger.Info().
		Int64("recording_id", created.ID).
		Int64("user_id", in.UserID).
		Int64("sentence_id", in.SentenceID).
		Str("ext", ext).
		Int64("bytes", size).
		Msg("recording stored")

	return &ports.SubmitResult{
		ID:        created.ID,
		Extension: ext,
		Size:      size,
		Duration:  created.Duration,
		CreatedAt: created.CreatedAt,
	}, nil
}

func (s *RecordingService) OpenAudio(ctx context.Context, p domain.Principal, recordingID int64) (*ports.AudioFile, error) {
	rec, err := s.repos.Recordings.FindByID(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, p, rec)
}

func (s *RecordingService) OpenAudioByName(ctx context.Context, p domain.Principal, name string) (*ports.AudioFile, error) {
	rec, err := s.repos.Recordings.FindByAudioPath(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, p, rec)
}

func (s *RecordingService) open(ctx context.Context, p domain.Principal, rec *domain.Recording) (*ports.AudioFile, error) {
	if rec.UserID != p.ID() && !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	body, err := s.store.Open(ctx, rec.AudioPath)
	if err != nil {
		return nil, err
	}
	return &ports.AudioFile{
		Name:        path.Base(rec.AudioPath),
		ContentType: domain.AudioContentType(rec.AudioPath),
		Body:        body,
	}, nil
}
