package service

import (
	"context"
	"fmt"
	"math"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

const (
	defaultPerPage    = 20
	maxPerPage        = 100
	minPasswordLength = 6
)

// AccountService implements contributor self-service.
type AccountService struct {
	repos  Repositories
	purge  *purger
	logger zerolog.Logger
	now    func() time.Time
}

func NewAccountService(repos Repositories, store ports.AudioStore, logger zerolog.Logger) *AccountService {
	return &AccountService{
		repos:  repos,
		purge:  &purger{repos: repos, store: store, logger: logger},
		logger: logger,
		now:    time.Now,
	}
}

func (s *AccountService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.repos.Users.FindByID(ctx, userID)
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, in ports.ProfileUpdate) (*domain.User, error) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(in.LastName); v != "" {
		user.LastName = v
	}
	if v := strings.TrimSpace(in.FirstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(in.SpokenLanguage); v != "" {
		user.SpokenLanguage = v
	}
	if v := strings.TrimSpace(in.City); v != "" {
		user.City = v
	}
	if in.Sex != "" {
		if !domain.Sex(in.Sex).Valid() {
			return nil, domain.NewValidationError("sexe", "sexe must be one of: Homme Femme Autre")
		}
		user.Sex = domain.Sex(in.Sex)
	}
	if in.Province != "" {
		if !domain.IsValidProvince(in.Province) {
			return nil, domain.NewValidationError("province", "province is not recognised")
		}
		user.Province = in.Province
	}
	if in.Age < 0 {
		return nil, domain.NewValidationError("age", "age must be a positive integer")
	}
	if in.Age > 0 {
		user.Age = in.Age
	}
	if in.NewPassword != "" {
		if len(in.NewPassword) < minPasswordLength {
			return nil, domain.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("update profile: hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *AccountService) Stats(ctx context.Context, userID int64) (*ports.UserStats, error) {
	all, err := s.repos.Recordings.Totals(ctx, ports.RecordingFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	from, to := utcDay(s.now())
	today, err := s.repos.Recordings.Totals(ctx, ports.RecordingFilter{UserID: userID, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	return &ports.UserStats{
		TotalRecordings:      all.Count,
		TotalDurationSeconds: round2(all.Duration),
		TotalDurationMinutes: round2(all.Duration / 60),
		TodayRecordings:      today.Count,
	}, nil
}

func (s *AccountService) Recordings(ctx context.Context, userID int64, page, perPage int) (*ports.RecordingPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	totals, err := s.repos.Recordings.Totals(ctx, ports.RecordingFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	recs, err := s.repos.Recordings.List(ctx, ports.RecordingFilter{
		UserID: userID,
		Offset: (page - 1) * perPage,
		Limit:  perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}

	sentences, languages, err := hydrate(ctx, s.repos, recs)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}

	out := make([]ports.OwnRecording, 0, len(recs))
	for _, r := range recs {
		row := ports.OwnRecording{
			ID:            r.ID,
			SentenceID:    r.SentenceID,
			Duration:      r.Duration,
			AudioFilename: path.Base(r.AudioPath),
			CreatedAt:     r.CreatedAt,
		}
		if sent, ok := sentences[r.SentenceID]; ok {
			row.Sentence = sent.Text
			row.Translation = sent.Translation
			if lang, ok := languages[sent.LanguageID]; ok {
				row.Language = lang.Name
			}
		}
		out = append(out, row)
	}

	return &ports.RecordingPage{
		Recordings:    out,
		Page:          page,
		PerPage:       perPage,
		Total:         totals.Count,
		Pages:         int((totals.Count + int64(perPage) - 1) / int64(perPage)),
		TotalDuration: round2(totals.Duration),
	}, nil
}

func (s *AccountService) VerifyPassword(ctx context.Context, userID int64, password string) error {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (s *AccountService) DeleteAccount(ctx context.Context, userID int64) error {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAdmin {
		return domain.ErrAdminProtected
	}
	if err := s.purge.deleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", userID).Msg("account deleted by owner")
	return nil
}

// hydrate loads the sentences and languages referenced by recs.
func hydrate(ctx context.Context, repos Repositories, recs []*domain.Recording) (map[int64]*domain.Sentence, map[int64]*domain.Language, error) {
	ids := make([]int64, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.SentenceID)
	}
	sentences, err := repos.Sentences.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	langIDs := make([]int64, 0, len(sentences))
	for _, sent := range sentences {
		langIDs = append(langIDs, sent.LanguageID)
	}
	languages, err := repos.Languages.FindByIDs(ctx, langIDs)
	if err != nil {
		return nil, nil, err
	}
	return sentences, languages, nil
}

// utcDay returns the bounds of the UTC calendar day containing t.
func utcDay(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
