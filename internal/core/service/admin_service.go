package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

const (
	recentRecordingsLimit = 10
	previewRunes          = 50
	dashboardTimeLayout   = "02/01/2006 15:04"
	dateFilterLayout      = "2006-01-02"
)

// AdminService implements moderation workflows. Every state change is logged
// as an audit line carrying the acting admin.
type AdminService struct {
	repos  Repositories
	purge  *purger
	logger zerolog.Logger
	now    func() time.Time
}

func NewAdminService(repos Repositories, store ports.AudioStore, logger zerolog.Logger) *AdminService {
	return &AdminService{
		repos:  repos,
		purge:  &purger{repos: repos, store: store, logger: logger},
		logger: logger,
		now:    time.Now,
	}
}

func (s *AdminService) Dashboard(ctx context.Context) (*ports.DashboardStats, error) {
	approved, err := s.repos.Users.CountContributors(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	pending, err := s.repos.Users.CountContributors(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	all, err := s.repos.Recordings.Totals(ctx, ports.RecordingFilter{})
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	from, to := utcDay(s.now())
	today, err := s.repos.Recordings.Totals(ctx, ports.RecordingFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	recent, err := s.repos.Recordings.List(ctx, ports.RecordingFilter{Limit: recentRecordingsLimit})
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	rows, err := s.denormalize(ctx, recent)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	out := make([]ports.RecentRecording, 0, len(rows))
	for _, r := range rows {
		out = append(out, ports.RecentRecording{
			ID:            r.ID,
			User:          r.UserName,
			Language:      r.Language,
			Sentence:      preview(r.Sentence, previewRunes),
			Duration:      r.Duration,
			AudioFilename: r.AudioFilename,
			CreatedAt:     r.CreatedAt.UTC().Format(dashboardTimeLayout),
		})
	}

	return &ports.DashboardStats{
		TotalUsers:       approved,
		PendingUsers:     pending,
		TotalRecordings:  all.Count,
		TotalHours:       round2(all.Duration / 3600),
		TodayRecordings:  today.Count,
		RecentRecordings: out,
	}, nil
}

func (s *AdminService) Users(ctx context.Context) ([]*domain.User, error) {
	return s.repos.Users.ListContributors(ctx)
}

func (s *AdminService) PendingCount(ctx context.Context) (int64, error) {
	return s.repos.Users.CountContributors(ctx, false)
}

func (s *AdminService) SetApproval(ctx context.Context, adminID, userID int64, approved bool) (*domain.User, error) {
	user, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Users.SetApproved(ctx, userID, approved); err != nil {
		return nil, fmt.Errorf("set approval: %w", err)
	}
	user.IsApproved = approved

	action := "reject"
	if approved {
		action = "approve"
	}
	s.audit(adminID, action).Int64("target_user_id", userID).Msg("user approval changed")
	return user, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, adminID, userID int64) error {
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
	s.audit(adminID, "delete_user").Int64("target_user_id", userID).Str("email", user.Email).Msg("user deleted")
	return nil
}

func (s *AdminService) Recordings(ctx context.Context, q ports.RecordingQuery) ([]ports.RecordingRow, error) {
	filter := ports.RecordingFilter{UserID: q.UserID}

	if q.LanguageID != 0 {
		ids, err := s.repos.Sentences.IDs(ctx, q.LanguageID)
		if err != nil {
			return nil, fmt.Errorf("browse recordings: %w", err)
		}
		filter.RestrictSentences = true
		filter.SentenceIDs = ids
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		ids, err := s.repos.Sentences.SearchIDs(ctx, search)
		if err != nil {
			return nil, fmt.Errorf("browse recordings: %w", err)
		}
		if filter.RestrictSentences {
			ids = intersect(filter.SentenceIDs, ids)
		}
		filter.RestrictSentences = true
		filter.SentenceIDs = ids
	}

	if q.Date != "" {
		day, err := time.ParseInLocation(dateFilterLayout, q.Date, time.UTC)
		if err != nil {
			return nil, domain.NewValidationError("date", "date must use the YYYY-MM-DD format")
		}
		filter.From, filter.To = utcDay(day)
	}

	recs, err := s.repos.Recordings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("browse recordings: %w", err)
	}
	rows, err := s.denormalize(ctx, recs)
	if err != nil {
		return nil, fmt.Errorf("browse recordings: %w", err)
	}
	return rows, nil
}

func (s *AdminService) DeleteRecording(ctx context.Context, adminID, recordingID int64) error {
	rec, err := s.repos.Recordings.FindByID(ctx, recordingID)
	if err != nil {
		return err
	}
	if err := s.purge.deleteRecording(ctx, rec); err != nil {
		return err
	}
	s.audit(adminID, "delete_recording").Int64("recording_id", recordingID).Msg("recording deleted")
	return nil
}

// denormalize joins recordings with their user, sentence and language.
// Dangling references leave the matching fields blank.
func (s *AdminService) denormalize(ctx context.Context, recs []*domain.Recording) ([]ports.RecordingRow, error) {
	return denormalize(ctx, s.repos, recs)
}

func denormalize(ctx context.Context, repos Repositories, recs []*domain.Recording) ([]ports.RecordingRow, error) {
	sentences, languages, err := hydrate(ctx, repos, recs)
	if err != nil {
		return nil, err
	}
	userIDs := make([]int64, 0, len(recs))
	for _, r := range recs {
		userIDs = append(userIDs, r.UserID)
	}
	users, err := repos.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]ports.RecordingRow, 0, len(recs))
	for _, r := range recs {
		row := ports.RecordingRow{
			ID:            r.ID,
			UserID:        r.UserID,
			Duration:      r.Duration,
			AudioFilename: path.Base(r.AudioPath),
			CreatedAt:     r.CreatedAt,
		}
		if u, ok := users[r.UserID]; ok {
			row.UserName = u.FullName()
		}
		if sent, ok := sentences[r.SentenceID]; ok {
			row.Sentence = sent.Text
			row.Translation = sent.Translation
			if lang, ok := languages[sent.LanguageID]; ok {
				row.Language = lang.Name
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *AdminService) audit(adminID int64, action string) *zerolog.Event {
	return s.logger.Info().Str("audit", action).Int64("admin_id", adminID)
}

// preview truncates text to n runes, appending "..." when something was cut.
func preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}

func intersect(a, b []int64) []int64 {
	set := make(map[int64]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	out := make([]int64, 0)
	for _, id := range b {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
