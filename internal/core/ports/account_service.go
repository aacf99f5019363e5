package ports

import (
	"context"
	"time"

	"github.com/lugayetu/collector/internal/core/domain"
)

// ProfileUpdate carries editable profile fields. Empty strings and a zero Age
// leave the stored value untouched.
type ProfileUpdate struct {
	LastName       string
	FirstName      string
	Age            int
	Sex            string
	SpokenLanguage string
	Province       string
	City           string
	NewPassword    string
}

// UserStats summarizes one contributor's output.
type UserStats struct {
	TotalRecordings      int64   `json:"total_recordings"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	TotalDurationMinutes float64 `json:"total_duration_minutes"`
	TodayRecordings      int64   `json:"today_recordings"`
}

// OwnRecording is a recording as listed to its author.
type OwnRecording struct {
	ID            int64     `json:"id"`
	SentenceID    int64     `json:"sentence_id"`
	Sentence      string    `json:"sentence"`
	Translation   string    `json:"translation"`
	Language      string    `json:"language"`
	Duration      float64   `json:"duration"`
	AudioFilename string    `json:"audio_filename"`
	CreatedAt     time.Time `json:"created_at"`
}

type RecordingPage struct {
	Recordings    []OwnRecording `json:"recordings"`
	Page          int            `json:"page"`
	PerPage       int            `json:"per_page"`
	Total         int64          `json:"total"`
	Pages         int            `json:"pages"`
	TotalDuration float64        `json:"total_duration"`
}

// AccountService is the contributor self-service surface.
type AccountService interface {
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) (*domain.User, error)
	Stats(ctx context.Context, userID int64) (*UserStats, error)
	Recordings(ctx context.Context, userID int64, page, perPage int) (*RecordingPage, error)
	VerifyPassword(ctx context.Context, userID int64, password string) error
	// DeleteAccount removes a non-admin user with all their recordings.
	DeleteAccount(ctx context.Context, userID int64) error
}
