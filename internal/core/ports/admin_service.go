package ports

import (
	"context"
	"time"

	"github.com/lugayetu/collector/internal/core/domain"
)

// RecordingQuery holds the admin recording browser filters. They combine with AND.
type RecordingQuery struct {
	UserID     int64
	LanguageID int64
	Date       string // YYYY-MM-DD, UTC
	Search     string
}

// RecordingRow is a denormalized recording for the admin browser.
type RecordingRow struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	UserName      string    `json:"user_name"`
	Language      string    `json:"language"`
	Sentence      string    `json:"sentence"`
	Translation   string    `json:"translation"`
	Duration      float64   `json:"duration"`
	AudioFilename string    `json:"audio_filename"`
	CreatedAt     time.Time `json:"created_at"`
}

type RecentRecording struct {
	ID            int64   `json:"id"`
	User          string  `json:"user"`
	Language      string  `json:"language"`
	Sentence      string  `json:"sentence"`
	Duration      float64 `json:"duration"`
	AudioFilename string  `json:"audio_filename"`
	CreatedAt     string  `json:"created_at"`
}

type DashboardStats struct {
	TotalUsers       int64             `json:"total_users"`
	PendingUsers     int64             `json:"pending_users"`
	TotalRecordings  int64             `json:"total_recordings"`
	TotalHours       float64           `json:"total_hours"`
	TodayRecordings  int64             `json:"today_recordings"`
	RecentRecordings []RecentRecording `json:"recent_recordings"`
}

// AdminService covers moderation of accounts and recordings.
type AdminService interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	Users(ctx context.Context) ([]*domain.User, error)
	PendingCount(ctx context.Context) (int64, error)
	SetApproval(ctx context.Context, adminID, userID int64, approved bool) (*domain.User, error)
	DeleteUser(ctx context.Context, adminID, userID int64) error
	Recordings(ctx context.Context, q RecordingQuery) ([]RecordingRow, error)
	DeleteRecording(ctx context.Context, adminID, recordingID int64) error
}
