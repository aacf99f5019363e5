package ports

import (
	"context"
	"io"
	"time"

	"github.com/lugayetu/collector/internal/core/domain"
)

// Assignment is the sentence handed to a contributor to read.
type Assignment struct {
	ID           int64  `json:"id"`
	Text         string `json:"text"`
	Translation  string `json:"translation"`
	LanguageID   int64  `json:"language_id"`
	LanguageName string `json:"language_name,omitempty"`
}

// SubmitInput carries one audio upload. A nil Audio means no file was sent.
type SubmitInput struct {
	UserID      int64
	SentenceID  int64
	Filename    string
	ContentType string
	Audio       io.Reader
	Duration    float64
}

type SubmitResult struct {
	ID        int64     `json:"id"`
	Extension string    `json:"-"`
	Size      int64     `json:"-"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// AudioFile is an opened blob ready to stream.
type AudioFile struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

// RecordingService assigns sentences and ingests recordings.
type RecordingService interface {
	// NextSentence returns nil when nothing is left to record. A zero
	// languageID means any language.
	NextSentence(ctx context.Context, userID, languageID int64) (*Assignment, error)
	Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error)
	OpenAudio(ctx context.Context, p domain.Principal, recordingID int64) (*AudioFile, error)
	OpenAudioByName(ctx context.Context, p domain.Principal, name string) (*AudioFile, error)
}
