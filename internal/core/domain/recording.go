package domain

import (
	"fmt"
	"time"
)

// Recording is one user's reading of one sentence.
type Recording struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	SentenceID int64     `json:"sentence_id"`
	AudioPath  string    `json:"audio_path"`
	Duration   float64   `json:"duration"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordingFilename builds user<uid>_sentence<sid>_<YYYYMMDD_HHMMSS>_<suffix>.<ext>.
func RecordingFilename(userID, sentenceID int64, at time.Time, suffix, ext string) string {
	return fmt.Sprintf("user%d_sentence%d_%s_%s.%s",
		userID, sentenceID, at.UTC().Format("20060102_150405"), suffix, ext)
}
