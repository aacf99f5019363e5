package ports

import (
	"context"
	"io"

	"github.com/lugayetu/collector/internal/core/domain"
)

type LanguageSummary struct {
	*domain.Language
	SentenceCount int64 `json:"sentence_count"`
}

type CreateLanguageInput struct {
	Name string
	Code string
}

// ImportResult reports how many sentences an import added or skipped as
// already present.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// LanguageService manages target languages and their sentence inventory.
type LanguageService interface {
	List(ctx context.Context) ([]*domain.Language, error)
	Summaries(ctx context.Context) ([]LanguageSummary, error)
	Create(ctx context.Context, in CreateLanguageInput) (*domain.Language, error)
	Delete(ctx context.Context, adminID, languageID int64) error
	// ImportFromFiles loads the language's paired sentence/translation files.
	ImportFromFiles(ctx context.Context, languageID int64) (*ImportResult, error)
	// ImportRecords loads text<TAB>translation records from r.
	ImportRecords(ctx context.Context, languageID int64, r io.Reader) (*ImportResult, error)
}

// ExportService writes the recording corpus in downloadable formats.
// ExportSnapshot is the corpus read for one export. Users and Sentences are
// keyed by ID and may lack entries for rows whose owner or sentence is gone.
type ExportSnapshot struct {
	Recordings []*domain.Recording
	Users      map[int64]*domain.User
	Sentences  map[int64]*domain.Sentence
}

// ExportService loads the corpus first so that read failures surface before
// anything is streamed to the client.
type ExportService interface {
	Load(ctx context.Context) (*ExportSnapshot, error)
	WriteCSV(ctx context.Context, w io.Writer, snap *ExportSnapshot) error
	WriteZIP(ctx context.Context, w io.Writer, snap *ExportSnapshot) error
}
