package service

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

const (
	utf8BOM         = "\ufeff"
	zipMetadataName = "metadata.csv"
)

var csvHeader = []string{
	"ID", "Nom Utilisateur", "Sexe", "Âge", "Provenance", "Email",
	"Phrase", "Traduction", "Chemin Fichier Audio", "Date Enregistrement",
}

// ExportService renders the recording corpus as CSV metadata and ZIP archives.
type ExportService struct {
	repos  Repositories
	store  ports.AudioStore
	logger zerolog.Logger
}

func NewExportService(repos Repositories, store ports.AudioStore, logger zerolog.Logger) *ExportService {
	return &ExportService{repos: repos, store: store, logger: logger}
}

// Load reads every recording together with its user and sentence.
func (s *ExportService) Load(ctx context.Context) (*ports.ExportSnapshot, error) {
	recs, err := s.repos.Recordings.List(ctx, ports.RecordingFilter{})
	if err != nil {
		return nil, fmt.Errorf("export: list recordings: %w", err)
	}
	sentences, _, err := hydrate(ctx, s.repos, recs)
	if err != nil {
		return nil, fmt.Errorf("export: load sentences: %w", err)
	}
	userIDs := make([]int64, 0, len(recs))
	for _, r := range recs {
		userIDs = append(userIDs, r.UserID)
	}
	users, err := s.repos.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("export: load users: %w", err)
	}
	return &ports.ExportSnapshot{Recordings: recs, Users: users, Sentences: sentences}, nil
}

// WriteCSV writes a BOM-prefixed CSV of the snapshot. Rows whose user or
// sentence is gone are still written with those fields blank.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, snap *ports.ExportSnapshot) error {
	if err := writeMetadata(w, snap); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	return nil
}

// WriteZIP streams an archive holding audio/<id>_<file> for every recording
// whose blob exists, followed by metadata.csv.
func (s *ExportService) WriteZIP(ctx context.Context, w io.Writer, snap *ports.ExportSnapshot) error {
	zw := zip.NewWriter(w)
	skipped := 0
	for _, r := range snap.Recordings {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := s.addAudio(ctx, zw, r)
		if err != nil {
			return fmt.Errorf("export zip: recording %d: %w", r.ID, err)
		}
		if !ok {
			skipped++
		}
	}

	meta, err := zw.CreateHeader(&zip.FileHeader{
		Name:     zipMetadataName,
		Method:   zip.Deflate,
		Modified: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("export zip: %w", err)
	}
	if err := writeMetadata(meta, snap); err != nil {
		return fmt.Errorf("export zip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("export zip: %w", err)
	}

	s.logger.Info().Int("recordings", len(snap.Recordings)).Int("missing_audio", skipped).Msg("zip export written")
	return nil
}

func (s *ExportService) addAudio(ctx context.Context, zw *zip.Writer, r *domain.Recording) (bool, error) {
	body, err := s.store.Open(ctx, r.AudioPath)
	if errors.Is(err, domain.ErrAudioNotFound) {
		s.logger.Warn().Int64("recording_id", r.ID).Str("audio_path", r.AudioPath).Msg("audio missing, skipped in export")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer body.Close()

	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     fmt.Sprintf("audio/%d_%s", r.ID, path.Base(r.AudioPath)),
		Method:   zip.Store,
		Modified: r.CreatedAt,
	})
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(entry, body); err != nil {
		return false, err
	}
	return true, nil
}

func writeMetadata(w io.Writer, snap *ports.ExportSnapshot) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range snap.Recordings {
		row := make([]string, len(csvHeader))
		row[0] = strconv.FormatInt(r.ID, 10)
		if u, ok := snap.Users[r.UserID]; ok {
			row[1] = u.FullName()
			row[2] = string(u.Sex)
			row[3] = strconv.Itoa(u.Age)
			row[4] = u.Location()
			row[5] = u.Email
		}
		if sent, ok := snap.Sentences[r.SentenceID]; ok {
			row[6] = sent.Text
			row[7] = sent.Translation
		}
		row[8] = r.AudioPath
		row[9] = r.CreatedAt.UTC().Format(time.RFC3339)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
