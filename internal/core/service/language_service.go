package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

var languageCodePattern = regexp.MustCompile(`^[a-z0-9_-]{2,16}$`)

// LanguageService manages languages and imports their sentences.
type LanguageService struct {
	repos    Repositories
	seeds    ports.SeedFileStore
	purge    *purger
	sanitize *sanitizer
	logger   zerolog.Logger
}

func NewLanguageService(repos Repositories, seeds ports.SeedFileStore, store ports.AudioStore, logger zerolog.Logger) *LanguageService {
	return &LanguageService{
		repos:    repos,
		seeds:    seeds,
		purge:    &purger{repos: repos, store: store, logger: logger},
		sanitize: newSanitizer(),
		logger:   logger,
	}
}

func (s *LanguageService) List(ctx context.Context) ([]*domain.Language, error) {
	return s.repos.Languages.List(ctx)
}

func (s *LanguageService) Summaries(ctx context.Context) ([]ports.LanguageSummary, error) {
	langs, err := s.repos.Languages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("language summaries: %w", err)
	}
	counts, err := s.repos.Sentences.CountByLanguage(ctx)
	if err != nil {
		return nil, fmt.Errorf("language summaries: %w", err)
	}

	out := make([]ports.LanguageSummary, 0, len(langs))
	for _, l := range langs {
		out = append(out, ports.LanguageSummary{Language: l, SentenceCount: counts[l.ID]})
	}
	return out, nil
}

// Create registers a language and makes sure its two seed files exist.
func (s *LanguageService) Create(ctx context.Context, in ports.CreateLanguageInput) (*domain.Language, error) {
	name := strings.TrimSpace(in.Name)
	code := strings.ToLower(strings.TrimSpace(in.Code))
	if name == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}
	if !languageCodePattern.MatchString(code) {
		return nil, domain.NewValidationError("code", "code must be 2-16 lowercase letters, digits, '-' or '_'")
	}

	lang := &domain.Language{
		Name:             name,
		Code:             code,
		SentencesFile:    code + ".txt",
		TranslationsFile: "translate_" + code + ".txt",
	}
	if err := s.seeds.Ensure(ctx, lang.SentencesFile, lang.TranslationsFile); err != nil {
		return nil, fmt.Errorf("create language: %w", err)
	}

	created, err := s.repos.Languages.Create(ctx, lang)
	if err != nil {
		if errors.Is(err, domain.ErrLanguageExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create language: %w", err)
	}
	s.logger.Info().Int64("language_id", created.ID).Str("code", code).Msg("language created")
	return created, nil
}

// Delete removes a language with its sentences, their recordings and the
// recordings' audio files.
func (s *LanguageService) Delete(ctx context.Context, adminID, languageID int64) error {
	lang, err := s.repos.Languages.FindByID(ctx, languageID)
	if err != nil {
		return err
	}
	if err := s.purge.deleteLanguage(ctx, languageID); err != nil {
		return err
	}
	s.logger.Info().
		Str("audit", "delete_language").
		Int64("admin_id", adminID).
		Int64("language_id", languageID).
		Str("code", lang.Code).
		Msg("language deleted")
	return nil
}

func (s *LanguageService) ImportFromFiles(ctx context.Context, languageID int64) (*ports.ImportResult, error) {
	lang, err := s.repos.Languages.FindByID(ctx, languageID)
	if err != nil {
		return nil, err
	}

	sentences, err := s.seeds.Open(ctx, lang.SentencesFile)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", lang.Code, err)
	}
	defer sentences.Close()
	translations, err := s.seeds.Open(ctx, lang.TranslationsFile)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", lang.Code, err)
	}
	defer translations.Close()

	pairs, err := pairSeedFiles(sentences, translations)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, lang, pairs)
}

func (s *LanguageService) ImportRecords(ctx context.Context, languageID int64, r io.Reader) (*ports.ImportResult, error) {
	lang, err := s.repos.Languages.FindByID(ctx, languageID)
	if err != nil {
		return nil, err
	}
	pairs, err := parseSeedRecords(r)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, lang, pairs)
}

// insert adds the pairs the language does not hold yet. Re-running an import
// is therefore harmless.
func (s *LanguageService) insert(ctx context.Context, lang *domain.Language, pairs []seedPair) (*ports.ImportResult, error) {
	res := &ports.ImportResult{}
	for _, p := range pairs {
		text := s.sanitize.clean(p.text)
		if text == "" {
			res.Skipped++
			continue
		}
		exists, err := s.repos.Sentences.TextExists(ctx, lang.ID, text)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", lang.Code, err)
		}
		if exists {
			res.Skipped++
			continue
		}
		_, err = s.repos.Sentences.Create(ctx, &domain.Sentence{
			LanguageID:  lang.ID,
			Text:        text,
			Translation: s.sanitize.clean(p.translation),
		})
		if errors.Is(err, domain.ErrSentenceExists) {
			res.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", lang.Code, err)
		}
		res.Inserted++
	}

	s.logger.Info().
		Str("code", lang.Code).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Msg("sentences imported")
	return res, nil
}
