package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lugayetu/collector/internal/api/metrics"
	"github.com/lugayetu/collector/internal/core/domain"
	"github.com/lugayetu/collector/internal/core/ports"
)

// RecordingHandler serves sentence assignment, audio upload and playback.
type RecordingHandler struct {
	recordings ports.RecordingService
	languages  ports.LanguageService
	logger     zerolog.Logger
}

func NewRecordingHandler(recordings ports.RecordingService, languages ports.LanguageService, logger zerolog.Logger) *RecordingHandler {
	return &RecordingHandler{recordings: recordings, languages: languages, logger: logger}
}

type nextSentenceResponse struct {
	Sentence *ports.Assignment `json:"sentence"`
}

type recordPageResponse struct {
	Sentence   *ports.Assignment  `json:"sentence"`
	LanguageID int64              `json:"language_id,omitempty"`
	Languages  []*domain.Language `json:"languages"`
}

// Languages handles GET /api/languages.
func (h *RecordingHandler) Languages(c echo.Context) error {
	langs, err := h.languages.List(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", map[string]any{"languages": langs})
}

// NextSentence handles GET /api/sentences/next?language_id=.
func (h *RecordingHandler) NextSentence(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	languageID, err := optionalID("language_id", c.QueryParam("language_id"))
	if err != nil {
		return err
	}

	a, err := h.recordings.NextSentence(c.Request().Context(), p.ID(), languageID)
	if err != nil {
		return err
	}
	if a == nil {
		return respond(c, http.StatusOK, "no sentence left to record", nextSentenceResponse{})
	}
	return respond(c, http.StatusOK, "", nextSentenceResponse{Sentence: a})
}

// Record handles GET /record?language_id=, the recording page: the language
// picker plus the next sentence.
func (h *RecordingHandler) Record(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	languageID, err := optionalID("language_id", c.QueryParam("language_id"))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	langs, err := h.languages.List(ctx)
	if err != nil {
		return err
	}
	a, err := h.recordings.NextSentence(ctx, p.ID(), languageID)
	if err != nil {
		return err
	}

	msg := ""
	if a == nil {
		msg = "no sentence left to record"
	}
	return respond(c, http.StatusOK, msg, recordPageResponse{Sentence: a, LanguageID: languageID, Languages: langs})
}

// Submit handles POST /api/recordings and POST /save_recording
// (multipart: audio, sentence_id, duration).
func (h *RecordingHandler) Submit(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	sentenceID, err := optionalID("sentence_id", c.FormValue("sentence_id"))
	if err != nil {
		return err
	}
	if sentenceID == 0 {
		return domain.NewValidationError("sentence_id", "sentence_id is required")
	}
	duration, err := parseDuration(c.FormValue("duration"))
	if err != nil {
		return err
	}

	in := ports.SubmitInput{UserID: p.ID(), SentenceID: sentenceID, Duration: duration}

	fh, err := c.FormFile("audio")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return domain.NewValidationError("audio", "invalid multipart upload")
	default:
		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()
		in.Filename = fh.Filename
		in.ContentType = fh.Header.Get(echo.HeaderContentType)
		in.Audio = f
	}

	res, err := h.recordings.Submit(c.Request().Context(), in)
	if err != nil {
		return err
	}
	metrics.RecordingsIngestedTotal.WithLabelValues(res.Extension).Inc()

	return respond(c, http.StatusCreated, "recording saved", submitResponse{Recording: res})
}

type submitResponse struct {
	Recording *ports.SubmitResult `json:"recording"`
}

// Audio handles GET /api/recordings/:id/audio.
func (h *RecordingHandler) Audio(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	f, err := h.recordings.OpenAudio(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return streamAudio(c, f)
}

// AudioByName handles GET /audio/:filename.
func (h *RecordingHandler) AudioByName(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	f, err := h.recordings.OpenAudioByName(c.Request().Context(), p, c.Param("filename"))
	if err != nil {
		return err
	}
	return streamAudio(c, f)
}

func streamAudio(c echo.Context, f *ports.AudioFile) error {
	defer f.Body.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", f.Name))
	return c.Stream(http.StatusOK, f.ContentType, f.Body)
}

// parseDuration reads the client-measured length in seconds; absent means 0.
func parseDuration(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, domain.NewValidationError("duration", "duration must be a number")
	}
	return d, nil
}
