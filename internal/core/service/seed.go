package service

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/lugayetu/collector/internal/core/domain"
)

type seedPair struct {
	text        string
	translation string
}

// readSeedLines returns the trimmed, non-blank lines of r.
func readSeedLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var lines []string
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return lines, nil
}

// pairSeedFiles zips the sentence file with its translation file line by
// line. Files of different lengths are rejected rather than truncated.
func pairSeedFiles(sentences, translations io.Reader) ([]seedPair, error) {
	texts, err := readSeedLines(sentences)
	if err != nil {
		return nil, err
	}
	trans, err := readSeedLines(translations)
	if err != nil {
		return nil, err
	}
	if len(texts) != len(trans) {
		return nil, fmt.Errorf("%w: %d sentences, %d translations", domain.ErrSeedMismatch, len(texts), len(trans))
	}

	pairs := make([]seedPair, len(texts))
	for i := range texts {
		pairs[i] = seedPair{text: texts[i], translation: trans[i]}
	}
	return pairs, nil
}

// parseSeedRecords reads one text<TAB>translation record per line.
func parseSeedRecords(r io.Reader) ([]seedPair, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var pairs []seedPair
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewValidationError("records", fmt.Sprintf("malformed records file: %v", err))
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < 2 {
			line, _ := cr.FieldPos(0)
			return nil, domain.NewValidationError("records", fmt.Sprintf("line %d: expected text and translation separated by a tab", line))
		}
		text := strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff"))
		if text == "" {
			continue
		}
		pairs = append(pairs, seedPair{text: text, translation: strings.TrimSpace(rec[1])})
	}
	return pairs, nil
}

// sanitizer strips any markup from imported text.
type sanitizer struct {
	policy *bluemonday.Policy
}

func newSanitizer() *sanitizer {
	return &sanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *sanitizer) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}
