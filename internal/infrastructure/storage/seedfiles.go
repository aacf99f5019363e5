package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lugayetu/collector/internal/core/domain"
)

// SeedFiles exposes the language seed directory.
type SeedFiles struct {
	root string
}

func NewSeedFiles(root string) (*SeedFiles, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("languages dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("languages dir: %w", err)
	}
	return &SeedFiles{root: abs}, nil
}

func (s *SeedFiles) Ensure(_ context.Context, names ...string) error {
	for _, name := range names {
		path, err := resolve(s.root, name)
		if err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("create seed file %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("create seed file %s: %w", name, err)
		}
	}
	return nil
}

func (s *SeedFiles) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path, err := resolve(s.root, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrSeedFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file %s: %w", name, err)
	}
	return f, nil
}
