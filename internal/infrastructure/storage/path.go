// Package storage implements the audio blob and seed file stores.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/lugayetu/collector/internal/core/domain"
)

// resolve joins name onto root and refuses anything that lands outside root
// or on root itself.
func resolve(root, name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", domain.ErrUnsafePath
	}
	full := filepath.Join(root, name)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.ErrUnsafePath
	}
	return full, nil
}

// flatName accepts only a single path element, as used for object keys.
func flatName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") || strings.ContainsRune(name, 0) {
		return domain.ErrUnsafePath
	}
	return nil
}
