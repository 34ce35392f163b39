// Package storage persists uploaded files on local disk under the directory
// served at /uploads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidFilename = errors.New("invalid filename")

type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Save writes r to <root>/<folder>/<filename> and returns the stored file
// name. Directory components in filename are dropped; an existing file with
// the same name is replaced.
func (s *LocalStore) Save(ctx context.Context, folder, filename string, r io.Reader) (string, error) {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(filename, "\\", "/")))
	if name == "/" || name == "." || name == ".." {
		return "", ErrInvalidFilename
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, filepath.Base(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return name, nil
}
