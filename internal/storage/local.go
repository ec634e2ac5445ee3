// Package storage keeps uploaded payment receipts.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/google/uuid"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// LocalStore writes receipts under a root directory, partitioned by
// month. Returned paths are relative to the root and use forward slashes.
type LocalStore struct {
	root string
	now  func() time.Time
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create receipt dir: %w", err)
	}
	return &LocalStore{root: root, now: time.Now}, nil
}

func (s *LocalStore) Store(ctx context.Context, receipt domain.Receipt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext, ok := extensions[receipt.ContentType]
	if !ok {
		ext = strings.ToLower(filepath.Ext(receipt.Name))
	}
	rel := path.Join("receipts", s.now().UTC().Format("2006/01"), uuid.NewString()+ext)

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create receipt: %w", err)
	}
	if _, err := io.Copy(f, receipt.Body); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write receipt: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close receipt: %w", err)
	}
	return rel, nil
}

// Delete removes a stored receipt. A missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) Open(rel string) (*os.File, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (s *LocalStore) resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" || strings.Contains(rel, "..") {
		return "", fmt.Errorf("invalid receipt path %q", rel)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
