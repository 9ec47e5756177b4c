// internals/helpers/oss/media_store.go
package helper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"propertytools_backend/internals/configs"
)

// MediaStore removes stored upload files. Keys are paths relative to the
// uploads root, as kept in _wp_attached_file ("2024/05/house.jpg").
type MediaStore interface {
	Name() string
	Remove(ctx context.Context, keys []string) (removed int, err error)
}

// NewMediaStoreFromEnv prefers OSS when ALI_OSS_* is complete, then a local
// uploads directory (WP_UPLOADS_DIR), else a store that removes nothing.
func NewMediaStoreFromEnv() MediaStore {
	if s, err := NewOSSMediaStoreFromEnv(); err == nil {
		return s
	} else if !errors.Is(err, ErrOSSNotConfigured) {
		configs.Logger.Sugar().Warnf("[MEDIA-STORE] OSS init failed, falling back: %v", err)
	}
	if dir := strings.TrimSpace(configs.GetEnv("WP_UPLOADS_DIR")); dir != "" {
		return &LocalMediaStore{Root: dir}
	}
	configs.Logger.Warn("[MEDIA-STORE] no WP_UPLOADS_DIR or ALI_OSS_* set, files will be left in place")
	return NopMediaStore{}
}

// LocalMediaStore deletes files below Root on the local filesystem.
type LocalMediaStore struct {
	Root string
}

func (s *LocalMediaStore) Name() string { return "local" }

func (s *LocalMediaStore) Remove(ctx context.Context, keys []string) (int, error) {
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return 0, fmt.Errorf("uploads root: %w", err)
	}

	removed := 0
	var errs []error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		p, err := s.resolve(root, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// resolve keeps every path inside root.
func (s *LocalMediaStore) resolve(root, key string) (string, error) {
	key = strings.TrimLeft(filepath.FromSlash(strings.TrimSpace(key)), string(filepath.Separator))
	if key == "" {
		return "", fmt.Errorf("empty media key")
	}
	p := filepath.Join(root, key)
	if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", fmt.Errorf("media key %q escapes uploads root", key)
	}
	return p, nil
}

// NopMediaStore leaves files alone; rows are still deleted.
type NopMediaStore struct{}

func (NopMediaStore) Name() string { return "none" }

func (NopMediaStore) Remove(ctx context.Context, keys []string) (int, error) { return 0, nil }
