package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const metaSuffix = ".meta.json"

var _ ObjectStore = (*FileStore)(nil)

// FileStore writes objects under <baseDir>/objects with a JSON metadata
// sidecar next to each one.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	objectsDir := filepath.Join(baseDir, "objects")
	if err := os.MkdirAll(objectsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create objects directory: %w", err)
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store directory: %w", err)
	}

	return &FileStore{
		baseDir: abs,
	}, nil
}

func (s *FileStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(key, metaSuffix) {
		return "", fmt.Errorf("invalid object key %q: reserved suffix", key)
	}

	p := s.objectPath(key)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write object file: %w", err)
	}

	meta, err := json.Marshal(Object{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode object metadata: %w", err)
	}
	if err := os.WriteFile(p+metaSuffix, meta, 0644); err != nil {
		os.Remove(p)
		return "", fmt.Errorf("failed to write object metadata: %w", err)
	}

	log.Info().
		Str("key", key).
		Str("file", p).
		Int("size", len(data)).
		Msg("Stored object")

	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String(), nil
}

func (s *FileStore) Get(ctx context.Context, key string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	key, err := cleanKey(key)
	if err != nil {
		return Object{}, err
	}

	p := s.objectPath(key)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Object{}, fmt.Errorf("failed to read object file: %w", err)
	}

	obj := Object{Key: key, Size: int64(len(data))}
	if raw, err := os.ReadFile(p + metaSuffix); err == nil {
		if err := json.Unmarshal(raw, &obj); err != nil {
			return Object{}, fmt.Errorf("failed to decode object metadata: %w", err)
		}
	}
	obj.Data = data
	return obj, nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	p := s.objectPath(key)
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to delete object file: %w", err)
	}
	if err := os.Remove(p + metaSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object metadata: %w", err)
	}

	log.Debug().Str("key", key).Msg("Deleted object")
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) objectPath(key string) string {
	return filepath.Join(s.baseDir, "objects", filepath.FromSlash(key))
}
