// Package store keeps uploaded source media and other pipeline artifacts
// addressable by key.
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var ErrNotFound = errors.New("object not found")

// Object is a stored blob plus its metadata.
type Object struct {
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	Data        []byte    `json:"-"`
}

// ObjectStore is the object-storage collaborator. Put returns a URL that
// identifies the stored object.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// cleanKey rejects keys that are empty or escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	cleaned := path.Clean(strings.TrimPrefix(key, "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return cleaned, nil
}

// Open builds the object store named by backend ("file" or "sqlite").
func Open(backend, dir, sqlitePath string) (ObjectStore, error) {
	switch backend {
	case "", "file":
		return NewFileStore(dir)
	case "sqlite":
		return OpenSQLite(sqlitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
