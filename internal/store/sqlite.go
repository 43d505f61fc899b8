package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS objects (
		key TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		data BLOB NOT NULL,
		created_at REAL NOT NULL
	);
`

var _ ObjectStore = (*SQLiteStore)(nil)

// SQLiteStore keeps objects as blobs in a single table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" gives a
// private in-process database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps :memory: databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if data == nil {
		data = []byte{}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO objects (key, content_type, size, data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			content_type = excluded.content_type,
			size = excluded.size,
			data = excluded.data,
			created_at = excluded.created_at
	`, key, contentType, len(data), data, unixFromTime(time.Now()))
	if err != nil {
		return "", fmt.Errorf("insert object: %w", err)
	}

	log.Info().
		Str("key", key).
		Int("size", len(data)).
		Msg("Stored object")

	return "sqlite://" + key, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Object{}, err
	}

	var (
		obj       Object
		createdAt float64
	)
	err = s.db.QueryRowContext(ctx, `
		SELECT key, content_type, size, data, created_at
		FROM objects
		WHERE key = ?
	`, key).Scan(&obj.Key, &obj.ContentType, &obj.Size, &obj.Data, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Object{}, fmt.Errorf("query object: %w", err)
	}
	obj.CreatedAt = timeFromUnix(createdAt)
	return obj, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
