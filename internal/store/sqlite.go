package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"featurescout/internal/store/migrations"
)

// SQLiteConfig drives SQLiteKV construction.
type SQLiteConfig struct {
	Path          string
	ReadCacheSize int
}

// SQLiteKV is a durable key-value store with an LRU read-through cache.
type SQLiteKV struct {
	db     *sql.DB
	cache  *lru.Cache[string, string]
	logger *zap.Logger
}

// NewSQLiteKV opens the database and applies migrations.
func NewSQLiteKV(cfg SQLiteConfig, logger *zap.Logger) (*SQLiteKV, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}
	if cfg.ReadCacheSize <= 0 {
		cfg.ReadCacheSize = 64
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite DB: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := migrations.Run(db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	cache, err := lru.New[string, string](cfg.ReadCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create read cache: %w", err)
	}

	logger.Info("Opened key-value store", zap.String("path", cfg.Path))

	return &SQLiteKV{db: db, cache: cache, logger: logger}, nil
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	if value, ok := s.cache.Get(key); ok {
		return value, true, nil
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %q: %w", key, err)
	}

	s.cache.Add(key, value)
	return value, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		s.cache.Remove(key)
		return fmt.Errorf("write %q: %w", key, err)
	}

	s.cache.Add(key, value)
	return nil
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	s.cache.Remove(key)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteKV) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteKV) Close() error {
	s.cache.Purge()
	return s.db.Close()
}
