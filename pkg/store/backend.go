package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bloomwell/bloom/pkg/memory"
	"github.com/bloomwell/bloom/pkg/model"
	"github.com/bloomwell/bloom/pkg/store/redis"
	"github.com/bloomwell/bloom/pkg/store/sqlite"
)

// Backend names accepted by OpenBackend.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// BackendConfig selects and configures a persistence backend.
type BackendConfig struct {
	Kind        string
	SQLitePath  string
	RedisAddr   string
	RedisPass   string
	RedisDB     int
	RedisPrefix string
	Logger      *slog.Logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenBackend opens the configured backend. The returned closer releases it.
func OpenBackend(ctx context.Context, cfg BackendConfig) (model.KeyValueStore, io.Closer, error) {
	switch cfg.Kind {
	case "", BackendSQLite:
		db, err := sqlite.New(ctx, sqlite.Config{Path: cfg.SQLitePath, Logger: cfg.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return db, db, nil
	case BackendRedis:
		s, err := redis.New(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			Logger:   cfg.Logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis backend: %w", err)
		}
		return s, s, nil
	case BackendMemory:
		return memory.NewKV(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Kind)
	}
}
