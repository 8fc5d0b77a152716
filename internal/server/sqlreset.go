package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xkilldash9x/passbolt-e2e/internal/config"
)

// Resetter restores the database to a known dataset.
type Resetter interface {
	Reset(ctx context.Context, dataset string) error
}

// DBPool is the subset of pgxpool.Pool the SQL reset needs, so tests can use pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SQLResetter replays a SQL dump in one transaction.
type SQLResetter struct {
	pool   DBPool
	fs     afero.Fs
	file   string
	logger *zap.Logger
}

// NewSQLResetter verifies the connection and returns a resetter running file.
func NewSQLResetter(ctx context.Context, pool DBPool, fs afero.Fs, file string, logger *zap.Logger) (*SQLResetter, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLResetter{pool: pool, fs: fs, file: file, logger: logger.Named("sqlreset")}, nil
}

// Reset runs the configured SQL file. The dataset name is only logged; the file
// decides what gets loaded.
func (r *SQLResetter) Reset(ctx context.Context, dataset string) error {
	script, err := afero.ReadFile(r.fs, r.file)
	if err != nil {
		return fmt.Errorf("failed to read reset script %s: %w", r.file, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.Exec(ctx, string(script)); err != nil {
		r.rollback(ctx, tx)
		return fmt.Errorf("failed to run reset script %s: %w", r.file, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	r.logger.Info("Database reset", zap.String("dataset", dataset), zap.String("strategy", "sql"), zap.String("file", r.file))
	return nil
}

func (r *SQLResetter) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.Error("Failed to rollback reset transaction", zap.Error(err))
	}
}

// NewResetter picks the strategy named in cfg. The returned close function
// releases any pool it opened.
func NewResetter(ctx context.Context, cfg config.ServerConfig, client *Client, fs afero.Fs, logger *zap.Logger) (Resetter, func(), error) {
	switch cfg.Reset.Strategy {
	case config.ResetSQL:
		pool, err := pgxpool.New(ctx, cfg.Reset.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open reset database: %w", err)
		}
		r, err := NewSQLResetter(ctx, pool, fs, cfg.Reset.SQLFile, logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return r, pool.Close, nil
	case config.ResetHTTP, "":
		return client, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown reset strategy %q", cfg.Reset.Strategy)
	}
}
