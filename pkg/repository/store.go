package repository

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/umputun/newsfeed/pkg/domain"
)

//go:embed schema.sql
var schemaSQL string

// StoreConfig represents database configuration
type StoreConfig struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Store keeps the last fetched news in SQLite
type Store struct {
	db *sqlx.DB
}

// NewStore opens the database and creates the schema if needed
func NewStore(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if cfg.DSN == "" {
		cfg.DSN = "file:newsfeed.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the batch in a single transaction, retrying on lock errors
func (s *Store) Save(ctx context.Context, batch domain.Batch) error {
	if len(batch) == 0 {
		return nil
	}

	query := `
		INSERT INTO news (id, title, description, image_url, url, published, fetched_at)
		VALUES (:id, :title, :description, :image_url, :url, :published, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			image_url = excluded.image_url,
			url = excluded.url,
			published = excluded.published,
			fetched_at = CURRENT_TIMESTAMP
	`

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return retryable(fmt.Errorf("begin transaction: %w", err))
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		for _, n := range batch {
			n.Published = n.Published.UTC()
			if _, err := tx.NamedExecContext(ctx, query, n); err != nil {
				return retryable(fmt.Errorf("upsert news %d: %w", n.ID, err))
			}
		}
		return retryable(tx.Commit())
	}, errCritical)
	if err != nil {
		return fmt.Errorf("save news: %w", err)
	}

	lgr.Printf("[DEBUG] saved %d news", len(batch))
	return nil
}

// List returns up to limit news, newest first. Non-positive limit returns everything.
func (s *Store) List(ctx context.Context, limit int) (domain.Batch, error) {
	query := `SELECT id, title, description, image_url, url, published FROM news ORDER BY published DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var res domain.Batch
	if err := s.db.SelectContext(ctx, &res, query, args...); err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	for i := range res {
		res[i].Published = res[i].Published.UTC()
	}
	return res, nil
}

// Prune keeps the newest keep records and deletes the rest
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM news WHERE id NOT IN (
			SELECT id FROM news ORDER BY published DESC, id LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune news: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune news rows affected: %w", err)
	}
	if deleted > 0 {
		lgr.Printf("[DEBUG] pruned %d old news", deleted)
	}
	return deleted, nil
}
