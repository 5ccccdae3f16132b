// Package postgres provides a Postgres-backed paper record store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/paper-harvester/internal/clock/system"
	"github.com/JakeFAU/paper-harvester/internal/crawler"
	"github.com/JakeFAU/paper-harvester/internal/paper"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "papers"

// Config controls the Postgres connection pool used for paper rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// PaperStore upserts harvested records keyed on their detail location.
type PaperStore struct {
	pool   pool
	table  string
	runID  string
	clock  crawler.Clock
	logger *zap.Logger
}

// Option customizes a PaperStore.
type Option func(*PaperStore)

// WithRunID tags every written row with the harvest run.
func WithRunID(id string) Option {
	return func(s *PaperStore) {
		s.runID = id
	}
}

// WithClock overrides the time source for harvested_at.
func WithClock(c crawler.Clock) Option {
	return func(s *PaperStore) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *PaperStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewPaperStore connects a pool using cfg.
func NewPaperStore(ctx context.Context, cfg Config, opts ...Option) (*PaperStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewPaperStoreWithPool(p, cfg.Table, opts...)
	if err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewPaperStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewPaperStoreWithPool(p pool, table string, opts ...Option) (*PaperStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	s := &PaperStore{pool: p, table: table, clock: system.New(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying pool resources.
func (s *PaperStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the paper table when it does not exist.
func (s *PaperStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	detail_url   TEXT PRIMARY KEY,
	period       INTEGER NOT NULL,
	title        TEXT NOT NULL,
	authors      JSONB NOT NULL DEFAULT '[]',
	affiliations JSONB NOT NULL DEFAULT '[]',
	abstract     TEXT NOT NULL DEFAULT '',
	pdf_url      TEXT NOT NULL DEFAULT '',
	slides_url   TEXT NOT NULL DEFAULT '',
	video_url    TEXT NOT NULL DEFAULT '',
	code_url     TEXT NOT NULL DEFAULT '',
	run_id       TEXT NOT NULL DEFAULT '',
	harvested_at TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s table: %w", s.table, err)
	}
	return nil
}

// SavePeriod upserts every record of pc in one transaction.
func (s *PaperStore) SavePeriod(ctx context.Context, pc paper.PeriodCollection) (err error) {
	if s == nil || s.pool == nil {
		return fmt.Errorf("paper store is not configured")
	}
	if len(pc.Records) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin period %d: %w", pc.Period, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Warn("rollback failed", zap.Int("period", pc.Period), zap.Error(rbErr))
			}
		}
	}()

	query := fmt.Sprintf(`
INSERT INTO %s (
	detail_url,
	period,
	title,
	authors,
	affiliations,
	abstract,
	pdf_url,
	slides_url,
	video_url,
	code_url,
	run_id,
	harvested_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)
ON CONFLICT (detail_url) DO UPDATE SET
	period = EXCLUDED.period,
	title = EXCLUDED.title,
	authors = EXCLUDED.authors,
	affiliations = EXCLUDED.affiliations,
	abstract = EXCLUDED.abstract,
	pdf_url = EXCLUDED.pdf_url,
	slides_url = EXCLUDED.slides_url,
	video_url = EXCLUDED.video_url,
	code_url = EXCLUDED.code_url,
	run_id = EXCLUDED.run_id,
	harvested_at = EXCLUDED.harvested_at`, s.table)

	now := s.clock.Now()
	for _, rec := range pc.Records {
		args, argErr := rowArgs(rec, pc.Period, s.runID, now)
		if argErr != nil {
			return argErr
		}
		if _, err = tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert %s: %w", rec.DetailURL, err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit period %d: %w", pc.Period, err)
	}
	s.logger.Info("period stored", zap.Int("period", pc.Period), zap.Int("records", len(pc.Records)))
	return nil
}

func rowArgs(rec paper.Record, period int, runID string, at time.Time) ([]any, error) {
	authors, err := json.Marshal(nonNil(rec.Authors))
	if err != nil {
		return nil, fmt.Errorf("marshal authors: %w", err)
	}
	affiliations, err := json.Marshal(nonNil(rec.Affiliations))
	if err != nil {
		return nil, fmt.Errorf("marshal affiliations: %w", err)
	}
	return []any{
		rec.DetailURL,
		period,
		rec.Title,
		authors,
		affiliations,
		rec.Abstract,
		rec.PDF,
		rec.Slides,
		rec.Video,
		rec.Code,
		runID,
		at,
	}, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
