// Package store persists analyses in Postgres and serves them back to the
// cache layer.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/billcheck/internal/cache"
	"github.com/gyeh/billcheck/internal/db"
	"github.com/gyeh/billcheck/internal/model"
	embedsql "github.com/gyeh/billcheck/internal/sql"
)

const copyBuffer = 256

// PG is a cache.Store backed by the billcheck schema.
type PG struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// New returns a PG store over an already-migrated pool.
func New(pool *pgxpool.Pool, log zerolog.Logger) *PG {
	return &PG{pool: pool, log: log}
}

// Lookup returns the newest analysis stored under key, or cache.ErrNotFound.
func (s *PG) Lookup(ctx context.Context, key string) (*cache.Entry, error) {
	var (
		e            cache.Entry
		total, gross int64
	)
	err := s.pool.QueryRow(ctx, embedsql.LookupAnalysis, key).Scan(
		&e.AnalysisID, &e.Key, &e.ContentHash,
		&e.Versions.Engine, &e.Versions.Prompt, &e.Versions.Model, &e.Versions.Schema,
		&total, &gross, &e.Issues, &e.Result, &e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup analysis: %w", err)
	}
	e.TotalBilled, e.GrossSavings = model.Cents(total), model.Cents(gross)
	return &e, nil
}

// Save replaces every stored analysis for the entry's content hash with this
// one, in a single transaction, then COPY-loads its lines.
func (s *PG) Save(ctx context.Context, e *cache.Entry, lines []model.LineSavings) error {
	start := time.Now()
	var replaced, copied int64

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, embedsql.DeleteByContent, e.ContentHash)
		if err != nil {
			return fmt.Errorf("delete previous analyses: %w", err)
		}
		replaced = tag.RowsAffected()

		issues := e.Issues
		if issues == nil {
			issues = []float64{}
		}
		_, err = tx.Exec(ctx, embedsql.InsertAnalysis,
			e.AnalysisID, e.Key, e.ContentHash,
			e.Versions.Engine, e.Versions.Prompt, e.Versions.Model, e.Versions.Schema,
			int64(e.TotalBilled), int64(e.GrossSavings), int64(e.LikelySavings),
			e.IssueCount, e.LineCount, string(e.Color), issues, e.Result, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert analysis: %w", err)
		}

		copied, err = copyLines(ctx, tx, e, lines)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("analysis_id", e.AnalysisID.String()).
		Int64("replaced", replaced).
		Int64("lines", copied).
		Dur("duration", time.Since(start)).
		Msg("analysis saved")
	return nil
}

// copyLines streams lines into analysis_lines through a ChannelSource.
func copyLines(ctx context.Context, tx pgx.Tx, e *cache.Entry, lines []model.LineSavings) (int64, error) {
	ch := make(chan *model.LineRow, copyBuffer)
	done := make(chan struct{})

	go func() {
		defer close(ch)
		for i := range lines {
			row := &model.LineRow{AnalysisID: e.AnalysisID, Position: int32(i), Line: lines[i]}
			select {
			case ch <- row:
			case <-done:
				return
			}
		}
	}()

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"billcheck", "analysis_lines"},
		model.LineColumns(),
		db.NewChannelSource(ch),
	)
	close(done)
	if err != nil {
		return 0, fmt.Errorf("copy analysis lines: %w", err)
	}
	return n, nil
}

// PurgeContent deletes every stored analysis for a file; lines cascade.
func (s *PG) PurgeContent(ctx context.Context, contentHash string) (int64, error) {
	tag, err := s.pool.Exec(ctx, embedsql.DeleteByContent, contentHash)
	if err != nil {
		return 0, fmt.Errorf("purge analyses: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Analyze refreshes planner statistics on the billcheck tables.
func (s *PG) Analyze(ctx context.Context) error {
	start := time.Now()
	if _, err := s.pool.Exec(ctx, embedsql.AnalyzeTables); err != nil {
		return fmt.Errorf("analyze tables: %w", err)
	}
	s.log.Info().Dur("duration", time.Since(start)).Msg("analyze complete")
	return nil
}

var _ cache.Store = (*PG)(nil)
