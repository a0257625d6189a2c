package analyze

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/billcheck/internal/cache"
	"github.com/gyeh/billcheck/internal/model"
)

// Cache outcomes recorded in the summary.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeBypass   = "bypass"
	OutcomeDisabled = "disabled"
)

// PreflightResult holds what the preflight phase resolved.
type PreflightResult struct {
	// ContentHash identifies the file independent of versions.
	ContentHash string
	// CacheKey is the versioned key the result is stored under.
	CacheKey   string
	Outcome    string
	MissReason string
	// Hit is the served result when Outcome is OutcomeHit.
	Hit        *model.SavingsTotals
	AnalysisID string
}

// Preflight hashes the upload and consults the cache. Cache quality
// problems become misses; only a failed bypass purge is an error.
func Preflight(ctx context.Context, layer *cache.Layer, log zerolog.Logger, req *Request) (*PreflightResult, error) {
	start := time.Now()
	if len(req.Raw) == 0 {
		return nil, fmt.Errorf("empty upload")
	}

	pf := &PreflightResult{
		ContentHash: cache.ContentHash(req.Raw),
		CacheKey:    cache.Key(req.Raw, layer.Versions()),
	}

	switch {
	case !layer.Enabled():
		pf.Outcome = OutcomeDisabled
	default:
		d, err := layer.Get(ctx, req.Raw, req.Bypass)
		if err != nil {
			return nil, err
		}
		switch {
		case d.Hit:
			pf.Outcome = OutcomeHit
			pf.Hit = d.Totals
			pf.AnalysisID = d.Entry.AnalysisID.String()
		case req.Bypass:
			pf.Outcome = OutcomeBypass
		default:
			pf.Outcome, pf.MissReason = OutcomeMiss, d.Reason
		}
	}

	log.Info().
		Str("file", req.FilePath).
		Str("content_hash", pf.ContentHash).
		Str("cache", pf.Outcome).
		Str("reason", pf.MissReason).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")
	return pf, nil
}
