package analyze

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/billcheck/internal/model"
)

const defaultPricingWorkers = 8

// PricingSource answers per-line pricing lookups. *feeschedule.Schedule
// implements it.
type PricingSource interface {
	Lookup(ctx context.Context, line *model.BillLine) (model.BaselineSource, bool, error)
}

// EnrichResult holds the baselines resolved for a bill.
type EnrichResult struct {
	Baselines map[string]model.BaselineSource
	Priced    int
	Failures  int
	Duration  time.Duration
}

// Enrich resolves pricing for every line. Explicit baselines win; other
// lines are looked up concurrently. A failed lookup is logged and the line
// is left unpriced so the resolver falls back to its heuristic. Only
// cancellation fails the phase.
func Enrich(ctx context.Context, src PricingSource, workers int, log zerolog.Logger, lines []model.BillLine, explicit map[string]model.BaselineSource) (*EnrichResult, error) {
	start := time.Now()
	res := &EnrichResult{Baselines: make(map[string]model.BaselineSource, len(lines))}

	type lookup struct {
		src model.BaselineSource
		ok  bool
		err error
	}
	found := make([]lookup, len(lines))

	if src != nil {
		if workers <= 0 {
			workers = defaultPricingWorkers
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := range lines {
			if _, ok := explicit[lines[i].LineID]; ok {
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				b, ok, err := src.Lookup(gctx, &lines[i])
				found[i] = lookup{src: b, ok: ok, err: err}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	for i := range lines {
		id := lines[i].LineID
		if b, ok := explicit[id]; ok {
			res.Baselines[id] = b
			res.Priced++
			continue
		}
		f := found[i]
		switch {
		case f.err != nil:
			res.Failures++
			log.Warn().Err(f.err).Str("line_id", id).Msg("pricing lookup failed, using heuristic baseline")
		case f.ok:
			res.Baselines[id] = f.src
			res.Priced++
		}
	}

	res.Duration = time.Since(start)
	log.Info().
		Int("lines", len(lines)).
		Int("priced", res.Priced).
		Int("failures", res.Failures).
		Dur("duration", res.Duration).
		Msg("enrichment complete")
	return res, nil
}
