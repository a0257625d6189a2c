package analyze

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gyeh/billcheck/internal/cache"
	"github.com/gyeh/billcheck/internal/model"
)

// Persist stores a validated result. Failures are logged and reported as
// not persisted; the caller still serves the result.
func Persist(ctx context.Context, layer *cache.Layer, log zerolog.Logger, raw []byte, t *model.SavingsTotals) (string, bool) {
	if !layer.Enabled() {
		return "", false
	}
	e, err := layer.NewEntry(raw, t)
	if err != nil {
		log.Warn().Err(err).Msg("persist failed (non-fatal)")
		return "", false
	}
	if err := layer.Save(ctx, e, t.Lines); err != nil {
		log.Warn().Err(err).Str("analysis_id", e.AnalysisID.String()).Msg("persist failed (non-fatal)")
		return "", false
	}
	return e.AnalysisID.String(), true
}
