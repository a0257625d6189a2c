package analyze

import (
	"github.com/gyeh/billcheck/internal/engine"
	"github.com/gyeh/billcheck/internal/model"
	"github.com/gyeh/billcheck/internal/validate"
)

// Estimate runs the engine, applies the safety ceiling and re-asserts every
// invariant on the clamped result.
func Estimate(e *engine.Engine, ceiling float64, in engine.Input) (*model.SavingsTotals, error) {
	t, err := e.Estimate(in)
	if err != nil {
		return nil, err
	}
	validate.SafetyClamp(t, ceiling)
	if err := validate.Assert(t); err != nil {
		return nil, err
	}
	return t, nil
}
