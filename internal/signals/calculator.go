package signals

import (
	"context"

	"github.com/wonny/finscore/internal/contracts"
)

// Calculator scores one category from the shared bundle.
// Implementations must treat the bundle as read-only.
type Calculator interface {
	Category() contracts.Category
	Calculate(ctx context.Context, bundle *contracts.RawMetricsBundle) (Output, error)
}

// Output is one calculator's result
type Output struct {
	Score contracts.CategoryScore
	// category-specific detail: *contracts.RiskResult, *contracts.ValuationResult, ...
	Detail   interface{}
	Warnings []string
}

// warnings accumulates computation warnings for one calculator run
type warnings []string

func (w *warnings) add(msg string) {
	*w = append(*w, msg)
}

func (w warnings) list() []string {
	if len(w) == 0 {
		return nil
	}
	return []string(w)
}
