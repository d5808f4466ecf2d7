package signals

import (
	"context"
	"fmt"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

// MomentumCalculator calculates multi-window price momentum
type MomentumCalculator struct {
	windows    strategyconfig.MomentumWindows
	normalizer *Normalizer
	logger     *logger.Logger
}

// NewMomentumCalculator creates a new momentum calculator
func NewMomentumCalculator(cfg *strategyconfig.Config, log *logger.Logger) *MomentumCalculator {
	return &MomentumCalculator{
		windows:    cfg.Momentum.Windows,
		normalizer: NewNormalizer(contracts.CategoryMomentum, cfg.Rules(contracts.CategoryMomentum)),
		logger:     log,
	}
}

// Category implements Calculator
func (c *MomentumCalculator) Category() contracts.Category {
	return contracts.CategoryMomentum
}

// Calculate computes 1M/3M/6M returns from the close series
func (c *MomentumCalculator) Calculate(ctx context.Context, b *contracts.RawMetricsBundle) (Output, error) {
	var warn warnings
	closes := contracts.Closes(b.Prices)

	res := &contracts.MomentumResult{
		Return1M: WindowReturn(closes, c.windows.OneMonth),
		Return3M: WindowReturn(closes, c.windows.ThreeMonth),
		Return6M: WindowReturn(closes, c.windows.SixMonth),
	}

	if !res.Return6M.IsKnown() && len(closes) > 0 {
		warn.add(fmt.Sprintf("Price history too short for 6-month momentum (%d closes, need %d)",
			len(closes), c.windows.SixMonth+1))
	}

	score := c.normalizer.Score(map[string]contracts.Float{
		strategyconfig.MetricReturn1M: res.Return1M,
		strategyconfig.MetricReturn3M: res.Return3M,
		strategyconfig.MetricReturn6M: res.Return6M,
	})

	c.logger.WithFields(map[string]interface{}{
		"symbol":    b.Symbol,
		"return_1m": res.Return1M.String(),
		"return_3m": res.Return3M.String(),
		"return_6m": res.Return6M.String(),
	}).Debug("Calculated momentum score")

	return Output{Score: score, Detail: res, Warnings: warn.list()}, nil
}

// WindowReturn is the percent change from the close `window` periods
// before the newest close
func WindowReturn(closes []float64, window int) contracts.Float {
	n := len(closes)
	if window <= 0 || n <= window {
		return contracts.Unknown()
	}
	base := closes[n-1-window]
	if base <= 0 {
		return contracts.Unknown()
	}
	return contracts.Known((closes[n-1]/base - 1) * 100)
}
