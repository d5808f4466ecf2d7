package signals

import (
	"context"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

// FundamentalCalculator scores accounting ratios
// ⭐ SSOT: 재무비율 점수 계산은 여기서만
type FundamentalCalculator struct {
	normalizer *Normalizer
	logger     *logger.Logger
}

// NewFundamentalCalculator creates a new fundamental calculator
func NewFundamentalCalculator(cfg *strategyconfig.Config, log *logger.Logger) *FundamentalCalculator {
	return &FundamentalCalculator{
		normalizer: NewNormalizer(contracts.CategoryFundamental, cfg.Rules(contracts.CategoryFundamental)),
		logger:     log,
	}
}

// Category implements Calculator
func (c *FundamentalCalculator) Category() contracts.Category {
	return contracts.CategoryFundamental
}

// Calculate scores the fundamental ratios of a bundle
func (c *FundamentalCalculator) Calculate(ctx context.Context, b *contracts.RawMetricsBundle) (Output, error) {
	var warn warnings
	f := b.Fundamentals

	// 음수 이익이면 P/E 정의 불가
	pe := f.PERatio
	if v, ok := pe.Get(); ok && v <= 0 {
		warn.add("P/E ratio undefined for non-positive earnings")
		pe = contracts.Unknown()
	}
	pb := f.PBRatio
	if v, ok := pb.Get(); ok && v <= 0 {
		warn.add("P/B ratio undefined for non-positive book value")
		pb = contracts.Unknown()
	}

	score := c.normalizer.Score(map[string]contracts.Float{
		strategyconfig.MetricPERatio:       pe,
		strategyconfig.MetricROE:           f.ROE,
		strategyconfig.MetricDebtToEquity:  f.DebtToEquity,
		strategyconfig.MetricRevenueGrowth: f.RevenueGrowth,
		strategyconfig.MetricProfitMargin:  f.ProfitMargin,
		strategyconfig.MetricCurrentRatio:  f.CurrentRatio,
		strategyconfig.MetricPBRatio:       pb,
	})

	c.logger.WithFields(map[string]interface{}{
		"symbol":   b.Symbol,
		"score":    score.Score.String(),
		"coverage": score.Coverage,
	}).Debug("Calculated fundamental score")

	return Output{Score: score, Warnings: warn.list()}, nil
}
