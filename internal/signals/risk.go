package signals

import (
	"context"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/risk"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

// RiskCalculator scores return-series risk metrics
type RiskCalculator struct {
	engine     *risk.Engine
	normalizer *Normalizer
	logger     *logger.Logger
}

// NewRiskCalculator creates a new risk calculator
func NewRiskCalculator(cfg *strategyconfig.Config, log *logger.Logger) *RiskCalculator {
	params := risk.Params{
		MinSamples:     cfg.Risk.MinSamplePeriods,
		RiskFreeRate:   cfg.Risk.RiskFreeRate,
		PeriodsPerYear: cfg.Risk.TradingDaysPerYear,
		VaRConfidence:  cfg.Risk.VaRConfidence,
	}
	return &RiskCalculator{
		engine:     risk.NewEngine(params),
		normalizer: NewNormalizer(contracts.CategoryRisk, cfg.Rules(contracts.CategoryRisk)),
		logger:     log,
	}
}

// Category implements Calculator
func (c *RiskCalculator) Category() contracts.Category {
	return contracts.CategoryRisk
}

// Calculate computes beta, Sharpe, drawdown, volatility and VaR
func (c *RiskCalculator) Calculate(ctx context.Context, b *contracts.RawMetricsBundle) (Output, error) {
	res, warn := c.engine.Analyze(b.Prices, b.BenchmarkPrices)

	score := c.normalizer.Score(map[string]contracts.Float{
		strategyconfig.MetricSharpe:      res.Sharpe,
		strategyconfig.MetricMaxDrawdown: res.MaxDrawdown,
		strategyconfig.MetricVol90D:      res.Vol90D,
		strategyconfig.MetricVaR95:       res.VaR95,
		strategyconfig.MetricBeta:        res.Beta,
	})

	c.logger.WithFields(map[string]interface{}{
		"symbol":  b.Symbol,
		"samples": res.Samples,
		"beta":    res.Beta.String(),
		"sharpe":  res.Sharpe.String(),
		"mdd":     res.MaxDrawdown.String(),
	}).Debug("Calculated risk score")

	return Output{Score: score, Detail: &res, Warnings: warn}, nil
}
