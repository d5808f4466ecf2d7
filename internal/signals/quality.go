package signals

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

// Red flag tags
const (
	FlagHighAccruals      = "high accruals"
	FlagCashBelowEarnings = "cash flow below earnings for 2+ periods"
	FlagNegativeCashFlow  = "negative operating cash flow"
	FlagLowCashConversion = "low cash flow relative to earnings"
	FlagLowROA            = "low return on assets"
	FlagHighDebtToEquity  = "very high debt-to-equity ratio"
)

const (
	maxVolatilityPenalty    = 30.0
	minPeriodsForVolatility = 3
)

// QualityCalculator calculates earnings quality
// ⭐ SSOT: 이익의 질 / 발생액 계산은 여기서만
type QualityCalculator struct {
	params     strategyconfig.Quality
	normalizer *Normalizer
	logger     *logger.Logger
}

// NewQualityCalculator creates a new quality calculator
func NewQualityCalculator(cfg *strategyconfig.Config, log *logger.Logger) *QualityCalculator {
	return &QualityCalculator{
		params:     cfg.Quality,
		normalizer: NewNormalizer(contracts.CategoryQuality, cfg.Rules(contracts.CategoryQuality)),
		logger:     log,
	}
}

// Category implements Calculator
func (c *QualityCalculator) Category() contracts.Category {
	return contracts.CategoryQuality
}

// Calculate scores cash conversion and accruals. Red flags are advisory
// and do not feed the score.
func (c *QualityCalculator) Calculate(ctx context.Context, b *contracts.RawMetricsBundle) (Output, error) {
	var warn warnings
	res := &contracts.QualityResult{}

	cur, _ := b.Current()

	if ni, ok := cur.NetIncome.Get(); ok && cur.OperatingCashFlow.IsKnown() {
		if ni > 0 {
			res.CashConversion = contracts.Ratio(cur.OperatingCashFlow, cur.NetIncome)
		} else {
			warn.add("Cash conversion undefined for non-positive net income")
		}
	}
	res.AccrualsRatio = contracts.Ratio(contracts.Sub(cur.NetIncome, cur.OperatingCashFlow), cur.TotalAssets)

	// 구성요소 점수 (가용한 것만 가중 평균)
	var sum, weight float64
	if conv, ok := res.CashConversion.Get(); ok {
		s := CashConversionScore(conv) - c.volatilityPenalty(b.Statements)
		sum += clamp(s, 0, 100) * c.params.CashConversionWeight
		weight += c.params.CashConversionWeight
	}
	if acc, ok := res.AccrualsRatio.Get(); ok {
		sum += AccrualsScore(acc) * c.params.AccrualsWeight
		weight += c.params.AccrualsWeight
	}
	if weight > 0 {
		res.EarningsQualityScore = contracts.Known(clamp(sum/weight, 0, 100))
	}

	roa := b.Fundamentals.ROA
	if !roa.IsKnown() {
		roa = contracts.Ratio(cur.NetIncome, cur.TotalAssets).Map(func(v float64) float64 { return v * 100 })
	}

	res.RedFlags = c.redFlags(b, res, roa)

	score := c.normalizer.Score(map[string]contracts.Float{
		strategyconfig.MetricEarningsQuality: res.EarningsQualityScore,
		strategyconfig.MetricAccrualsRatio:   res.AccrualsRatio,
		strategyconfig.MetricROA:             roa,
	})

	c.logger.WithFields(map[string]interface{}{
		"symbol":    b.Symbol,
		"eq_score":  res.EarningsQualityScore.String(),
		"accruals":  res.AccrualsRatio.String(),
		"red_flags": len(res.RedFlags),
	}).Debug("Calculated quality score")

	return Output{Score: score, Detail: res, Warnings: warn.list()}, nil
}

// CashConversionScore maps OCF/NI to 0..100:
// <0 → 0, 0 → 20, 0.8 → 60, 1.0 → 85, >=1.2 → 100
func CashConversionScore(ratio float64) float64 {
	switch {
	case ratio < 0:
		return 0
	case ratio < 0.8:
		return 20 + ratio/0.8*40
	case ratio < 1.0:
		return 60 + (ratio-0.8)/0.2*25
	case ratio < 1.2:
		return 85 + (ratio-1.0)/0.2*15
	default:
		return 100
	}
}

// AccrualsScore maps the accruals ratio to 0..100:
// -0.05 → 100, 0 → 75, 0.05 → 50, 0.10 → 25, 0.15 → 0
func AccrualsScore(ratio float64) float64 {
	return clamp(75-500*ratio, 0, 100)
}

// volatilityPenalty penalizes an unstable OCF/NI ratio across periods
func (c *QualityCalculator) volatilityPenalty(statements []contracts.FinancialStatement) float64 {
	var ratios []float64
	for _, s := range statements {
		ni, ok := s.NetIncome.Get()
		if !ok || ni <= 0 {
			continue
		}
		if r, ok := contracts.Ratio(s.OperatingCashFlow, s.NetIncome).Get(); ok {
			ratios = append(ratios, r)
		}
	}
	if len(ratios) < minPeriodsForVolatility {
		return 0
	}

	thr := c.params.VolatileRatioStdDev
	sd := stat.StdDev(ratios, nil)
	if sd <= thr {
		return 0
	}
	return clamp(maxVolatilityPenalty*(sd-thr)/thr, 0, maxVolatilityPenalty)
}

func (c *QualityCalculator) redFlags(b *contracts.RawMetricsBundle, res *contracts.QualityResult, roa contracts.Float) []string {
	flags := map[string]struct{}{}
	add := func(f string) { flags[f] = struct{}{} }

	if v, ok := res.AccrualsRatio.Get(); ok && v > c.params.HighAccruals {
		add(FlagHighAccruals)
	}
	if v, ok := res.CashConversion.Get(); ok && v < c.params.LowCashConversion {
		add(FlagLowCashConversion)
	}
	if cur, ok := b.Current(); ok {
		if v, ok := cur.OperatingCashFlow.Get(); ok && v < 0 {
			add(FlagNegativeCashFlow)
		}
	}

	// 최근부터 연속으로 영업현금흐름 < 순이익
	streak := 0
	for _, s := range b.Statements {
		ocf, ok1 := s.OperatingCashFlow.Get()
		ni, ok2 := s.NetIncome.Get()
		if !ok1 || !ok2 || ocf >= ni {
			break
		}
		streak++
	}
	if streak >= 2 {
		add(FlagCashBelowEarnings)
	}

	if v, ok := roa.Get(); ok && v < c.params.LowROA {
		add(FlagLowROA)
	}
	if v, ok := b.Fundamentals.DebtToEquity.Get(); ok && v > c.params.HighDebtToEquity {
		add(FlagHighDebtToEquity)
	}

	if len(flags) == 0 {
		return nil
	}
	out := make([]string, 0, len(flags))
	for f := range flags {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
