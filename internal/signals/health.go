package signals

import (
	"context"
	"fmt"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

// Altman zone boundaries
const (
	AltmanSafe     = 3.0
	AltmanDistress = 1.8
)

// HealthCalculator computes Piotroski F-Score and Altman Z-Score
// ⭐ SSOT: 재무건전성 지표 계산은 여기서만
type HealthCalculator struct {
	normalizer *Normalizer
	logger     *logger.Logger
}

// NewHealthCalculator creates a new financial health calculator
func NewHealthCalculator(cfg *strategyconfig.Config, log *logger.Logger) *HealthCalculator {
	return &HealthCalculator{
		normalizer: NewNormalizer(contracts.CategoryFinancialHealth, cfg.Rules(contracts.CategoryFinancialHealth)),
		logger:     log,
	}
}

// Category implements Calculator
func (c *HealthCalculator) Category() contracts.Category {
	return contracts.CategoryFinancialHealth
}

// Calculate scores solvency from the two newest statements
func (c *HealthCalculator) Calculate(ctx context.Context, b *contracts.RawMetricsBundle) (Output, error) {
	var warn warnings
	res := &contracts.FinancialHealthResult{Zone: contracts.ZoneUnknown}

	cur, hasCur := b.Current()
	prior, _ := b.Prior()
	if !hasCur {
		warn.add("Financial statements missing, financial health not scored")
	}

	res.Piotroski, res.PiotroskiTests, res.Passed = Piotroski(cur, prior)
	if res.PiotroskiTests > 0 {
		res.PiotroskiPct = contracts.Known(float64(res.Piotroski) / float64(res.PiotroskiTests) * 100)
	}

	marketCap := b.MarketCap
	if !marketCap.IsKnown() {
		if p, ok := b.LastPrice().Get(); ok {
			marketCap = b.Shares().Map(func(s float64) float64 { return s * p })
		}
	}

	if hasCur {
		z, partial, excluded := AltmanZ(cur, marketCap)
		for _, name := range excluded {
			warn.add(fmt.Sprintf("Altman Z-Score component %s excluded: input missing or zero denominator", name))
		}
		if len(excluded) > 0 && partial.IsKnown() {
			warn.add(fmt.Sprintf("Altman Z-Score incomplete (%d of 5 components); zone not assigned", 5-len(excluded)))
		}
		// 구간 기준은 5개 항목 전체 Z 에만 유효
		res.AltmanZ = z
		res.AltmanZPartial = partial
		res.Zone = AltmanZone(z)
	}

	res.WorkingCapital = contracts.Sub(cur.CurrentAssets, cur.CurrentLiabilities)

	debt := b.CashFlow.TotalDebt
	if !debt.IsKnown() {
		debt = cur.LongTermDebt
	}
	res.DebtCoverage = contracts.Ratio(cur.OperatingCashFlow, debt)
	if d, ok := debt.Get(); ok && d == 0 && cur.OperatingCashFlow.IsKnown() {
		warn.add("Debt coverage undefined with zero total debt")
	}

	score := c.normalizer.Score(map[string]contracts.Float{
		strategyconfig.MetricPiotroskiPct: res.PiotroskiPct,
		strategyconfig.MetricAltmanZ:      res.AltmanZ,
		strategyconfig.MetricDebtCoverage: res.DebtCoverage,
	})

	c.logger.WithFields(map[string]interface{}{
		"symbol":    b.Symbol,
		"piotroski": res.Piotroski,
		"tests":     res.PiotroskiTests,
		"altman_z":  res.AltmanZ.String(),
		"zone":      res.Zone,
	}).Debug("Calculated financial health score")

	return Output{Score: score, Detail: res, Warnings: warn.list()}, nil
}

// Piotroski runs the nine F-Score tests on current vs prior figures.
// Tests whose inputs are missing are skipped: passed counts successes,
// available counts tests that could be evaluated.
func Piotroski(cur, prior contracts.FinancialStatement) (passed, available int, names []string) {
	roaCur := contracts.Ratio(cur.NetIncome, cur.TotalAssets)
	roaPrior := contracts.Ratio(prior.NetIncome, prior.TotalAssets)

	tests := []struct {
		name string
		a, b contracts.Float // pass when a > b
	}{
		// 수익성
		{"positive_roa", roaCur, contracts.Known(0)},
		{"positive_operating_cash_flow", cur.OperatingCashFlow, contracts.Known(0)},
		{"improving_roa", roaCur, roaPrior},
		{"cash_flow_exceeds_net_income", cur.OperatingCashFlow, cur.NetIncome},
		// 레버리지/유동성 (감소가 좋은 항목은 순서를 뒤집음)
		{"lower_leverage", contracts.Ratio(prior.LongTermDebt, prior.TotalAssets), contracts.Ratio(cur.LongTermDebt, cur.TotalAssets)},
		{"higher_current_ratio", contracts.Ratio(cur.CurrentAssets, cur.CurrentLiabilities), contracts.Ratio(prior.CurrentAssets, prior.CurrentLiabilities)},
		{"no_dilution", prior.SharesOutstanding, cur.SharesOutstanding},
		// 효율성
		{"higher_gross_margin", contracts.Ratio(cur.GrossProfit, cur.Revenue), contracts.Ratio(prior.GrossProfit, prior.Revenue)},
		{"higher_asset_turnover", contracts.Ratio(cur.Revenue, cur.TotalAssets), contracts.Ratio(prior.Revenue, prior.TotalAssets)},
	}

	for _, t := range tests {
		a, ok1 := t.a.Get()
		b, ok2 := t.b.Get()
		if !ok1 || !ok2 {
			continue
		}
		available++

		pass := a > b
		if t.name == "no_dilution" {
			pass = a >= b // 주식 수 동일도 통과
		}
		if pass {
			passed++
			names = append(names, t.name)
		}
	}
	return passed, available, names
}

// AltmanZ returns the Z-Score, Known only when all five components are
// available, plus the sum of the components that were. excluded names the
// components dropped for missing inputs or a zero denominator.
func AltmanZ(s contracts.FinancialStatement, marketCap contracts.Float) (z, partial contracts.Float, excluded []string) {
	components := []struct {
		name  string
		coef  float64
		ratio contracts.Float
	}{
		{"working_capital/total_assets", 1.2, contracts.Ratio(contracts.Sub(s.CurrentAssets, s.CurrentLiabilities), s.TotalAssets)},
		{"retained_earnings/total_assets", 1.4, contracts.Ratio(s.RetainedEarnings, s.TotalAssets)},
		{"ebit/total_assets", 3.3, contracts.Ratio(s.EBIT, s.TotalAssets)},
		{"market_cap/total_liabilities", 0.6, contracts.Ratio(marketCap, s.TotalLiabilities)},
		{"sales/total_assets", 1.0, contracts.Ratio(s.Revenue, s.TotalAssets)},
	}

	sum, used := 0.0, 0
	for _, comp := range components {
		v, ok := comp.ratio.Get()
		if !ok {
			excluded = append(excluded, comp.name)
			continue
		}
		sum += comp.coef * v
		used++
	}

	switch {
	case used == 0:
		return contracts.Unknown(), contracts.Unknown(), excluded
	case len(excluded) > 0:
		return contracts.Unknown(), contracts.Known(sum), excluded
	default:
		return contracts.Known(sum), contracts.Known(sum), nil
	}
}

// AltmanZone classifies Z. The boundaries themselves are inclusive on
// the safer side: Z=3.0 is Safe, Z=1.8 is GreyZone.
func AltmanZone(z contracts.Float) contracts.Zone {
	v, ok := z.Get()
	switch {
	case !ok:
		return contracts.ZoneUnknown
	case v >= AltmanSafe:
		return contracts.ZoneSafe
	case v >= AltmanDistress:
		return contracts.ZoneGrey
	default:
		return contracts.ZoneDistress
	}
}
