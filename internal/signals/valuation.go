package signals

import (
	"context"
	"math"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

// ValuationCalculator calculates intrinsic value and multiples
// ⭐ SSOT: 가치평가 (DCF/Graham/EV 배수) 계산은 여기서만
type ValuationCalculator struct {
	dcf        strategyconfig.DCF
	normalizer *Normalizer
	logger     *logger.Logger
}

// NewValuationCalculator creates a new valuation calculator
func NewValuationCalculator(cfg *strategyconfig.Config, log *logger.Logger) *ValuationCalculator {
	return &ValuationCalculator{
		dcf:        cfg.DCF,
		normalizer: NewNormalizer(contracts.CategoryValuation, cfg.Rules(contracts.CategoryValuation)),
		logger:     log,
	}
}

// Category implements Calculator
func (c *ValuationCalculator) Category() contracts.Category {
	return contracts.CategoryValuation
}

// Calculate computes DCF, Graham number and EV multiples
func (c *ValuationCalculator) Calculate(ctx context.Context, b *contracts.RawMetricsBundle) (Output, error) {
	var warn warnings
	res := &contracts.ValuationResult{}

	price := b.LastPrice()
	shares := b.Shares()
	fcf := b.CashFlow.FreeCashFlow
	if !fcf.IsKnown() && len(b.CashFlow.FreeCashFlowHistory) > 0 {
		fcf = b.CashFlow.FreeCashFlowHistory[0]
	}
	netDebt, netDebtKnown := netDebt(b.CashFlow)

	// === DCF ===
	growth := c.growthRate(b)
	res.GrowthRateUsed = contracts.Known(growth)

	f, fcfOK := fcf.Get()
	s, sharesOK := shares.Get()
	switch {
	case !fcfOK || !sharesOK:
		warn.add("DCF unavailable: free cash flow or shares outstanding missing")
	case f <= 0:
		warn.add("DCF undefined for non-positive free cash flow")
	case s <= 0:
		warn.add("DCF undefined for non-positive shares outstanding")
	default:
		if !netDebtKnown {
			warn.add("Net debt unavailable, DCF assumes zero net debt")
		}
		res.DCFValue = contracts.Known(c.IntrinsicValue(f, growth, netDebt, s))
	}

	if v, ok := res.DCFValue.Get(); ok {
		if v > 0 {
			res.PriceToDCF = contracts.Ratio(price, res.DCFValue)
		} else {
			warn.add("DCF equity value is non-positive, price/DCF not scored")
		}
	}

	// === Graham Number ===
	eps, epsOK := b.Fundamentals.EPS.Get()
	bvps, bvpsOK := b.Fundamentals.BookValuePerShare.Get()
	if epsOK && bvpsOK {
		if eps > 0 && bvps > 0 {
			res.GrahamNumber = contracts.Known(math.Sqrt(22.5 * eps * bvps))
			res.PriceToGraham = contracts.Ratio(price, res.GrahamNumber)
		} else {
			warn.add("Graham number undefined for non-positive EPS or book value")
		}
	}

	// === P/FCF ===
	if fcfOK && sharesOK && f > 0 && s > 0 {
		res.PriceToFCF = contracts.Ratio(price, contracts.Known(f/s))
	}

	// === EV multiples ===
	marketCap := b.MarketCap
	if !marketCap.IsKnown() {
		if p, ok := price.Get(); ok && sharesOK {
			marketCap = contracts.Known(p * s)
		}
	}
	if mc, ok := marketCap.Get(); ok {
		res.EnterpriseValue = contracts.Known(mc + netDebt)

		cur, _ := b.Current()
		if sales, ok := cur.Revenue.Get(); ok {
			if sales > 0 {
				res.EVSales = contracts.Ratio(res.EnterpriseValue, cur.Revenue)
			} else {
				warn.add("EV/Sales undefined for non-positive revenue")
			}
		}
		if ebit, ok := cur.EBIT.Get(); ok {
			if ebit > 0 {
				res.EVEBIT = contracts.Ratio(res.EnterpriseValue, cur.EBIT)
			} else {
				warn.add("EV/EBIT undefined for non-positive EBIT")
			}
		}
	}

	score := c.normalizer.Score(map[string]contracts.Float{
		strategyconfig.MetricPriceToDCF:    res.PriceToDCF,
		strategyconfig.MetricPriceToGraham: res.PriceToGraham,
		strategyconfig.MetricPriceToFCF:    res.PriceToFCF,
		strategyconfig.MetricEVEBIT:        res.EVEBIT,
		strategyconfig.MetricEVSales:       res.EVSales,
	})

	c.logger.WithFields(map[string]interface{}{
		"symbol":  b.Symbol,
		"dcf":     res.DCFValue.String(),
		"graham":  res.GrahamNumber.String(),
		"growth":  growth,
		"ev_ebit": res.EVEBIT.String(),
	}).Debug("Calculated valuation score")

	return Output{Score: score, Detail: res, Warnings: warn.list()}, nil
}

// IntrinsicValue projects fcf for the horizon, adds a Gordon terminal
// value, subtracts net debt and divides by shares.
func (c *ValuationCalculator) IntrinsicValue(fcf, growth, netDebt, shares float64) float64 {
	r := c.dcf.DiscountRate
	tg := c.dcf.TerminalGrowthRate

	pv := 0.0
	projected := fcf
	discount := 1.0
	for year := 1; year <= c.dcf.HorizonYears; year++ {
		projected *= 1 + growth
		discount *= 1 + r
		pv += projected / discount
	}

	// 영구성장 모델: r > tg는 설정 검증에서 보장
	terminal := projected * (1 + tg) / (r - tg)
	pv += terminal / discount

	return (pv - netDebt) / shares
}

// growthRate picks FCF CAGR, then earnings growth, then the default,
// capped to ±growth_rate_cap
func (c *ValuationCalculator) growthRate(b *contracts.RawMetricsBundle) float64 {
	g := c.dcf.DefaultGrowthRate
	if cagr, ok := FCFGrowth(b.CashFlow.FreeCashFlowHistory).Get(); ok {
		g = cagr
	} else if eg, ok := b.Fundamentals.EarningsGrowth.Get(); ok {
		g = eg / 100
	}
	return clamp(g, -c.dcf.GrowthRateCap, c.dcf.GrowthRateCap)
}

// FCFGrowth is the CAGR between the newest and the oldest positive
// value of a newest-first history
func FCFGrowth(history []contracts.Float) contracts.Float {
	if len(history) < 2 {
		return contracts.Unknown()
	}
	newest, ok := history[0].Get()
	if !ok || newest <= 0 {
		return contracts.Unknown()
	}
	for i := len(history) - 1; i > 0; i-- {
		if oldest, ok := history[i].Get(); ok && oldest > 0 {
			return contracts.Known(math.Pow(newest/oldest, 1/float64(i)) - 1)
		}
	}
	return contracts.Unknown()
}

// netDebt returns debt - cash; missing sides count as zero
func netDebt(cf contracts.CashFlowData) (float64, bool) {
	d, okD := cf.TotalDebt.Get()
	c, okC := cf.Cash.Get()
	return d - c, okD || okC
}
