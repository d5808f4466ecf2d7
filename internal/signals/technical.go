package signals

import (
	"context"

	"github.com/markcheno/go-talib"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

// TechnicalCalculator scores price-history indicators
// ⭐ SSOT: 기술적 지표 계산은 여기서만
type TechnicalCalculator struct {
	params     strategyconfig.Technical
	normalizer *Normalizer
	logger     *logger.Logger
}

// NewTechnicalCalculator creates a new technical calculator
func NewTechnicalCalculator(cfg *strategyconfig.Config, log *logger.Logger) *TechnicalCalculator {
	return &TechnicalCalculator{
		params:     cfg.Technical,
		normalizer: NewNormalizer(contracts.CategoryTechnical, cfg.Rules(contracts.CategoryTechnical)),
		logger:     log,
	}
}

// Category implements Calculator
func (c *TechnicalCalculator) Category() contracts.Category {
	return contracts.CategoryTechnical
}

// Calculate scores trend, RSI, MACD and moving-average alignment.
// Indicators missing from the bundle are derived from its price history.
func (c *TechnicalCalculator) Calculate(ctx context.Context, b *contracts.RawMetricsBundle) (Output, error) {
	var warn warnings

	ind := c.indicators(b)
	price := b.LastPrice()
	ind.Trend = ClassifyTrend(price, ind.SMA20, ind.SMA50, ind.SMA200)

	histPct := contracts.Unknown()
	if p, ok := price.Get(); ok && p > 0 {
		histPct = contracts.Sub(ind.MACD, ind.MACDSignal).Map(func(h float64) float64 { return h / p * 100 })
	}

	if !price.IsKnown() {
		warn.add("Current price unavailable, trend and MACD not scored")
	}

	score := c.normalizer.Score(map[string]contracts.Float{
		strategyconfig.MetricTrend:       ind.Trend.Strength(),
		strategyconfig.MetricRSI:         ind.RSI,
		strategyconfig.MetricMACDHistPct: histPct,
		strategyconfig.MetricMAAlignment: maAlignment(price, ind.SMA20, ind.SMA50, ind.SMA200),
	})

	c.logger.WithFields(map[string]interface{}{
		"symbol":  b.Symbol,
		"trend":   ind.Trend,
		"rsi":     ind.RSI.String(),
		"derived": ind.Derived,
		"score":   score.Score.String(),
	}).Debug("Calculated technical score")

	return Output{Score: score, Detail: &ind, Warnings: warn.list()}, nil
}

// indicators merges provided values with ones derived from closes
func (c *TechnicalCalculator) indicators(b *contracts.RawMetricsBundle) contracts.TechnicalResult {
	t := b.Technical
	res := contracts.TechnicalResult{
		RSI:            t.RSI,
		MACD:           t.MACD,
		MACDSignal:     t.MACDSignal,
		SMA20:          t.SMA20,
		SMA50:          t.SMA50,
		SMA200:         t.SMA200,
		BollingerUpper: t.BollingerUpper,
		BollingerLower: t.BollingerLower,
	}

	closes := contracts.Closes(b.Prices)
	n := len(closes)
	if n == 0 {
		return res
	}

	fill := func(dst *contracts.Float, v contracts.Float) {
		if !dst.IsKnown() && v.IsKnown() {
			*dst = v
			res.Derived = true
		}
	}

	if n > c.params.RSIPeriod {
		fill(&res.RSI, last(talib.Rsi(closes, c.params.RSIPeriod)))
	}
	if n >= c.params.MACDSlow+c.params.MACDSignal {
		macd, signal, _ := talib.Macd(closes, c.params.MACDFast, c.params.MACDSlow, c.params.MACDSignal)
		// MACD와 시그널은 같은 출처여야 함
		if !res.MACD.IsKnown() && !res.MACDSignal.IsKnown() {
			fill(&res.MACD, last(macd))
			fill(&res.MACDSignal, last(signal))
		}
	}
	for _, ma := range []struct {
		period int
		dst    *contracts.Float
	}{
		{20, &res.SMA20},
		{50, &res.SMA50},
		{200, &res.SMA200},
	} {
		if n >= ma.period {
			fill(ma.dst, last(talib.Sma(closes, ma.period)))
		}
	}
	if n >= c.params.BollingerPeriod {
		upper, _, lower := talib.BBands(closes, c.params.BollingerPeriod,
			c.params.BollingerStdDevs, c.params.BollingerStdDevs, talib.SMA)
		fill(&res.BollingerUpper, last(upper))
		fill(&res.BollingerLower, last(lower))
	}

	return res
}

// ClassifyTrend reads the moving-average stack.
// Without SMA200 only BULLISH/BEARISH/NEUTRAL are possible.
func ClassifyTrend(price, sma20, sma50, sma200 contracts.Float) contracts.Trend {
	p, ok1 := price.Get()
	s20, ok2 := sma20.Get()
	s50, ok3 := sma50.Get()
	if !ok1 || !ok2 || !ok3 {
		return contracts.TrendUnknown
	}

	if s200, ok := sma200.Get(); ok {
		switch {
		case p > s20 && s20 > s50 && s50 > s200:
			return contracts.TrendStrongBullish
		case p < s20 && s20 < s50 && s50 < s200:
			return contracts.TrendStrongBearish
		}
	}

	switch {
	case p > s20 && s20 > s50:
		return contracts.TrendBullish
	case p < s20 && s20 < s50:
		return contracts.TrendBearish
	default:
		return contracts.TrendNeutral
	}
}

// maAlignment maps the share of bullish moving-average relations to -1..1
func maAlignment(price, sma20, sma50, sma200 contracts.Float) contracts.Float {
	checks := []struct{ a, b contracts.Float }{
		{price, sma20},
		{price, sma50},
		{price, sma200},
		{sma50, sma200},
	}

	passed, avail := 0, 0
	for _, chk := range checks {
		x, ok1 := chk.a.Get()
		y, ok2 := chk.b.Get()
		if !ok1 || !ok2 {
			continue
		}
		avail++
		if x > y {
			passed++
		}
	}
	if avail == 0 {
		return contracts.Unknown()
	}
	return contracts.Known(2*float64(passed)/float64(avail) - 1)
}

// last returns the final element of an indicator series
func last(series []float64) contracts.Float {
	if len(series) == 0 {
		return contracts.Unknown()
	}
	return contracts.Known(series[len(series)-1])
}
