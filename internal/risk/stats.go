package risk

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/finscore/internal/contracts"
)

// Returns converts closes to simple returns: r[i] = c[i+1]/c[i] - 1.
// Pairs with a non-positive base close are dropped.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}

	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			continue
		}
		out = append(out, closes[i]/closes[i-1]-1)
	}
	return out
}

// Align pairs two close series. When every point carries a date the
// series are joined on the calendar day; otherwise the shorter tail of
// both is used.
func Align(symbol, benchmark []contracts.PricePoint) (a, b []float64) {
	if hasDates(symbol) && hasDates(benchmark) {
		bench := make(map[time.Time]float64, len(benchmark))
		for _, p := range benchmark {
			bench[day(p.Date)] = p.Close
		}
		for _, p := range symbol {
			if c, ok := bench[day(p.Date)]; ok {
				a = append(a, p.Close)
				b = append(b, c)
			}
		}
		return a, b
	}

	n := len(symbol)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	return contracts.Closes(symbol[len(symbol)-n:]), contracts.Closes(benchmark[len(benchmark)-n:])
}

// pairedReturns computes returns on both aligned series, keeping only
// periods where both bases are positive.
func pairedReturns(a, b []float64) (ra, rb []float64) {
	for i := 1; i < len(a) && i < len(b); i++ {
		if a[i-1] <= 0 || b[i-1] <= 0 {
			continue
		}
		ra = append(ra, a[i]/a[i-1]-1)
		rb = append(rb, b[i]/b[i-1]-1)
	}
	return ra, rb
}

// Beta = Cov(r, m) / Var(m), sample estimators.
// Unknown when the benchmark has no variance.
func Beta(returns, market []float64) contracts.Float {
	if len(returns) < 2 || len(returns) != len(market) {
		return contracts.Unknown()
	}
	v := stat.Variance(market, nil)
	if v == 0 {
		return contracts.Unknown()
	}
	return contracts.Known(stat.Covariance(returns, market, nil) / v)
}

// Sharpe = (annualized mean - rf) / annualized stdev.
// Unknown for a zero-variance series.
func Sharpe(returns []float64, riskFree float64, periodsPerYear int) contracts.Float {
	if len(returns) < 2 {
		return contracts.Unknown()
	}
	sd := stat.StdDev(returns, nil)
	if sd == 0 {
		return contracts.Unknown()
	}
	p := float64(periodsPerYear)
	return contracts.Known((stat.Mean(returns, nil)*p - riskFree) / (sd * math.Sqrt(p)))
}

// Sortino uses the stdev of negative returns as the risk term.
func Sortino(returns []float64, riskFree float64, periodsPerYear int) contracts.Float {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return contracts.Unknown()
	}
	dd := stat.StdDev(downside, nil)
	if dd == 0 {
		return contracts.Unknown()
	}
	p := float64(periodsPerYear)
	return contracts.Known((stat.Mean(returns, nil)*p - riskFree) / (dd * math.Sqrt(p)))
}

// MaxDrawdown returns the largest peak-to-trough decline over the
// running maximum, as a fraction <= 0.
func MaxDrawdown(closes []float64) contracts.Float {
	if len(closes) < 2 {
		return contracts.Unknown()
	}

	peak := closes[0]
	worst := 0.0
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if peak <= 0 {
			continue
		}
		if dd := (c - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return contracts.Known(worst)
}

// AnnualizedVolatility of the trailing window returns.
// Unknown when fewer than window returns exist.
func AnnualizedVolatility(returns []float64, window, periodsPerYear int) contracts.Float {
	if window < 2 || len(returns) < window {
		return contracts.Unknown()
	}
	tail := returns[len(returns)-window:]
	return contracts.Known(stat.StdDev(tail, nil) * math.Sqrt(float64(periodsPerYear)))
}

func hasDates(points []contracts.PricePoint) bool {
	if len(points) == 0 {
		return false
	}
	for _, p := range points {
		if p.Date.IsZero() {
			return false
		}
	}
	return true
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
