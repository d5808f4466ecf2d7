package analysis

import (
	"math"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
)

// scoreBounds are the extremes a category score can take
var scoreBounds = [2]float64{0, 100}

// Confidence measures agreement across the categories of one weight table.
//
// Dispersion is the weighted standard deviation of the category scores
// around their weighted mean (the composite when nothing is missing). It
// is at most 50 on a 0..100 scale and maps linearly from cap (0) down to
// floor (>= DispersionScale). An Unknown category is filled with whichever
// bound maximizes that deviation, so losing a category never lowers the
// dispersion. The result is then scaled toward floor by coverage, the
// fraction of categories that were present.
func Confidence(params strategyconfig.Confidence, weights strategyconfig.CategoryWeights, scores map[contracts.Category]contracts.CategoryScore) contracts.Float {
	categories := weights.Categories()

	w := make([]float64, len(categories))
	values := make([]float64, len(categories))
	var missing []int
	for i, cat := range categories {
		w[i] = weights.Get(cat)
		if v, ok := scores[cat].Score.Get(); ok {
			values[i] = v
		} else {
			missing = append(missing, i)
		}
	}
	if len(missing) == len(categories) {
		return contracts.Unknown()
	}

	dispersion := math.Sqrt(worstVariance(w, values, missing))
	agreement := 1 - math.Min(1, dispersion/params.DispersionScale)
	coverage := float64(len(categories)-len(missing)) / float64(len(categories))

	conf := params.Floor + (params.Cap-params.Floor)*agreement*coverage
	return contracts.Known(clamp(conf, params.Floor, params.Cap))
}

// worstVariance fills the missing slots with score bounds and returns the
// largest weighted variance. The variance is convex in each slot, so the
// maximum over [0,100] sits on a bound; at most 2^7 fills are tried.
func worstVariance(w, values []float64, missing []int) float64 {
	if len(missing) == 0 {
		return weightedVariance(w, values)
	}

	filled := append([]float64(nil), values...)
	best := 0.0
	for mask := 0; mask < 1<<len(missing); mask++ {
		for bit, idx := range missing {
			filled[idx] = scoreBounds[(mask>>bit)&1]
		}
		best = math.Max(best, weightedVariance(w, filled))
	}
	return best
}

func weightedVariance(w, values []float64) float64 {
	var total, mean float64
	for i, v := range values {
		total += w[i]
		mean += w[i] * v
	}
	if total == 0 {
		return 0
	}
	mean /= total

	var variance float64
	for i, v := range values {
		d := v - mean
		variance += w[i] * d * d
	}
	return variance / total
}
