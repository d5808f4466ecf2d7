package analysis

import (
	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
)

// Composite is the weighted combination of category scores
type Composite struct {
	Score     contracts.Float
	Effective map[contracts.Category]float64 // renormalized weights of present categories
	Present   []contracts.Category
	Missing   []contracts.Category
}

// Combine weights the known category scores. Unknown categories give up
// their weight to the present ones in proportion; a missing category is
// never treated as a zero score.
// ⭐ SSOT: 종합 점수 가중 합산은 여기서만
func Combine(weights strategyconfig.CategoryWeights, scores map[contracts.Category]contracts.CategoryScore) Composite {
	c := Composite{Score: contracts.Unknown()}

	presentWeight := 0.0
	for _, cat := range weights.Categories() {
		if s, ok := scores[cat]; ok && s.IsKnown() {
			c.Present = append(c.Present, cat)
			presentWeight += weights.Get(cat)
		} else {
			c.Missing = append(c.Missing, cat)
		}
	}

	if presentWeight == 0 {
		return c
	}

	total := 0.0
	c.Effective = make(map[contracts.Category]float64, len(c.Present))
	for _, cat := range c.Present {
		w := weights.Get(cat) / presentWeight
		c.Effective[cat] = w
		total += scores[cat].Score.OrElse(0) * w
	}

	c.Score = contracts.Known(clamp(total, 0, 100))
	return c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
