package signals

import (
	"math"
	"sort"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
)

// Sub-score anchors: fair-span → 0, fair → 50, good → 85, good+span → 100
const (
	fairScore = 50.0
	goodScore = 85.0
)

// Normalizer turns one category's raw metrics into a 0..100 score
// ⭐ SSOT: 원시 지표 → 점수 변환은 여기서만
type Normalizer struct {
	category contracts.Category
	rules    map[string]strategyconfig.MetricRule
}

// NewNormalizer creates a normalizer for one category table
func NewNormalizer(category contracts.Category, rules map[string]strategyconfig.MetricRule) *Normalizer {
	return &Normalizer{category: category, rules: rules}
}

// Score combines the present metrics. Absent metrics drop out and the
// remaining weights renormalize; with nothing present the score is Unknown.
func (n *Normalizer) Score(raw map[string]contracts.Float) contracts.CategoryScore {
	names := make([]string, 0, len(n.rules))
	for name := range n.rules {
		names = append(names, name)
	}
	sort.Strings(names)

	var totalWeight, presentWeight float64
	type present struct {
		name     string
		raw, sub float64
		weight   float64
	}
	var items []present

	for _, name := range names {
		rule := n.rules[name]
		totalWeight += rule.Weight

		v, ok := raw[name].Get()
		if !ok {
			continue
		}
		presentWeight += rule.Weight
		items = append(items, present{name: name, raw: v, sub: SubScore(rule, v), weight: rule.Weight})
	}

	if presentWeight == 0 {
		return contracts.UnknownScore(n.category)
	}

	score := 0.0
	basis := make([]contracts.MetricContribution, 0, len(items))
	for _, it := range items {
		w := it.weight / presentWeight
		score += it.sub * w
		basis = append(basis, contracts.MetricContribution{
			Metric:       it.name,
			Raw:          it.raw,
			SubScore:     it.sub,
			Weight:       w,
			Contribution: it.sub * w,
		})
	}

	s := contracts.Known(clamp(score, 0, 100))
	return contracts.CategoryScore{
		Category: n.category,
		Score:    s,
		Rating:   contracts.RatingFor(s),
		Basis:    basis,
		Coverage: presentWeight / totalWeight,
	}
}

// SubScore maps a raw value through the rule's piecewise-linear anchors.
// Lower-is-better rules are mirrored onto the higher-is-better line.
func SubScore(rule strategyconfig.MetricRule, x float64) float64 {
	good, fair := rule.Good, rule.Fair
	if rule.Direction == strategyconfig.LowerIsBetter {
		x, good, fair = -x, -good, -fair
	}

	span := good - fair
	if span <= 0 {
		return fairScore
	}

	var s float64
	switch {
	case x <= fair:
		s = fairScore * (x - (fair - span)) / span
	case x <= good:
		s = fairScore + (goodScore-fairScore)*(x-fair)/span
	default:
		s = goodScore + (100-goodScore)*(x-good)/span
	}
	return clamp(s, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
