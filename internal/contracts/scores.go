package contracts

// Category identifies one scoring category
type Category string

const (
	CategoryFundamental     Category = "fundamental"
	CategoryTechnical       Category = "technical"
	CategorySentiment       Category = "sentiment"
	CategoryFinancialHealth Category = "financial_health"
	CategoryValuation       Category = "valuation"
	CategoryQuality         Category = "quality"
	CategoryMomentum        Category = "momentum"
	CategoryRisk            Category = "risk"
)

// AllCategories is the fixed evaluation and reporting order.
// Warnings and table output follow this order.
var AllCategories = []Category{
	CategoryFundamental,
	CategoryTechnical,
	CategorySentiment,
	CategoryFinancialHealth,
	CategoryValuation,
	CategoryQuality,
	CategoryMomentum,
	CategoryRisk,
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, k := range AllCategories {
		if k == c {
			return true
		}
	}
	return false
}

// Rating is the coarse label attached to a category score
type Rating string

const (
	RatingPoor      Rating = "Poor"
	RatingFair      Rating = "Fair"
	RatingGood      Rating = "Good"
	RatingExcellent Rating = "Excellent"
	RatingUnknown   Rating = "Unknown"
)

// RatingFor maps a 0..100 score to its rating band
func RatingFor(score Float) Rating {
	s, ok := score.Get()
	switch {
	case !ok:
		return RatingUnknown
	case s >= 80:
		return RatingExcellent
	case s >= 60:
		return RatingGood
	case s >= 40:
		return RatingFair
	default:
		return RatingPoor
	}
}

// MetricContribution explains how one metric moved a category score
type MetricContribution struct {
	Metric       string  `json:"metric"`
	Raw          float64 `json:"raw"`
	SubScore     float64 `json:"sub_score"`
	Weight       float64 `json:"weight"`       // renormalized over present metrics
	Contribution float64 `json:"contribution"` // SubScore * Weight
}

// CategoryScore is a normalized 0..100 category result.
// ⭐ SSOT: 카테고리 점수는 항상 [0,100]
type CategoryScore struct {
	Category Category             `json:"category"`
	Score    Float                `json:"score"`
	Rating   Rating               `json:"rating"`
	Basis    []MetricContribution `json:"basis,omitempty"`
	// fraction of configured metric weight that was present
	Coverage float64 `json:"coverage"`
}

// UnknownScore returns the score for a category with no usable evidence
func UnknownScore(c Category) CategoryScore {
	return CategoryScore{Category: c, Score: Unknown(), Rating: RatingUnknown}
}

// IsKnown reports whether the category contributes to the composite
func (s CategoryScore) IsKnown() bool {
	return s.Score.IsKnown()
}
