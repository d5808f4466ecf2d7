package analysis

import (
	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
)

// Risk level cut points on confidence
const (
	lowRiskConfidence    = 80.0
	mediumRiskConfidence = 60.0
)

// Classifier maps a composite score to a recommendation label.
// Thresholds are validated at config load, so bands never overlap.
type Classifier struct {
	t strategyconfig.Thresholds
}

// NewClassifier creates a classifier for validated thresholds
func NewClassifier(t strategyconfig.Thresholds) *Classifier {
	return &Classifier{t: t}
}

// Classify returns the label for score; Unknown is Unanalyzable
func (c *Classifier) Classify(score contracts.Float) contracts.Recommendation {
	s, ok := score.Get()
	switch {
	case !ok:
		return contracts.Unanalyzable
	case s >= c.t.StrongBuy:
		return contracts.StrongBuy
	case s >= c.t.Buy:
		return contracts.Buy
	case s >= c.t.Hold:
		return contracts.Hold
	case s >= c.t.Sell:
		return contracts.Sell
	default:
		return contracts.StrongSell
	}
}

// RiskLevelFor buckets confidence: >80 LOW, >60 MEDIUM, otherwise HIGH
func RiskLevelFor(confidence contracts.Float) contracts.RiskLevel {
	c, ok := confidence.Get()
	switch {
	case !ok:
		return contracts.RiskUnknown
	case c > lowRiskConfidence:
		return contracts.RiskLow
	case c > mediumRiskConfidence:
		return contracts.RiskMedium
	default:
		return contracts.RiskHigh
	}
}

// PriceTarget nudges the price by (score-50)/500 for buy and sell labels.
// Hold and Unanalyzable carry no target.
func PriceTarget(price, score contracts.Float, rec contracts.Recommendation) contracts.Float {
	p, ok1 := price.Get()
	s, ok2 := score.Get()
	if !ok1 || !ok2 {
		return contracts.Unknown()
	}

	switch rec {
	case contracts.Buy, contracts.StrongBuy, contracts.Sell, contracts.StrongSell:
		return contracts.Known(p * (1 + (s-50)/500))
	default:
		return contracts.Unknown()
	}
}
