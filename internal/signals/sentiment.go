package signals

import (
	"context"
	"strings"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

// analystKeyScores 애널리스트 의견 → 1~5 척도
var analystKeyScores = map[string]float64{
	"strong_buy":  5,
	"buy":         4,
	"hold":        3,
	"sell":        2,
	"strong_sell": 1,
}

// SentimentCalculator scores news, social and analyst sentiment
type SentimentCalculator struct {
	normalizer *Normalizer
	logger     *logger.Logger
}

// NewSentimentCalculator creates a new sentiment calculator
func NewSentimentCalculator(cfg *strategyconfig.Config, log *logger.Logger) *SentimentCalculator {
	return &SentimentCalculator{
		normalizer: NewNormalizer(contracts.CategorySentiment, cfg.Rules(contracts.CategorySentiment)),
		logger:     log,
	}
}

// Category implements Calculator
func (c *SentimentCalculator) Category() contracts.Category {
	return contracts.CategorySentiment
}

// Calculate scores the sentiment readings of a bundle
func (c *SentimentCalculator) Calculate(ctx context.Context, b *contracts.RawMetricsBundle) (Output, error) {
	var warn warnings
	s := b.Sentiment

	news := polarity(s.NewsSentiment, "news", &warn)
	social := polarity(s.SocialSentiment, "social", &warn)
	if s.AnalystRatings.HasNegative() {
		warn.add("Analyst rating counts must be non-negative; consensus not scored")
	}

	score := c.normalizer.Score(map[string]contracts.Float{
		strategyconfig.MetricNewsSentiment:    news,
		strategyconfig.MetricSocialSentiment:  social,
		strategyconfig.MetricAnalystConsensus: AnalystConsensus(s),
	})

	c.logger.WithFields(map[string]interface{}{
		"symbol":  b.Symbol,
		"news":    news.String(),
		"social":  social.String(),
		"ratings": s.AnalystRatings.Total(),
		"score":   score.Score.String(),
	}).Debug("Calculated sentiment score")

	return Output{Score: score, Warnings: warn.list()}, nil
}

// AnalystConsensus returns the 1..5 consensus from rating counts,
// falling back to the rating key. Negative counts yield Unknown.
func AnalystConsensus(s contracts.SentimentData) contracts.Float {
	r := s.AnalystRatings
	if r.HasNegative() {
		return contracts.Unknown()
	}
	if n := r.Total(); n > 0 {
		sum := 5*r.StrongBuy + 4*r.Buy + 3*r.Hold + 2*r.Sell + r.StrongSell
		return contracts.Known(float64(sum) / float64(n))
	}

	key := strings.ToLower(strings.TrimSpace(s.AnalystRatingKey))
	key = strings.ReplaceAll(key, " ", "_")
	if v, ok := analystKeyScores[key]; ok {
		return contracts.Known(v)
	}
	return contracts.Unknown()
}

// polarity rejects readings outside [-1, 1]
func polarity(v contracts.Float, source string, warn *warnings) contracts.Float {
	x, ok := v.Get()
	if !ok {
		return v
	}
	if x < -1 || x > 1 {
		warn.add("Ignoring out-of-range " + source + " sentiment polarity")
		return contracts.Unknown()
	}
	return v
}
