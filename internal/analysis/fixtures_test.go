package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/signals"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

var (
	k = contracts.Known
	u = contracts.Unknown

	fixedTime = time.Date(2024, 12, 31, 9, 0, 0, 0, time.UTC)
)

// stubCalculator returns a fixed category score
type stubCalculator struct {
	cat      contracts.Category
	score    contracts.Float
	detail   interface{}
	warnings []string
	err      error
}

func (s stubCalculator) Category() contracts.Category { return s.cat }

func (s stubCalculator) Calculate(ctx context.Context, b *contracts.RawMetricsBundle) (signals.Output, error) {
	if s.err != nil {
		return signals.Output{}, s.err
	}
	return signals.Output{
		Score:    contracts.CategoryScore{Category: s.cat, Score: s.score, Rating: contracts.RatingFor(s.score)},
		Detail:   s.detail,
		Warnings: s.warnings,
	}, nil
}

func stub(cat contracts.Category, score contracts.Float) stubCalculator {
	return stubCalculator{cat: cat, score: score}
}

func scoresOf(pairs map[contracts.Category]contracts.Float) map[contracts.Category]contracts.CategoryScore {
	out := make(map[contracts.Category]contracts.CategoryScore, len(pairs))
	for cat, v := range pairs {
		out[cat] = contracts.CategoryScore{Category: cat, Score: v}
	}
	return out
}

func standardCategories() []contracts.Category {
	return []contracts.Category{contracts.CategoryFundamental, contracts.CategoryTechnical, contracts.CategorySentiment}
}

// sequentialIDs returns run-1, run-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
}

func newTestEngine(calcs ...signals.Calculator) (*Engine, error) {
	opts := []Option{
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(sequentialIDs()),
	}
	if len(calcs) > 0 {
		opts = append(opts, WithCalculators(calcs...))
	}
	return NewEngine(strategyconfig.DefaultConfig(), logger.NewNop(), opts...)
}

func standardStubs(fundamental, technical, sentiment contracts.Float) []signals.Calculator {
	return []signals.Calculator{
		stub(contracts.CategoryFundamental, fundamental),
		stub(contracts.CategoryTechnical, technical),
		stub(contracts.CategorySentiment, sentiment),
	}
}
