package signals

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

// Set holds every category result of one bundle
type Set struct {
	Scores   map[contracts.Category]contracts.CategoryScore
	Warnings map[contracts.Category][]string

	Technical *contracts.TechnicalResult
	Health    *contracts.FinancialHealthResult
	Risk      *contracts.RiskResult
	Valuation *contracts.ValuationResult
	Quality   *contracts.QualityResult
	Momentum  *contracts.MomentumResult
}

// Builder fans the bundle out to the category calculators
// ⭐ SSOT: 카테고리 점수 오케스트레이션은 여기서만
type Builder struct {
	calculators map[contracts.Category]Calculator
	logger      *logger.Logger
}

// NewBuilder creates a builder from explicit calculators
func NewBuilder(log *logger.Logger, calcs ...Calculator) *Builder {
	m := make(map[contracts.Category]Calculator, len(calcs))
	for _, c := range calcs {
		m[c.Category()] = c
	}
	return &Builder{calculators: m, logger: log}
}

// NewDefaultBuilder wires one calculator per category from cfg
func NewDefaultBuilder(cfg *strategyconfig.Config, log *logger.Logger) *Builder {
	return NewBuilder(log,
		NewFundamentalCalculator(cfg, log),
		NewTechnicalCalculator(cfg, log),
		NewSentimentCalculator(cfg, log),
		NewHealthCalculator(cfg, log),
		NewValuationCalculator(cfg, log),
		NewQualityCalculator(cfg, log),
		NewMomentumCalculator(cfg, log),
		NewRiskCalculator(cfg, log),
	)
}

// Build runs the requested categories in parallel. Each goroutine owns
// one output slot, so no locking is needed. A failing or panicking
// calculator yields an Unknown category with a warning; only context
// cancellation aborts the build.
func (b *Builder) Build(ctx context.Context, bundle *contracts.RawMetricsBundle, categories []contracts.Category) (*Set, error) {
	outputs := make([]Output, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range categories {
		calc, ok := b.calculators[cat]
		if !ok {
			outputs[i] = failed(cat, fmt.Errorf("no calculator registered"))
			continue
		}
		i, calc := i, calc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outputs[i] = b.run(gctx, calc, bundle)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set := &Set{
		Scores:   make(map[contracts.Category]contracts.CategoryScore, len(categories)),
		Warnings: make(map[contracts.Category][]string),
	}
	for i, cat := range categories {
		out := outputs[i]
		out.Score.Category = cat
		set.Scores[cat] = out.Score
		if len(out.Warnings) > 0 {
			set.Warnings[cat] = out.Warnings
		}
		set.attach(out.Detail)
	}

	return set, nil
}

// run executes one calculator and turns errors and panics into an
// Unknown category
func (b *Builder) run(ctx context.Context, calc Calculator, bundle *contracts.RawMetricsBundle) (out Output) {
	cat := calc.Category()
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithFields(map[string]interface{}{
				"category": cat,
				"panic":    fmt.Sprint(r),
			}).Error("Category calculator panicked")
			out = failed(cat, fmt.Errorf("panic: %v", r))
		}
	}()

	out, err := calc.Calculate(ctx, bundle)
	if err != nil {
		b.logger.WithError(err).WithField("category", cat).Warn("Category calculator failed")
		return failed(cat, err)
	}
	return out
}

func failed(cat contracts.Category, err error) Output {
	return Output{
		Score:    contracts.UnknownScore(cat),
		Warnings: []string{fmt.Sprintf("scoring failed: %v", err)},
	}
}

func (s *Set) attach(detail interface{}) {
	switch d := detail.(type) {
	case *contracts.TechnicalResult:
		s.Technical = d
	case *contracts.FinancialHealthResult:
		s.Health = d
	case *contracts.RiskResult:
		s.Risk = d
	case *contracts.ValuationResult:
		s.Valuation = d
	case *contracts.QualityResult:
		s.Quality = d
	case *contracts.MomentumResult:
		s.Momentum = d
	}
}
