package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/metrics"
	"github.com/wonny/finscore/internal/signals"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

// ErrNilBundle is returned when Analyze receives no bundle
var ErrNilBundle = errors.New("metrics bundle is required")

// Engine turns one RawMetricsBundle into a CompositeAnalysisResult.
// It holds no per-request state and is safe for concurrent use.
// ⭐ SSOT: 분석 파이프라인 진입점은 여기서만
type Engine struct {
	cfg        *strategyconfig.Config
	configHash string
	builder    *signals.Builder
	classifier *Classifier
	rules      []Rule
	recorder   metrics.Recorder
	logger     *logger.Logger

	now   func() time.Time
	newID func() string

	calcs []signals.Calculator
}

// Option customizes an Engine
type Option func(*Engine)

// WithClock sets the source of AnalyzedAt
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator sets the source of result IDs
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r metrics.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithCalculators replaces the default category calculators
func WithCalculators(calcs ...signals.Calculator) Option {
	return func(e *Engine) { e.calcs = calcs }
}

// NewEngine validates cfg and builds an engine. A configuration error
// is returned here, never per request.
func NewEngine(cfg *strategyconfig.Config, log *logger.Logger, opts ...Option) (*Engine, error) {
	if err := strategyconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash scoring config: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}

	e := &Engine{
		cfg:        cfg,
		configHash: hash,
		classifier: NewClassifier(cfg.Recommendation.Thresholds),
		rules:      Rules(cfg.Insights),
		recorder:   metrics.Nop{},
		logger:     log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	if len(e.calcs) > 0 {
		e.builder = signals.NewBuilder(log, e.calcs...)
	} else {
		e.builder = signals.NewDefaultBuilder(cfg, log)
	}

	for _, w := range strategyconfig.Warn(cfg) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	return e, nil
}

// Config returns the validated scoring config
func (e *Engine) Config() *strategyconfig.Config {
	return e.cfg
}

// ConfigHash returns the hash stamped into every result
func (e *Engine) ConfigHash() string {
	return e.configHash
}

// Analyze scores bundle under mode. Missing data never fails the call;
// only a nil bundle, an unknown mode or context cancellation do.
func (e *Engine) Analyze(ctx context.Context, bundle *contracts.RawMetricsBundle, mode contracts.Mode) (*contracts.CompositeAnalysisResult, error) {
	start := time.Now()

	if bundle == nil {
		return nil, ErrNilBundle
	}
	mode, err := contracts.ParseMode(string(mode))
	if err != nil {
		return nil, err
	}

	weights := e.cfg.Weights.ForMode(mode)
	categories := weights.Categories()

	// 1. 카테고리 점수 (병렬)
	set, err := e.builder.Build(ctx, bundle, categories)
	if err != nil {
		e.recorder.RecordError("build")
		return nil, fmt.Errorf("analyze %s: %w", bundle.Symbol, err)
	}

	// 2. 종합 점수 / 신뢰도 / 등급
	composite := Combine(weights, set.Scores)
	confidence := Confidence(e.cfg.Confidence, weights, set.Scores)
	rec := e.classifier.Classify(composite.Score)

	result := &contracts.CompositeAnalysisResult{
		ID:               e.newID(),
		Symbol:           bundle.Symbol,
		Mode:             mode,
		OverallScore:     composite.Score,
		Recommendation:   rec,
		Confidence:       confidence,
		RiskLevel:        RiskLevelFor(confidence),
		PriceTarget:      PriceTarget(bundle.LastPrice(), composite.Score, rec),
		CategoryScores:   set.Scores,
		EffectiveWeights: composite.Effective,
		Technical:        set.Technical,
		Health:           set.Health,
		Risk:             set.Risk,
		Valuation:        set.Valuation,
		Quality:          set.Quality,
		Momentum:         set.Momentum,
		ConfigHash:       e.configHash,
		AnalyzedAt:       e.now(),
	}

	// 3. 인사이트 / 경고
	snap := &Snapshot{
		Symbol:      bundle.Symbol,
		Price:       bundle.LastPrice(),
		IndustryROE: bundle.Fundamentals.IndustryROE,
		ROE:         bundle.Fundamentals.ROE,
		Composite:   composite,
		Confidence:  confidence,
		Scores:      set.Scores,
		Technical:   set.Technical,
		Health:      set.Health,
		Risk:        set.Risk,
		Valuation:   set.Valuation,
		Quality:     set.Quality,
	}
	result.Insights, result.Warnings = Generate(e.rules, snap)
	for _, cat := range contracts.AllCategories {
		for _, w := range set.Warnings[cat] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", cat, w))
		}
	}

	for _, cat := range categories {
		e.recorder.RecordCategory(cat, set.Scores[cat].IsKnown())
	}
	elapsed := time.Since(start)
	e.recorder.RecordAnalysis(mode, rec, elapsed)

	e.logger.WithFields(map[string]interface{}{
		"symbol":         bundle.Symbol,
		"mode":           mode,
		"score":          composite.Score.String(),
		"recommendation": rec,
		"confidence":     confidence.String(),
		"present":        len(composite.Present),
		"missing":        len(composite.Missing),
		"warnings":       len(result.Warnings),
		"duration_ms":    elapsed.Milliseconds(),
	}).Info("Analysis completed")

	return result, nil
}

// BundleHash returns the sha256 of the bundle's canonical JSON
func BundleHash(bundle *contracts.RawMetricsBundle) (string, error) {
	data, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("marshal bundle: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
