package analysis

import (
	"context"
	"time"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/metrics"
	"github.com/wonny/finscore/pkg/logger"
	"github.com/wonny/finscore/pkg/redis"
)

// ResultCache stores finished results by key. *redis.Cache satisfies it.
type ResultCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RunStore records finished analyses
type RunStore interface {
	SaveRun(ctx context.Context, result *contracts.CompositeAnalysisResult, bundleHash string) error
}

// Service wraps the engine with result caching and run history.
// Cache and store failures are logged and never fail the analysis.
type Service struct {
	engine   *Engine
	cache    ResultCache
	store    RunStore
	ttl      time.Duration
	recorder metrics.Recorder
	logger   *logger.Logger
}

// ServiceOption customizes a Service
type ServiceOption func(*Service)

// WithCache enables result caching for ttl
func WithCache(c ResultCache, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithRunStore enables run history
func WithRunStore(store RunStore) ServiceOption {
	return func(s *Service) { s.store = store }
}

// WithServiceRecorder sets the cache metrics recorder
func WithServiceRecorder(r metrics.Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a service around engine
func NewService(engine *Engine, log *logger.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		engine:   engine,
		ttl:      redis.TTLMedium,
		recorder: metrics.Nop{},
		logger:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the wrapped engine
func (s *Service) Engine() *Engine {
	return s.engine
}

// Analyze returns a cached result for an identical bundle and config,
// otherwise runs the engine and stores the result.
func (s *Service) Analyze(ctx context.Context, bundle *contracts.RawMetricsBundle, mode contracts.Mode) (*contracts.CompositeAnalysisResult, error) {
	if bundle == nil {
		return nil, ErrNilBundle
	}
	mode, err := contracts.ParseMode(string(mode))
	if err != nil {
		return nil, err
	}

	bundleHash, err := BundleHash(bundle)
	if err != nil {
		return nil, err
	}
	key := redis.AnalysisKey(bundle.Symbol, string(mode), s.engine.ConfigHash(), bundleHash)

	if s.cacheEnabled() {
		var cached contracts.CompositeAnalysisResult
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.recorder.RecordError("cache")
			s.logger.WithError(err).WithField("key", key).Warn("Result cache read failed")
		}
		s.recorder.RecordCache(hit)
		if hit {
			return &cached, nil
		}
	}

	result, err := s.engine.Analyze(ctx, bundle, mode)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
			s.recorder.RecordError("cache")
			s.logger.WithError(err).WithField("key", key).Warn("Result cache write failed")
		}
	}

	if s.store != nil {
		if err := s.store.SaveRun(ctx, result, bundleHash); err != nil {
			s.recorder.RecordError("audit")
			s.logger.WithError(err).WithField("symbol", result.Symbol).Warn("Failed to save analysis run")
		}
	}

	return result, nil
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.cache.Enabled()
}
