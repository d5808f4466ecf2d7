package commands

import (
	"context"
	"fmt"

	"github.com/wonny/finscore/internal/analysis"
	"github.com/wonny/finscore/internal/audit"
	"github.com/wonny/finscore/internal/metrics"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/config"
	"github.com/wonny/finscore/pkg/database"
	"github.com/wonny/finscore/pkg/logger"
	"github.com/wonny/finscore/pkg/redis"
)

// runtime holds the shared process dependencies of one command
type runtime struct {
	cfg     *config.Config
	log     *logger.Logger
	scoring *strategyconfig.Config
	engine  *analysis.Engine
	metrics *metrics.Registry // nil when disabled
}

// newRuntime loads env and scoring config and builds the engine.
// A scoring config error stops the command here.
func newRuntime(withMetrics bool) (*runtime, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if scoringConfig != "" {
		cfg.ScoringConfigPath = scoringConfig
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load scoring policy
	scoring, _, err := strategyconfig.Load(cfg.ScoringConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load scoring config: %w", err)
	}

	rt := &runtime{cfg: cfg, log: log, scoring: scoring}

	// 4. Create engine
	var opts []analysis.Option
	if withMetrics && cfg.MetricsEnabled {
		rt.metrics = metrics.NewRegistry()
		opts = append(opts, analysis.WithRecorder(rt.metrics))
	}
	rt.engine, err = analysis.NewEngine(scoring, log, opts...)
	if err != nil {
		return nil, err
	}

	return rt, nil
}

// openStore connects to PostgreSQL and applies the run schema.
// Returns nil without error when DATABASE_URL is unset.
func (rt *runtime) openStore(ctx context.Context) (*database.DB, *audit.Repository, error) {
	if !rt.cfg.Database.Enabled() {
		return nil, nil, nil
	}

	db, err := database.New(ctx, rt.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(ctx, audit.Schema...); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate audit schema: %w", err)
	}

	rt.log.Info("Connected to database")
	return db, audit.NewRepository(db.Pool), nil
}

// openCache connects to Redis when REDIS_ENABLED is set
func (rt *runtime) openCache() (*redis.Client, *redis.Cache, error) {
	client, err := redis.New(rt.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	if client.Enabled() {
		rt.log.Info("Connected to redis")
	}
	return client, redis.NewCache(client, "finscore"), nil
}

// newService wires the engine with the optional cache and run store
func (rt *runtime) newService(cache *redis.Cache, repo *audit.Repository) *analysis.Service {
	var opts []analysis.ServiceOption
	if cache != nil && cache.Enabled() {
		opts = append(opts, analysis.WithCache(cache, rt.cfg.Redis.CacheTTL))
	}
	if repo != nil {
		opts = append(opts, analysis.WithRunStore(repo))
	}
	if rt.metrics != nil {
		opts = append(opts, analysis.WithServiceRecorder(rt.metrics))
	}
	return analysis.NewService(rt.engine, rt.log, opts...)
}
