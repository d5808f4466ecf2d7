package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/finscore/internal/api"
	"github.com/wonny/finscore/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 스코어링 설정 검증 후 엔진 생성
- REDIS_ENABLED 이면 결과 캐시 사용
- DATABASE_URL 이 있으면 분석 이력 저장

Endpoints:
  GET  /health                     - Health check
  GET  /metrics                    - Prometheus metrics
  POST /api/analyze?mode=...       - 번들 분석
  GET  /api/config                 - 스코어링 설정 조회
  GET  /api/runs/{id}              - 분석 결과 조회 (DB)
  GET  /api/symbols/{symbol}/runs  - 종목별 분석 이력 (DB)

Example:
  go run ./cmd/finscore api
  go run ./cmd/finscore api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: $PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== finscore API Server ===")

	// 1. Config / logger / engine
	rt, err := newRuntime(true)
	if err != nil {
		return err
	}
	cfg, log := rt.cfg, rt.log

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port":        cfg.Port,
		"env":         cfg.Env,
		"config_hash": rt.engine.ConfigHash(),
	}).Info("Initializing API server")

	ctx := context.Background()
	checks := map[string]handlers.Checker{}
	var routes api.Routes

	// 2. Connect to database (optional)
	db, repo, err := rt.openStore(ctx)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks["postgres"] = db.Ping
		routes.History = handlers.NewHistoryHandler(repo, log)
	}

	// 3. Connect to redis (optional)
	redisClient, cache, err := rt.openCache()
	if err != nil {
		return err
	}
	defer redisClient.Close()
	if redisClient.Enabled() {
		checks["redis"] = redisClient.Ping
	}

	// 4. Create service and handlers
	service := rt.newService(cache, repo)
	routes.Analysis = handlers.NewAnalysisHandler(service, rt.scoring, rt.engine.ConfigHash(), cfg.API.MaxBodyBytes, log)
	routes.Health = handlers.NewHealthHandler("finscore", checks)
	if rt.metrics != nil {
		routes.Metrics = rt.metrics.Handler()
	}

	// 5. Create router / server
	router := api.NewRouter(routes, cfg.API, log)
	server := api.New(cfg, log, router)

	// 6. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
