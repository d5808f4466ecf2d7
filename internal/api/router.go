package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/finscore/internal/api/handlers"
	"github.com/wonny/finscore/pkg/config"
	"github.com/wonny/finscore/pkg/logger"
)

// Routes groups the handlers served by the router. History and Metrics
// are optional.
type Routes struct {
	Analysis *handlers.AnalysisHandler
	History  *handlers.HistoryHandler
	Health   *handlers.HealthHandler
	Metrics  http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(routes Routes, cfg config.APIConfig, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", routes.Health.Check).Methods("GET")

	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics).Methods("GET")
	}

	// API
	api := r.PathPrefix("/api").Subrouter()
	api.Use(rateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, log))
	api.Use(timeoutMiddleware(cfg.RequestTimeout))

	api.HandleFunc("/analyze", routes.Analysis.Analyze).Methods("POST")
	api.HandleFunc("/config", routes.Analysis.GetConfig).Methods("GET")

	if routes.History != nil {
		api.HandleFunc("/runs/{id}", routes.History.GetRun).Methods("GET")
		api.HandleFunc("/symbols/{symbol}/runs", routes.History.History).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}
