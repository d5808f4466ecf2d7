package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finscore/internal/analysis"
	"github.com/wonny/finscore/internal/api/handlers"
	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/metrics"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/config"
	"github.com/wonny/finscore/pkg/logger"
)

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		RequestTimeout: 5 * time.Second,
		MaxBodyBytes:   1 << 20,
	}
}

func newTestRouter(t *testing.T, a handlers.Analyzer, apiCfg config.APIConfig) http.Handler {
	t.Helper()
	log := logger.NewNop()
	cfg := strategyconfig.DefaultConfig()

	if a == nil {
		engine, err := analysis.NewEngine(cfg, log)
		require.NoError(t, err)
		a = engine
	}

	return NewRouter(Routes{
		Analysis: handlers.NewAnalysisHandler(a, cfg, "hash", apiCfg.MaxBodyBytes, log),
		Health:   handlers.NewHealthHandler("finscore", nil),
		Metrics:  metrics.NewRegistry().Handler(),
	}, apiCfg, log)
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t, nil, testAPIConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"finscore"`)
}

func TestRouter_AnalyzeEndToEnd(t *testing.T) {
	router := newTestRouter(t, nil, testAPIConfig())

	body := `{
		"symbol": "ACME",
		"price": 120,
		"fundamentals": {"pe_ratio": 14, "roe": 19, "debt_to_equity": 0.4, "profit_margin": 21},
		"sentiment": {"news_sentiment": 0.3, "analyst_ratings": {"strong_buy": 5, "buy": 5}}
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res contracts.CompositeAnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "ACME", res.Symbol)
	assert.Equal(t, contracts.ModeStandard, res.Mode)
	assert.True(t, res.Analyzable())
	assert.NotEqual(t, contracts.Unanalyzable, res.Recommendation)
	assert.False(t, res.CategoryScores[contracts.CategoryTechnical].IsKnown())
	assert.NotEmpty(t, res.ID)
}

func TestRouter_MethodAndRoutes(t *testing.T) {
	router := newTestRouter(t, nil, testAPIConfig())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/config", http.StatusOK},
		{http.MethodGet, "/api/analyze", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/runs/abc", http.StatusNotFound},
		{http.MethodGet, "/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	apiCfg := testAPIConfig()
	apiCfg.RateLimitRPS = 0.5
	apiCfg.RateLimitBurst = 1
	router := newTestRouter(t, nil, apiCfg)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "2", second.Header().Get("Retry-After"))

	// 헬스체크는 한도 밖
	health := httptest.NewRecorder()
	router.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

// blockingAnalyzer waits for the request context to end
type blockingAnalyzer struct{}

func (blockingAnalyzer) Analyze(ctx context.Context, _ *contracts.RawMetricsBundle, _ contracts.Mode) (*contracts.CompositeAnalysisResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRouter_RequestTimeout(t *testing.T) {
	apiCfg := testAPIConfig()
	apiCfg.RequestTimeout = 20 * time.Millisecond
	router := newTestRouter(t, blockingAnalyzer{}, apiCfg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"symbol":"ACME"}`)))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

// panickingAnalyzer always panics
type panickingAnalyzer struct{}

func (panickingAnalyzer) Analyze(context.Context, *contracts.RawMetricsBundle, contracts.Mode) (*contracts.CompositeAnalysisResult, error) {
	panic("unexpected")
}

func TestRouter_RecoversPanics(t *testing.T) {
	router := newTestRouter(t, panickingAnalyzer{}, testAPIConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"symbol":"ACME"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestServer_New(t *testing.T) {
	cfg := &config.Config{Port: "9999", Env: "test", API: testAPIConfig()}
	srv := New(cfg, logger.NewNop(), http.NotFoundHandler())

	assert.Equal(t, ":9999", srv.Addr())
	assert.Equal(t, 10*time.Second, srv.httpServer.WriteTimeout)
	assert.NoError(t, srv.Shutdown(context.Background()))
}
