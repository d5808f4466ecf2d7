package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finscore/internal/audit"
	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

// fakeAnalyzer echoes the bundle symbol and mode
type fakeAnalyzer struct {
	err      error
	gotMode  contracts.Mode
	gotCalls int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, b *contracts.RawMetricsBundle, mode contracts.Mode) (*contracts.CompositeAnalysisResult, error) {
	f.gotCalls++
	f.gotMode = mode
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.CompositeAnalysisResult{
		ID:             "run-1",
		Symbol:         b.Symbol,
		Mode:           mode,
		OverallScore:   contracts.Known(74.3),
		Recommendation: contracts.Buy,
		Insights:       []string{},
		Warnings:       []string{},
	}, nil
}

func newHandler(a Analyzer, maxBody int64) *AnalysisHandler {
	return NewAnalysisHandler(a, strategyconfig.DefaultConfig(), "abc123", maxBody, logger.NewNop())
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAnalyze_OK(t *testing.T) {
	fake := &fakeAnalyzer{}
	h := newHandler(fake, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze?mode=comprehensive",
		strings.NewReader(`{"symbol":"ACME","price":101.5,"fundamentals":{"pe_ratio":null,"roe":17}}`))
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, contracts.ModeComprehensive, fake.gotMode)

	var res contracts.CompositeAnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "ACME", res.Symbol)
	assert.Equal(t, contracts.Buy, res.Recommendation)
	assert.InDelta(t, 74.3, res.OverallScore.OrElse(-1), 1e-9)
}

func TestAnalyze_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		body     string
		wantCode int
		wantText string
	}{
		{"unknown mode", "/api/analyze?mode=turbo", `{"symbol":"ACME"}`, http.StatusBadRequest, "unknown analysis mode"},
		{"malformed json", "/api/analyze", `{"symbol":`, http.StatusBadRequest, "invalid JSON body"},
		{"unknown field", "/api/analyze", `{"symbol":"ACME","ticker":"X"}`, http.StatusBadRequest, "invalid JSON body"},
		{"missing symbol", "/api/analyze", `{"price":10}`, http.StatusBadRequest, "symbol: required"},
		{"negative close", "/api/analyze", `{"symbol":"ACME","prices":[{"close":-1}]}`, http.StatusBadRequest, "prices[0].close: must satisfy gte=0"},
		{"negative analyst count", "/api/analyze", `{"symbol":"ACME","sentiment":{"analyst_ratings":{"buy":-2}}}`, http.StatusBadRequest, "sentiment.analyst_ratings.buy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAnalyzer{}
			h := newHandler(fake, 1<<20)

			rec := httptest.NewRecorder()
			h.Analyze(rec, httptest.NewRequest(http.MethodPost, tt.url, strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantText)
			assert.Zero(t, fake.gotCalls)
		})
	}
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	h := newHandler(&fakeAnalyzer{}, 64)

	body := fmt.Sprintf(`{"symbol":"ACME","statements":[%s{}]}`, strings.Repeat(`{},`, 100))
	rec := httptest.NewRecorder()
	h.Analyze(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyze_AnalyzerErrors(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
	}{
		{fmt.Errorf("analyze ACME: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		h := newHandler(&fakeAnalyzer{err: tt.err}, 1<<20)
		rec := httptest.NewRecorder()
		h.Analyze(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"symbol":"ACME"}`)))
		assert.Equal(t, tt.wantCode, rec.Code, tt.err.Error())
	}
}

func TestGetConfig(t *testing.T) {
	h := newHandler(&fakeAnalyzer{}, 1<<20)

	rec := httptest.NewRecorder()
	h.GetConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var res ConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "abc123", res.Hash)
	assert.Equal(t, "default", res.Name)
	assert.InDelta(t, 0.5, res.Weights.Standard.Fundamental, 1e-12)
	assert.InDelta(t, 0.05, res.Weights.Comprehensive.Risk, 1e-12)
	assert.InDelta(t, 80, res.Thresholds.StrongBuy, 1e-12)
	assert.Len(t, res.Categories, 8)
	assert.Contains(t, res.Normalization[contracts.CategoryFundamental], strategyconfig.MetricROE)
}

// fakeRuns is an in-memory RunReader
type fakeRuns struct {
	runs     map[string]*contracts.CompositeAnalysisResult
	gotLimit int
	err      error
}

func (f *fakeRuns) GetRun(_ context.Context, id string) (*contracts.CompositeAnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", audit.ErrRunNotFound, id)
	}
	return r, nil
}

func (f *fakeRuns) History(_ context.Context, symbol string, limit int) ([]audit.RunSummary, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []audit.RunSummary{{ID: "run-1", Symbol: symbol, AnalyzedAt: time.Unix(0, 0).UTC()}}, nil
}

func TestHistory_GetRun(t *testing.T) {
	runs := &fakeRuns{runs: map[string]*contracts.CompositeAnalysisResult{
		"run-1": {ID: "run-1", Symbol: "ACME", Recommendation: contracts.Hold},
	}}
	h := NewHistoryHandler(runs, logger.NewNop())

	rec := httptest.NewRecorder()
	h.GetRun(rec, mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil), map[string]string{"id": "run-1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HOLD", decodeBody(t, rec)["recommendation"])

	rec = httptest.NewRecorder()
	h.GetRun(rec, mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil), map[string]string{"id": "nope"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	runs.err = errors.New("db down")
	rec = httptest.NewRecorder()
	h.GetRun(rec, mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil), map[string]string{"id": "run-1"}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHistory_Limit(t *testing.T) {
	tests := []struct {
		query     string
		wantCode  int
		wantLimit int
	}{
		{"", http.StatusOK, 20},
		{"?limit=5", http.StatusOK, 5},
		{"?limit=500", http.StatusOK, 100},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		runs := &fakeRuns{}
		h := NewHistoryHandler(runs, logger.NewNop())

		req := httptest.NewRequest(http.MethodGet, "/api/symbols/ACME/runs"+tt.query, nil)
		rec := httptest.NewRecorder()
		h.History(rec, mux.SetURLVars(req, map[string]string{"symbol": "ACME"}))

		assert.Equal(t, tt.wantCode, rec.Code, tt.query)
		assert.Equal(t, tt.wantLimit, runs.gotLimit, tt.query)
		if tt.wantCode == http.StatusOK {
			body := decodeBody(t, rec)
			assert.Equal(t, "ACME", body["symbol"])
			assert.EqualValues(t, 1, body["count"])
		}
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler("finscore", nil).Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	h := NewHealthHandler("finscore", map[string]Checker{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	rec = httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	deps := body["dependencies"].(map[string]interface{})
	assert.Equal(t, "ok", deps["postgres"])
	assert.Equal(t, "connection refused", deps["redis"])
}
