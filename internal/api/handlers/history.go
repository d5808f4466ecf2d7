package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/finscore/internal/audit"
	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/pkg/logger"
)

const maxHistoryLimit = 100

// RunReader reads stored analysis runs. *audit.Repository satisfies it.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*contracts.CompositeAnalysisResult, error)
	History(ctx context.Context, symbol string, limit int) ([]audit.RunSummary, error)
}

// HistoryHandler serves stored analysis runs
type HistoryHandler struct {
	runs   RunReader
	logger *logger.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(runs RunReader, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{runs: runs, logger: log}
}

// GetRun returns one stored result
// GET /api/runs/{id}
func (h *HistoryHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, err := h.runs.GetRun(r.Context(), id)
	if errors.Is(err, audit.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Failed to get analysis run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve analysis run")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// History returns the newest runs for a symbol
// GET /api/symbols/{symbol}/runs?limit=20
func (h *HistoryHandler) History(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(l, maxHistoryLimit)
	}

	runs, err := h.runs.History(r.Context(), symbol, limit)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get run history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"count":  len(runs),
		"runs":   runs,
	})
}
