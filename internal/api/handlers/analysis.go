package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

// Analyzer runs one analysis
type Analyzer interface {
	Analyze(ctx context.Context, bundle *contracts.RawMetricsBundle, mode contracts.Mode) (*contracts.CompositeAnalysisResult, error)
}

// AnalysisHandler handles scoring API endpoints
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	analyzer   Analyzer
	cfg        *strategyconfig.Config
	configHash string
	validate   *validator.Validate
	maxBody    int64
	logger     *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer Analyzer, cfg *strategyconfig.Config, configHash string, maxBody int64, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer:   analyzer,
		cfg:        cfg,
		configHash: configHash,
		validate:   newBundleValidator(),
		maxBody:    maxBody,
		logger:     log,
	}
}

// Analyze scores the posted bundle
// POST /api/analyze?mode=standard|comprehensive
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	mode, err := contracts.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var bundle contracts.RawMetricsBundle
	if err := dec.Decode(&bundle); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if err := h.validate.Struct(&bundle); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "invalid bundle",
			"fields": validationMessages(err),
		})
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), &bundle, mode)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			respondError(w, http.StatusGatewayTimeout, "analysis timed out")
		case errors.Is(err, context.Canceled):
			respondError(w, http.StatusServiceUnavailable, "analysis canceled")
		default:
			h.logger.WithError(err).WithField("symbol", bundle.Symbol).Error("Analysis failed")
			respondError(w, http.StatusInternalServerError, "analysis failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ConfigResponse describes the active scoring policy
type ConfigResponse struct {
	Name          string                                                      `json:"name"`
	Version       string                                                      `json:"version"`
	Hash          string                                                      `json:"hash"`
	Weights       strategyconfig.Weights                                      `json:"weights"`
	Thresholds    strategyconfig.Thresholds                                   `json:"thresholds"`
	Confidence    strategyconfig.Confidence                                   `json:"confidence"`
	Categories    []contracts.Category                                        `json:"categories"`
	Normalization map[contracts.Category]map[string]strategyconfig.MetricRule `json:"normalization"`
}

// GetConfig returns the active scoring policy
// GET /api/config
func (h *AnalysisHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		Name:          h.cfg.Meta.Name,
		Version:       h.cfg.Meta.Version,
		Hash:          h.configHash,
		Weights:       h.cfg.Weights,
		Thresholds:    h.cfg.Recommendation.Thresholds,
		Confidence:    h.cfg.Confidence,
		Categories:    contracts.AllCategories,
		Normalization: h.cfg.Normalization,
	})
}

// newBundleValidator reports fields by their JSON path
func newBundleValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s: must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			out = append(out, fmt.Sprintf("%s: %s", field, fe.Tag()))
		}
	}
	return out
}
