package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/finscore/internal/contracts"
)

// Recorder receives analysis telemetry
type Recorder interface {
	RecordAnalysis(mode contracts.Mode, rec contracts.Recommendation, d time.Duration)
	RecordCategory(cat contracts.Category, known bool)
	RecordCache(hit bool)
	RecordError(stage string)
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordAnalysis(contracts.Mode, contracts.Recommendation, time.Duration) {}
func (Nop) RecordCategory(contracts.Category, bool)                                {}
func (Nop) RecordCache(bool)                                                       {}
func (Nop) RecordError(string)                                                     {}

// Registry holds the Prometheus collectors for analysis runs
// ⭐ SSOT: 메트릭 정의는 여기서만
type Registry struct {
	reg *prometheus.Registry

	Analyses         *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	Categories       *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	Errors           *prometheus.CounterVec
}

// NewRegistry creates a registry with process and Go collectors attached
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_analyses_total",
				Help: "Completed analyses by mode and recommendation",
			},
			[]string{"mode", "recommendation"},
		),

		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finscore_analysis_duration_seconds",
				Help:    "Wall time of one analysis",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"mode"},
		),

		Categories: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_category_results_total",
				Help: "Category results by outcome (scored or unknown)",
			},
			[]string{"category", "outcome"},
		),

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_cache_lookups_total",
				Help: "Result cache lookups by outcome",
			},
			[]string{"outcome"},
		),

		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_errors_total",
				Help: "Failures by stage",
			},
			[]string{"stage"},
		),
	}

	r.reg.MustRegister(
		r.Analyses,
		r.AnalysisDuration,
		r.Categories,
		r.CacheLookups,
		r.Errors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// RecordAnalysis implements Recorder
func (r *Registry) RecordAnalysis(mode contracts.Mode, rec contracts.Recommendation, d time.Duration) {
	r.Analyses.WithLabelValues(string(mode), string(rec)).Inc()
	r.AnalysisDuration.WithLabelValues(string(mode)).Observe(d.Seconds())
}

// RecordCategory implements Recorder
func (r *Registry) RecordCategory(cat contracts.Category, known bool) {
	outcome := "scored"
	if !known {
		outcome = "unknown"
	}
	r.Categories.WithLabelValues(string(cat), outcome).Inc()
}

// RecordCache implements Recorder
func (r *Registry) RecordCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.CacheLookups.WithLabelValues(outcome).Inc()
}

// RecordError implements Recorder
func (r *Registry) RecordError(stage string) {
	r.Errors.WithLabelValues(stage).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
