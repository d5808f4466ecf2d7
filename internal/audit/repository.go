package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wonny/finscore/internal/contracts"
)

// ErrRunNotFound is returned when no run matches the ID
var ErrRunNotFound = errors.New("analysis run not found")

// Schema creates the run history table
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS audit`,
	`CREATE TABLE IF NOT EXISTS audit.analysis_runs (
		id             TEXT PRIMARY KEY,
		symbol         TEXT NOT NULL,
		mode           TEXT NOT NULL,
		overall_score  DOUBLE PRECISION,
		recommendation TEXT NOT NULL,
		confidence     DOUBLE PRECISION,
		risk_level     TEXT NOT NULL,
		config_hash    TEXT NOT NULL,
		bundle_hash    TEXT NOT NULL,
		result         JSONB NOT NULL,
		analyzed_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_runs_symbol_time
		ON audit.analysis_runs (symbol, analyzed_at DESC)`,
}

// Executor is the subset of *pgxpool.Pool the repository needs
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RunSummary is one row of a symbol's analysis history
type RunSummary struct {
	ID             string                   `json:"id"`
	Symbol         string                   `json:"symbol"`
	Mode           contracts.Mode           `json:"mode"`
	OverallScore   contracts.Float          `json:"overall_score"`
	Recommendation contracts.Recommendation `json:"recommendation"`
	Confidence     contracts.Float          `json:"confidence"`
	ConfigHash     string                   `json:"config_hash"`
	AnalyzedAt     time.Time                `json:"analyzed_at"`
}

// Repository handles analysis run persistence
// ⭐ SSOT: 분석 이력 저장/조회는 여기서만
type Repository struct {
	db Executor
}

// NewRepository creates a new audit repository
func NewRepository(db Executor) *Repository {
	return &Repository{db: db}
}

// SaveRun stores one finished analysis. Saving the same ID twice keeps
// the latest result.
func (r *Repository) SaveRun(ctx context.Context, result *contracts.CompositeAnalysisResult, bundleHash string) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `
		INSERT INTO audit.analysis_runs (
			id, symbol, mode, overall_score, recommendation, confidence,
			risk_level, config_hash, bundle_hash, result, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			recommendation = EXCLUDED.recommendation,
			confidence = EXCLUDED.confidence,
			risk_level = EXCLUDED.risk_level,
			result = EXCLUDED.result
	`

	_, err = r.db.Exec(ctx, query,
		result.ID, strings.ToUpper(result.Symbol), string(result.Mode),
		nullable(result.OverallScore), string(result.Recommendation), nullable(result.Confidence),
		string(result.RiskLevel), result.ConfigHash, bundleHash, resultJSON, result.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis run: %w", err)
	}

	return nil
}

// GetRun retrieves the full result of one run
func (r *Repository) GetRun(ctx context.Context, id string) (*contracts.CompositeAnalysisResult, error) {
	query := `SELECT result FROM audit.analysis_runs WHERE id = $1`

	var resultJSON []byte
	err := r.db.QueryRow(ctx, query, id).Scan(&resultJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis run: %w", err)
	}

	var result contracts.CompositeAnalysisResult
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// History returns the newest runs for a symbol, newest first
func (r *Repository) History(ctx context.Context, symbol string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	// 한 행으로 집계해서 받음
	query := `
		SELECT COALESCE(json_agg(h ORDER BY h.analyzed_at DESC), '[]'::json)
		FROM (
			SELECT id, symbol, mode, overall_score, recommendation, confidence,
			       config_hash, analyzed_at
			FROM audit.analysis_runs
			WHERE symbol = $1
			ORDER BY analyzed_at DESC
			LIMIT $2
		) h
	`

	var rowsJSON []byte
	if err := r.db.QueryRow(ctx, query, strings.ToUpper(symbol), limit).Scan(&rowsJSON); err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}

	var runs []RunSummary
	if err := json.Unmarshal(rowsJSON, &runs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run history: %w", err)
	}
	return runs, nil
}

func nullable(f contracts.Float) *float64 {
	if v, ok := f.Get(); ok {
		return &v
	}
	return nil
}
