package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finscore/internal/audit"
	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
)

const defaultScoringConfig = "../../../configs/scoring.yaml"

// execute runs the root command with args and captures its output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		scoringConfig = ""
		configFormat = "yaml"
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func sampleResult() *contracts.CompositeAnalysisResult {
	return &contracts.CompositeAnalysisResult{
		ID:             "run-1",
		Symbol:         "ACME",
		Mode:           contracts.ModeStandard,
		OverallScore:   contracts.Known(77),
		Recommendation: contracts.Buy,
		Confidence:     contracts.Known(41.5),
		RiskLevel:      contracts.RiskHigh,
		PriceTarget:    contracts.Known(105.4),
		CategoryScores: map[contracts.Category]contracts.CategoryScore{
			contracts.CategorySentiment:   {Category: contracts.CategorySentiment, Score: contracts.Known(60), Rating: contracts.RatingGood, Coverage: 1},
			contracts.CategoryFundamental: {Category: contracts.CategoryFundamental, Score: contracts.Known(85), Rating: contracts.RatingExcellent, Coverage: 0.75},
			contracts.CategoryTechnical:   contracts.UnknownScore(contracts.CategoryTechnical),
		},
		EffectiveWeights: map[contracts.Category]float64{
			contracts.CategoryFundamental: 0.5 / 0.7,
			contracts.CategorySentiment:   0.2 / 0.7,
		},
		Insights: []string{"Strong fundamentals (score 85)"},
		Warnings: []string{"technical: scoring failed: boom"},
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	widths := []int{6, 4}
	PrintTableHeader(&buf, []string{"Name", "Val"}, widths)
	PrintTableRow(&buf, []string{"abc", "1"}, widths)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name    Val ", lines[0])
	assert.Equal(t, strings.Repeat("─", 12), lines[1])
	assert.Equal(t, "abc     1   ", lines[2])
}

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	PrintAnalysis(&buf, sampleResult())
	out := buf.String()

	assert.Contains(t, out, "ACME (standard)")
	assert.Contains(t, out, "Recommendation : BUY")
	assert.Contains(t, out, "Price Target   : 105.40")
	assert.Contains(t, out, "Strong fundamentals (score 85)")
	assert.Contains(t, out, "technical: scoring failed: boom")

	// 카테고리는 고정 순서로 출력
	fi := strings.Index(out, "fundamental")
	ti := strings.Index(out, "technical ")
	si := strings.Index(out, "sentiment")
	require.True(t, fi >= 0 && ti >= 0 && si >= 0)
	assert.Less(t, fi, ti)
	assert.Less(t, ti, si)

	assert.Contains(t, out, "0.71")
	assert.Contains(t, out, "75%")
	assert.Contains(t, out, "n/a")
}

func TestPrintAnalysis_NoPriceTarget(t *testing.T) {
	r := sampleResult()
	r.PriceTarget = contracts.Unknown()
	r.Insights = nil

	var buf bytes.Buffer
	PrintAnalysis(&buf, r)

	assert.NotContains(t, buf.String(), "Price Target")
	assert.NotContains(t, buf.String(), "Insights:")
}

func TestPrintHistory(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		PrintHistory(&buf, "ACME", nil)
		assert.Contains(t, buf.String(), "No analysis runs for ACME")
	})

	t.Run("rows", func(t *testing.T) {
		var buf bytes.Buffer
		PrintHistory(&buf, "ACME", []audit.RunSummary{{
			ID:             "run-1",
			Symbol:         "ACME",
			Mode:           contracts.ModeComprehensive,
			OverallScore:   contracts.Known(64.31),
			Recommendation: contracts.Hold,
			Confidence:     contracts.Unknown(),
			ConfigHash:     "abcdef0123456789",
			AnalyzedAt:     time.Date(2024, 12, 31, 9, 0, 0, 0, time.UTC),
		}})

		out := buf.String()
		assert.Contains(t, out, "2024-12-31 09:00:00")
		assert.Contains(t, out, "comprehensive")
		assert.Contains(t, out, "64.3")
		assert.Contains(t, out, "abcdef012345")
		assert.NotContains(t, out, "abcdef0123456")
	})
}

func TestReadBundle(t *testing.T) {
	body := `{"symbol":"ACME","price":100,"fundamentals":{"pe_ratio":12}}`

	t.Run("stdin", func(t *testing.T) {
		b, err := readBundle(strings.NewReader(body), "-")
		require.NoError(t, err)
		assert.Equal(t, "ACME", b.Symbol)
		assert.Equal(t, 100.0, b.Price.OrElse(0))
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bundle.json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		b, err := readBundle(nil, path)
		require.NoError(t, err)
		assert.Equal(t, "ACME", b.Symbol)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readBundle(nil, filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorContains(t, err, "open bundle")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := readBundle(strings.NewReader("{"), "-")
		assert.ErrorContains(t, err, "decode bundle")
	})

	t.Run("missing symbol", func(t *testing.T) {
		_, err := readBundle(strings.NewReader(`{"price":1}`), "-")
		assert.ErrorContains(t, err, "symbol is required")
	})
}

func TestWriteResults_JSON(t *testing.T) {
	t.Run("single result is an object", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeResults(&buf, "json", []*contracts.CompositeAnalysisResult{sampleResult()}))

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "ACME", got["symbol"])
		assert.Equal(t, 77.0, got["overall_score"])
	})

	t.Run("several results are an array", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeResults(&buf, "json", []*contracts.CompositeAnalysisResult{sampleResult(), sampleResult()}))

		var got []map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Len(t, got, 2)
	})
}

func TestConfigValidateCommand(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		out, err := execute(t, "config", "validate", "--scoring-config", defaultScoringConfig)
		require.NoError(t, err)
		assert.Contains(t, out, "Scoring config is valid")
		assert.Contains(t, out, "Hash")
	})

	t.Run("weights do not sum to one", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scoring.yaml")
		require.NoError(t, os.WriteFile(path, []byte("weights:\n  standard:\n    fundamental: 0.9\n"), 0o644))

		out, err := execute(t, "config", "validate", "--scoring-config", path)
		require.Error(t, err)

		var verr strategyconfig.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "weights.standard", verr.Field)
		assert.Contains(t, out, "weights.standard")
	})

	t.Run("unknown field", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scoring.yaml")
		require.NoError(t, os.WriteFile(path, []byte("wieghts: {}\n"), 0o644))

		_, err := execute(t, "config", "validate", "--scoring-config", path)
		assert.ErrorContains(t, err, "decode scoring config")
	})
}

func TestConfigShowCommand(t *testing.T) {
	out, err := execute(t, "config", "show", "--format", "json", "--scoring-config", defaultScoringConfig)
	require.NoError(t, err)

	var cfg strategyconfig.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.NotEmpty(t, cfg.Meta.Name)
	assert.InDelta(t, 1.0, sum(cfg.Weights.Standard.Values()), 1e-9)

	_, err = execute(t, "config", "show", "--format", "toml", "--scoring-config", defaultScoringConfig)
	assert.ErrorContains(t, err, "unknown format")
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
