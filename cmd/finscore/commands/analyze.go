package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/finscore/internal/analysis"
	"github.com/wonny/finscore/internal/contracts"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [bundle.json ...]",
	Short: "지표 번들 분석",
	Long: `RawMetricsBundle JSON 파일을 분석하여 종합 점수와 추천을 출력합니다.

파일 경로 대신 "-" 를 주면 stdin 에서 읽습니다.
--save 를 주면 DATABASE_URL 이 설정된 경우 분석 이력을 저장합니다.

Modes:
  standard       - fundamental / technical / sentiment
  comprehensive  - 모든 카테고리

Example:
  go run ./cmd/finscore analyze bundle.json
  go run ./cmd/finscore analyze --mode comprehensive a.json b.json
  cat bundle.json | go run ./cmd/finscore analyze --output json -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeMode   string
	analyzeOutput string
	analyzeSave   bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", string(contracts.ModeStandard), "analysis mode (standard|comprehensive)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "table", "output format (table|json)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "save runs to the audit database")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	mode, err := contracts.ParseMode(analyzeMode)
	if err != nil {
		return err
	}
	if analyzeOutput != "table" && analyzeOutput != "json" {
		return fmt.Errorf("unknown output format %q", analyzeOutput)
	}

	rt, err := newRuntime(false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []analysis.ServiceOption
	if analyzeSave {
		db, repo, err := rt.openStore(ctx)
		if err != nil {
			return err
		}
		if repo == nil {
			return fmt.Errorf("--save requires DATABASE_URL")
		}
		defer db.Close()
		opts = append(opts, analysis.WithRunStore(repo))
	}
	service := analysis.NewService(rt.engine, rt.log, opts...)

	results := make([]*contracts.CompositeAnalysisResult, 0, len(args))
	for _, path := range args {
		bundle, err := readBundle(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}
		result, err := service.Analyze(ctx, bundle, mode)
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	return writeResults(cmd.OutOrStdout(), analyzeOutput, results)
}

// readBundle decodes one bundle from path, or stdin for "-"
func readBundle(stdin io.Reader, path string) (*contracts.RawMetricsBundle, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open bundle: %w", err)
		}
		defer f.Close()
		r = f
	}

	var bundle contracts.RawMetricsBundle
	if err := json.NewDecoder(r).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decode bundle %s: %w", path, err)
	}
	if bundle.Symbol == "" {
		return nil, fmt.Errorf("bundle %s: symbol is required", path)
	}
	return &bundle, nil
}

func writeResults(w io.Writer, format string, results []*contracts.CompositeAnalysisResult) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0])
		}
		return enc.Encode(results)
	}

	for _, r := range results {
		PrintAnalysis(w, r)
	}
	return nil
}
