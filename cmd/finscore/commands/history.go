package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wonny/finscore/internal/audit"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history SYMBOL",
	Short: "종목별 분석 이력 조회",
	Long: `audit.analysis_runs 에 저장된 분석 이력을 최신순으로 출력합니다.
DATABASE_URL 이 필요합니다.

Example:
  go run ./cmd/finscore history AAPL
  go run ./cmd/finscore history AAPL --limit 5 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

var (
	historyLimit  int
	historyOutput string
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "max runs to show")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "table", "output format (table|json)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, repo, err := rt.openStore(ctx)
	if err != nil {
		return err
	}
	if repo == nil {
		return fmt.Errorf("history requires DATABASE_URL")
	}
	defer db.Close()

	runs, err := repo.History(ctx, args[0], historyLimit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if historyOutput == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	PrintHistory(w, args[0], runs)
	return nil
}

// PrintHistory renders stored runs as a table
func PrintHistory(w io.Writer, symbol string, runs []audit.RunSummary) {
	if len(runs) == 0 {
		PrintWarning(w, fmt.Sprintf("No analysis runs for %s", symbol))
		return
	}

	widths := []int{20, 14, 8, 14, 10, 12}
	PrintTableHeader(w, []string{"Analyzed At", "Mode", "Score", "Recommendation", "Confidence", "Config"}, widths)
	for _, run := range runs {
		cfgHash := run.ConfigHash
		if len(cfgHash) > 12 {
			cfgHash = cfgHash[:12]
		}
		PrintTableRow(w, []string{
			run.AnalyzedAt.UTC().Format("2006-01-02 15:04:05"),
			string(run.Mode),
			formatScore(run.OverallScore),
			string(run.Recommendation),
			formatScore(run.Confidence),
			cfgHash,
		}, widths)
	}
}
