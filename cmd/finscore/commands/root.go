package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	scoringConfig string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "finscore",
	Short: "finscore - 종합 재무 분석 / 추천 스코어링 엔진",
	Long: `finscore Unified CLI

원시 재무 지표 번들을 카테고리 점수, 종합 점수(0-100),
추천 등급, 신뢰도, 인사이트로 변환합니다.

Usage:
  go run ./cmd/finscore [command]

Examples:
  go run ./cmd/finscore analyze bundle.json
  go run ./cmd/finscore analyze --mode comprehensive --output json bundle.json
  go run ./cmd/finscore api
  go run ./cmd/finscore config validate --scoring-config configs/scoring.yaml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&scoringConfig, "scoring-config", "", "scoring policy YAML (default: $SCORING_CONFIG, then built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
