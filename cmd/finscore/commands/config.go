package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/config"
)

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "스코어링 설정 검증 / 조회",
	Long: `스코어링 정책 파일(가중치, 임계값, 정규화 테이블)을 검증하거나 출력합니다.

--scoring-config 가 없으면 $SCORING_CONFIG, 그다음 내장 기본값을 사용합니다.

Example:
  go run ./cmd/finscore config validate --scoring-config configs/scoring.yaml
  go run ./cmd/finscore config show --format json`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "설정 검증",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "유효 설정 출력",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var (
	configFormat string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "output format (yaml|json)")
}

// scoringConfigPath resolves the flag, then $SCORING_CONFIG
func scoringConfigPath() (string, error) {
	if scoringConfig != "" {
		return scoringConfig, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.ScoringConfigPath, nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	path, err := scoringConfigPath()
	if err != nil {
		return err
	}

	// Load 가 검증까지 수행
	cfg, _, err := strategyconfig.Load(path)
	if err != nil {
		var verr strategyconfig.ValidationError
		if errors.As(err, &verr) {
			PrintError(w, fmt.Sprintf("%s: %s", verr.Field, verr.Message))
		} else {
			PrintError(w, err.Error())
		}
		return err
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}

	source := path
	if source == "" {
		source = "built-in defaults"
	}
	PrintSuccess(w, fmt.Sprintf("Scoring config is valid (%s)", source))
	PrintKeyValue(w, "Name", cfg.Meta.Name, 8)
	PrintKeyValue(w, "Version", cfg.Meta.Version, 8)
	PrintKeyValue(w, "Hash", hash, 8)

	for _, warn := range strategyconfig.Warn(cfg) {
		PrintWarning(w, fmt.Sprintf("[%s] %s", warn.Code, warn.Message))
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := scoringConfigPath()
	if err != nil {
		return err
	}
	cfg, _, err := strategyconfig.Load(path)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch configFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("unknown format %q", configFormat)
	}
}
