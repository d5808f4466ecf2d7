package strategyconfig

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/finscore/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var structValidator = newStructValidator()

// newStructValidator reports fields by their YAML path
func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks all required constraints
// 실패 시 error 반환 (엔진/서버 기동 중단)
func Validate(cfg *Config) error {
	if cfg == nil {
		return ValidationError{"config", "required"}
	}

	// === 범위 검증 (struct tag) ===
	if err := structValidator.Struct(cfg); err != nil {
		return fromValidatorError(err)
	}

	// === Weights ===
	if err := validateWeightsSum(cfg.Weights.Standard.Values(), 1.0, WeightEpsilon); err != nil {
		return ValidationError{"weights.standard", err.Error()}
	}
	if err := validateWeightsSum(cfg.Weights.Comprehensive.Values(), 1.0, WeightEpsilon); err != nil {
		return ValidationError{"weights.comprehensive", err.Error()}
	}

	// === Recommendation ===
	th := cfg.Recommendation.Thresholds
	if !(0 < th.Sell && th.Sell < th.Hold && th.Hold < th.Buy && th.Buy < th.StrongBuy && th.StrongBuy <= 100) {
		return ValidationError{
			Field: "recommendation.thresholds",
			Message: fmt.Sprintf("must satisfy 0 < sell < hold < buy < strong_buy <= 100, got sell=%.2f hold=%.2f buy=%.2f strong_buy=%.2f",
				th.Sell, th.Hold, th.Buy, th.StrongBuy),
		}
	}

	// === DCF ===
	if cfg.DCF.TerminalGrowthRate >= cfg.DCF.DiscountRate {
		return ValidationError{"dcf.terminal_growth_rate", "must be < dcf.discount_rate"}
	}

	// === Confidence ===
	if cfg.Confidence.Floor >= cfg.Confidence.Cap {
		return ValidationError{"confidence", "floor must be < cap"}
	}

	// === Momentum ===
	w := cfg.Momentum.Windows
	if !(w.OneMonth < w.ThreeMonth && w.ThreeMonth < w.SixMonth) {
		return ValidationError{"momentum.windows", "must be increasing: one_month < three_month < six_month"}
	}

	// === Technical ===
	if cfg.Technical.MACDFast >= cfg.Technical.MACDSlow {
		return ValidationError{"technical", "macd_fast must be < macd_slow"}
	}

	// === Quality ===
	if err := validateWeightsSum([]float64{cfg.Quality.CashConversionWeight, cfg.Quality.AccrualsWeight}, 1.0, WeightEpsilon); err != nil {
		return ValidationError{"quality", "cash_conversion_weight + accruals_weight " + err.Error()}
	}

	// === Insights ===
	if cfg.Insights.RSIOversold >= cfg.Insights.RSIOverbought {
		return ValidationError{"insights", "rsi_oversold must be < rsi_overbought"}
	}
	if cfg.Insights.WeakCategory >= cfg.Insights.StrongCategory {
		return ValidationError{"insights", "weak_category must be < strong_category"}
	}
	if cfg.Insights.PiotroskiWeakMax >= cfg.Insights.PiotroskiStrongMin {
		return ValidationError{"insights", "piotroski_weak_max must be < piotroski_strong_min"}
	}

	// === Normalization ===
	return validateNormalization(cfg.Normalization)
}

// validateNormalization checks every category table against the known
// metric set. 카테고리는 결정적 순서로 검사
func validateNormalization(tables map[contracts.Category]map[string]MetricRule) error {
	known := DefaultNormalization()

	for cat := range tables {
		if !cat.Valid() {
			return ValidationError{fmt.Sprintf("normalization.%s", cat), "unknown category"}
		}
	}

	for _, cat := range contracts.AllCategories {
		rules, ok := tables[cat]
		if !ok || len(rules) == 0 {
			return ValidationError{fmt.Sprintf("normalization.%s", cat), "required"}
		}

		names := make([]string, 0, len(rules))
		for name := range rules {
			names = append(names, name)
		}
		sort.Strings(names)

		weights := make([]float64, 0, len(rules))
		for _, name := range names {
			field := fmt.Sprintf("normalization.%s.%s", cat, name)
			if _, ok := known[cat][name]; !ok {
				return ValidationError{field, "unknown metric"}
			}

			rule := rules[name]
			if err := structValidator.Struct(rule); err != nil {
				ve := fromValidatorError(err)
				return ValidationError{field + "." + ve.Field, ve.Message}
			}
			if err := validateRuleOrder(rule); err != nil {
				return ValidationError{field, err.Error()}
			}
			weights = append(weights, rule.Weight)
		}

		if err := validateWeightsSum(weights, 1.0, WeightEpsilon); err != nil {
			return ValidationError{fmt.Sprintf("normalization.%s", cat), "weights " + err.Error()}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 표본 30 미만은 베타/샤프 추정이 불안정
	if cfg.Risk.MinSamplePeriods < 30 {
		warnings = append(warnings, Warning{
			Code:    "LOW_MIN_SAMPLES",
			Message: fmt.Sprintf("risk.min_sample_periods=%d < 30: beta/sharpe estimates are noisy", cfg.Risk.MinSamplePeriods),
		})
	}

	// 할인율과 영구성장률 차이가 작으면 terminal value가 DCF를 지배
	if cfg.DCF.DiscountRate-cfg.DCF.TerminalGrowthRate < 0.03 {
		warnings = append(warnings, Warning{
			Code:    "NARROW_DCF_SPREAD",
			Message: "dcf.discount_rate - dcf.terminal_growth_rate < 3%: terminal value dominates intrinsic value",
		})
	}

	if cfg.DCF.GrowthRateCap > 0.25 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_GROWTH_CAP",
			Message: "dcf.growth_rate_cap > 25%: projections may run away",
		})
	}

	if cfg.Confidence.Cap-cfg.Confidence.Floor < 20 {
		warnings = append(warnings, Warning{
			Code:    "FLAT_CONFIDENCE",
			Message: "confidence cap - floor < 20: confidence barely moves with agreement",
		})
	}

	return warnings
}

// === Helper Functions ===

func fromValidatorError(err error) ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ValidationError{"config", err.Error()}
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:] // drop the root type name
	}

	msg := fmt.Sprintf("failed %q", fe.Tag())
	if fe.Param() != "" {
		msg = fmt.Sprintf("must satisfy %s=%s, got %v", fe.Tag(), fe.Param(), fe.Value())
	}
	return ValidationError{Field: field, Message: msg}
}

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.6f", target, sum)
	}
	return nil
}

// validateRuleOrder는 good/fair 방향이 direction과 일치하는지 검증
func validateRuleOrder(rule MetricRule) error {
	switch rule.Direction {
	case HigherIsBetter:
		if rule.Good <= rule.Fair {
			return errors.New("higher_is_better requires good > fair")
		}
	case LowerIsBetter:
		if rule.Good >= rule.Fair {
			return errors.New("lower_is_better requires good < fair")
		}
	default:
		return fmt.Errorf("unknown direction %q", rule.Direction)
	}
	return nil
}
