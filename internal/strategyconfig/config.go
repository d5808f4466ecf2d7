package strategyconfig

import "github.com/wonny/finscore/internal/contracts"

// Config는 스코어링 엔진 전체 설정
// ⭐ SSOT: 가중치/임계값/파라미터는 여기서만 정의 (전역 변수 금지)
type Config struct {
	Meta           Meta           `yaml:"meta" json:"meta"`
	Weights        Weights        `yaml:"weights" json:"weights"`
	Recommendation Recommendation `yaml:"recommendation" json:"recommendation"`
	Risk           Risk           `yaml:"risk" json:"risk"`
	DCF            DCF            `yaml:"dcf" json:"dcf"`
	Confidence     Confidence     `yaml:"confidence" json:"confidence"`
	Momentum       Momentum       `yaml:"momentum" json:"momentum"`
	Technical      Technical      `yaml:"technical" json:"technical"`
	Quality        Quality        `yaml:"quality" json:"quality"`
	Insights       Insights       `yaml:"insights" json:"insights"`

	// category → metric → rule
	Normalization map[contracts.Category]map[string]MetricRule `yaml:"normalization" json:"normalization"`
}

// Meta 메타 정보
type Meta struct {
	Name    string `yaml:"name" json:"name" validate:"required"`
	Version string `yaml:"version" json:"version"`
}

// Weights holds one category weight table per analysis mode
type Weights struct {
	Standard      CategoryWeights `yaml:"standard" json:"standard"`
	Comprehensive CategoryWeights `yaml:"comprehensive" json:"comprehensive"`
}

// CategoryWeights 카테고리별 가중치 (합 = 1.0). 0이면 해당 모드에서 제외
type CategoryWeights struct {
	Fundamental     float64 `yaml:"fundamental" json:"fundamental" validate:"gte=0,lte=1"`
	Technical       float64 `yaml:"technical" json:"technical" validate:"gte=0,lte=1"`
	Sentiment       float64 `yaml:"sentiment" json:"sentiment" validate:"gte=0,lte=1"`
	FinancialHealth float64 `yaml:"financial_health" json:"financial_health" validate:"gte=0,lte=1"`
	Valuation       float64 `yaml:"valuation" json:"valuation" validate:"gte=0,lte=1"`
	Quality         float64 `yaml:"quality" json:"quality" validate:"gte=0,lte=1"`
	Momentum        float64 `yaml:"momentum" json:"momentum" validate:"gte=0,lte=1"`
	Risk            float64 `yaml:"risk" json:"risk" validate:"gte=0,lte=1"`
}

// Get returns the weight of one category
func (w CategoryWeights) Get(c contracts.Category) float64 {
	switch c {
	case contracts.CategoryFundamental:
		return w.Fundamental
	case contracts.CategoryTechnical:
		return w.Technical
	case contracts.CategorySentiment:
		return w.Sentiment
	case contracts.CategoryFinancialHealth:
		return w.FinancialHealth
	case contracts.CategoryValuation:
		return w.Valuation
	case contracts.CategoryQuality:
		return w.Quality
	case contracts.CategoryMomentum:
		return w.Momentum
	case contracts.CategoryRisk:
		return w.Risk
	default:
		return 0
	}
}

// Categories returns the categories with a positive weight, in reporting order
func (w CategoryWeights) Categories() []contracts.Category {
	var out []contracts.Category
	for _, c := range contracts.AllCategories {
		if w.Get(c) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Values returns all weights in reporting order
func (w CategoryWeights) Values() []float64 {
	out := make([]float64, 0, len(contracts.AllCategories))
	for _, c := range contracts.AllCategories {
		out = append(out, w.Get(c))
	}
	return out
}

// ForMode returns the table for a mode
func (w Weights) ForMode(m contracts.Mode) CategoryWeights {
	if m == contracts.ModeComprehensive {
		return w.Comprehensive
	}
	return w.Standard
}

// Recommendation 추천 등급 임계값
type Recommendation struct {
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
}

// Thresholds are lower bounds of each label; below Sell is StrongSell
type Thresholds struct {
	StrongBuy float64 `yaml:"strong_buy" json:"strong_buy"`
	Buy       float64 `yaml:"buy" json:"buy"`
	Hold      float64 `yaml:"hold" json:"hold"`
	Sell      float64 `yaml:"sell" json:"sell"`
}

// Risk 리스크 지표 파라미터
type Risk struct {
	MinSamplePeriods   int     `yaml:"min_sample_periods" json:"min_sample_periods" validate:"gte=2"`
	RiskFreeRate       float64 `yaml:"risk_free_rate" json:"risk_free_rate" validate:"gte=0,lt=1"`
	TradingDaysPerYear int     `yaml:"trading_days_per_year" json:"trading_days_per_year" validate:"gt=0"`
	VaRConfidence      float64 `yaml:"var_confidence" json:"var_confidence" validate:"gt=0.5,lt=1"`
}

// DCF 현금흐름할인 파라미터
type DCF struct {
	HorizonYears       int     `yaml:"horizon_years" json:"horizon_years" validate:"gte=1,lte=30"`
	DiscountRate       float64 `yaml:"discount_rate" json:"discount_rate" validate:"gt=0,lt=1"`
	GrowthRateCap      float64 `yaml:"growth_rate_cap" json:"growth_rate_cap" validate:"gt=0,lt=1"`
	TerminalGrowthRate float64 `yaml:"terminal_growth_rate" json:"terminal_growth_rate" validate:"gte=0,lt=1"`
	DefaultGrowthRate  float64 `yaml:"default_growth_rate" json:"default_growth_rate" validate:"gte=-1,lt=1"`
}

// Confidence 신뢰도 범위
type Confidence struct {
	Floor float64 `yaml:"floor" json:"floor" validate:"gte=0,lte=100"`
	Cap   float64 `yaml:"cap" json:"cap" validate:"gte=0,lte=100"`
	// weighted score standard deviation at which confidence bottoms out
	DispersionScale float64 `yaml:"dispersion_scale" json:"dispersion_scale" validate:"gt=0"`
}

// Momentum 수익률 윈도우 (거래일)
type Momentum struct {
	Windows MomentumWindows `yaml:"windows" json:"windows"`
}

type MomentumWindows struct {
	OneMonth   int `yaml:"one_month" json:"one_month" validate:"gt=0"`
	ThreeMonth int `yaml:"three_month" json:"three_month" validate:"gt=0"`
	SixMonth   int `yaml:"six_month" json:"six_month" validate:"gt=0"`
}

// Technical 지표 기간 (가격 이력에서 직접 계산할 때 사용)
type Technical struct {
	RSIPeriod        int     `yaml:"rsi_period" json:"rsi_period" validate:"gte=2"`
	MACDFast         int     `yaml:"macd_fast" json:"macd_fast" validate:"gte=2"`
	MACDSlow         int     `yaml:"macd_slow" json:"macd_slow" validate:"gte=2"`
	MACDSignal       int     `yaml:"macd_signal" json:"macd_signal" validate:"gte=2"`
	BollingerPeriod  int     `yaml:"bollinger_period" json:"bollinger_period" validate:"gte=2"`
	BollingerStdDevs float64 `yaml:"bollinger_std_devs" json:"bollinger_std_devs" validate:"gt=0"`
}

// Quality 이익의 질 파라미터
type Quality struct {
	CashConversionWeight float64 `yaml:"cash_conversion_weight" json:"cash_conversion_weight" validate:"gte=0,lte=1"`
	AccrualsWeight       float64 `yaml:"accruals_weight" json:"accruals_weight" validate:"gte=0,lte=1"`
	HighAccruals         float64 `yaml:"high_accruals" json:"high_accruals"`
	LowCashConversion    float64 `yaml:"low_cash_conversion" json:"low_cash_conversion"`
	VolatileRatioStdDev  float64 `yaml:"volatile_ratio_std_dev" json:"volatile_ratio_std_dev" validate:"gt=0"`
	LowROA               float64 `yaml:"low_roa" json:"low_roa"`                                       // percent
	HighDebtToEquity     float64 `yaml:"high_debt_to_equity" json:"high_debt_to_equity" validate:"gt=0"` // ratio
}

// Insights 인사이트 규칙 기준값
type Insights struct {
	IndustryROE        float64 `yaml:"industry_roe" json:"industry_roe"` // percent, used when the bundle has none
	RSIOverbought      float64 `yaml:"rsi_overbought" json:"rsi_overbought" validate:"gt=0,lte=100"`
	RSIOversold        float64 `yaml:"rsi_oversold" json:"rsi_oversold" validate:"gte=0,lt=100"`
	HighBeta           float64 `yaml:"high_beta" json:"high_beta" validate:"gt=0"`
	LowConfidence      float64 `yaml:"low_confidence" json:"low_confidence" validate:"gte=0,lte=100"`
	UndervaluedMargin  float64 `yaml:"undervalued_margin" json:"undervalued_margin" validate:"gte=0,lt=1"`
	SevereDrawdown     float64 `yaml:"severe_drawdown" json:"severe_drawdown" validate:"lt=0"`
	StrongCategory     float64 `yaml:"strong_category" json:"strong_category" validate:"gte=0,lte=100"`
	WeakCategory       float64 `yaml:"weak_category" json:"weak_category" validate:"gte=0,lte=100"`
	StrongCashFlow     float64 `yaml:"strong_cash_flow" json:"strong_cash_flow" validate:"gt=0"`
	PiotroskiStrongMin int     `yaml:"piotroski_strong_min" json:"piotroski_strong_min" validate:"gte=0,lte=9"`
	PiotroskiWeakMax   int     `yaml:"piotroski_weak_max" json:"piotroski_weak_max" validate:"gte=0,lte=9"`
}

// Direction of a metric
type Direction string

const (
	HigherIsBetter Direction = "higher_is_better"
	LowerIsBetter  Direction = "lower_is_better"
)

// MetricRule maps a raw metric to a 0..100 sub-score
type MetricRule struct {
	Good      float64   `yaml:"good" json:"good"`
	Fair      float64   `yaml:"fair" json:"fair"`
	Direction Direction `yaml:"direction" json:"direction" validate:"oneof=higher_is_better lower_is_better"`
	Weight    float64   `yaml:"weight" json:"weight" validate:"gt=0,lte=1"`
}

// Rules returns the normalization table for a category
func (c *Config) Rules(cat contracts.Category) map[string]MetricRule {
	return c.Normalization[cat]
}
