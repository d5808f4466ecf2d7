package contracts

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownMode is returned by ParseMode for an unrecognized mode name
var ErrUnknownMode = errors.New("unknown analysis mode")

// Mode selects the weight table used by the composite
type Mode string

const (
	ModeStandard      Mode = "standard"      // fundamental, technical, sentiment
	ModeComprehensive Mode = "comprehensive" // all categories
)

// ParseMode parses a mode name; empty means standard
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeStandard:
		return ModeStandard, nil
	case ModeComprehensive:
		return ModeComprehensive, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}

// Recommendation is the discrete action label
type Recommendation string

const (
	StrongBuy    Recommendation = "STRONG_BUY"
	Buy          Recommendation = "BUY"
	Hold         Recommendation = "HOLD"
	Sell         Recommendation = "SELL"
	StrongSell   Recommendation = "STRONG_SELL"
	Unanalyzable Recommendation = "UNANALYZABLE"
)

// Rank orders recommendations from weakest (StrongSell=1) to strongest.
// Unanalyzable ranks 0.
func (r Recommendation) Rank() int {
	switch r {
	case StrongSell:
		return 1
	case Sell:
		return 2
	case Hold:
		return 3
	case Buy:
		return 4
	case StrongBuy:
		return 5
	default:
		return 0
	}
}

// RiskLevel buckets the confidence of a recommendation
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskUnknown RiskLevel = "UNKNOWN"
)

// Zone is the Altman Z-Score bankruptcy zone
type Zone string

const (
	ZoneSafe     Zone = "Safe"
	ZoneGrey     Zone = "GreyZone"
	ZoneDistress Zone = "Distress"
	ZoneUnknown  Zone = "Unknown"
)

// Trend is the moving-average stack classification
type Trend string

const (
	TrendStrongBullish Trend = "STRONG_BULLISH"
	TrendBullish       Trend = "BULLISH"
	TrendNeutral       Trend = "NEUTRAL"
	TrendBearish       Trend = "BEARISH"
	TrendStrongBearish Trend = "STRONG_BEARISH"
	TrendUnknown       Trend = "UNKNOWN"
)

// Strength maps the trend to -2..2
func (t Trend) Strength() Float {
	switch t {
	case TrendStrongBullish:
		return Known(2)
	case TrendBullish:
		return Known(1)
	case TrendNeutral:
		return Known(0)
	case TrendBearish:
		return Known(-1)
	case TrendStrongBearish:
		return Known(-2)
	default:
		return Unknown()
	}
}

// FinancialHealthResult holds solvency metrics
type FinancialHealthResult struct {
	Piotroski      int      `json:"piotroski"`        // passed tests, 0..9
	PiotroskiTests int      `json:"piotroski_tests"`  // tests with available inputs
	PiotroskiPct   Float    `json:"piotroski_pct"`    // passed/available*100
	AltmanZ        Float    `json:"altman_z"`         // Unknown unless all five components are available
	AltmanZPartial Float    `json:"altman_z_partial"` // sum of the available components, informational
	Zone           Zone     `json:"zone"`
	WorkingCapital Float    `json:"working_capital"`
	DebtCoverage   Float    `json:"debt_coverage"`
	Passed         []string `json:"passed,omitempty"`
}

// RiskResult holds return-series risk metrics. Drawdown and VaR are
// non-positive fractions, volatility is annualized and non-negative.
type RiskResult struct {
	Beta        Float `json:"beta"`
	Sharpe      Float `json:"sharpe"`
	Sortino     Float `json:"sortino"`
	MaxDrawdown Float `json:"max_drawdown"`
	Vol30D      Float `json:"vol_30d"`
	Vol90D      Float `json:"vol_90d"`
	VaR95       Float `json:"var_95"`
	CVaR95      Float `json:"cvar_95"`
	Samples     int   `json:"samples"`
}

// ValuationResult holds intrinsic value and multiples
type ValuationResult struct {
	DCFValue        Float `json:"dcf_value"`
	GrahamNumber    Float `json:"graham_number"`
	PriceToFCF      Float `json:"p_fcf"`
	EVSales         Float `json:"ev_sales"`
	EVEBIT          Float `json:"ev_ebit"`
	EnterpriseValue Float `json:"enterprise_value"`
	GrowthRateUsed  Float `json:"growth_rate_used"`
	PriceToDCF      Float `json:"price_to_dcf"`
	PriceToGraham   Float `json:"price_to_graham"`
}

// QualityResult holds earnings quality metrics
type QualityResult struct {
	EarningsQualityScore Float    `json:"earnings_quality_score"`
	AccrualsRatio        Float    `json:"accruals_ratio"`
	CashConversion       Float    `json:"cash_conversion"` // OCF / NI
	RedFlags             []string `json:"red_flags,omitempty"`
}

// MomentumResult holds price returns in percent
type MomentumResult struct {
	Return1M Float `json:"return_1m"`
	Return3M Float `json:"return_3m"`
	Return6M Float `json:"return_6m"`
}

// TechnicalResult holds the indicator values actually scored
type TechnicalResult struct {
	Trend          Trend `json:"trend"`
	RSI            Float `json:"rsi"`
	MACD           Float `json:"macd"`
	MACDSignal     Float `json:"macd_signal"`
	SMA20          Float `json:"sma_20"`
	SMA50          Float `json:"sma_50"`
	SMA200         Float `json:"sma_200"`
	BollingerUpper Float `json:"bollinger_upper"`
	BollingerLower Float `json:"bollinger_lower"`
	Derived        bool  `json:"derived"` // computed from price history
}

// CompositeAnalysisResult is the engine output for one request.
// ⭐ SSOT: 분석 결과 구조는 여기서만 정의
type CompositeAnalysisResult struct {
	ID             string                     `json:"id"`
	Symbol         string                     `json:"symbol"`
	Mode           Mode                       `json:"mode"`
	OverallScore   Float                      `json:"overall_score"`
	Recommendation Recommendation             `json:"recommendation"`
	Confidence     Float                      `json:"confidence"`
	RiskLevel      RiskLevel                  `json:"risk_level"`
	PriceTarget    Float                      `json:"price_target"` // only for buy/sell labels
	CategoryScores map[Category]CategoryScore `json:"category_scores"`
	// renormalized over present categories
	EffectiveWeights map[Category]float64 `json:"effective_weights,omitempty"`

	Technical *TechnicalResult       `json:"technical,omitempty"`
	Health    *FinancialHealthResult `json:"financial_health,omitempty"`
	Risk      *RiskResult            `json:"risk,omitempty"`
	Valuation *ValuationResult       `json:"valuation,omitempty"`
	Quality   *QualityResult         `json:"quality,omitempty"`
	Momentum  *MomentumResult        `json:"momentum,omitempty"`

	Insights   []string  `json:"insights"`
	Warnings   []string  `json:"warnings"`
	ConfigHash string    `json:"config_hash"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Analyzable reports whether at least one category produced a score
func (r *CompositeAnalysisResult) Analyzable() bool {
	return r.OverallScore.IsKnown()
}
