package risk

// =============================================================================
// Sign Convention
// =============================================================================

// VaRConvention VaR 부호 규약
// ⭐ SSOT: VaR/CVaR는 수익률 부호 그대로 표현 (손실 = 음수, 최대 0)
// - VaR=-0.03 → 95% 신뢰수준에서 하루 3% 이상 손실 확률 5%
// - MaxDrawdown도 동일하게 음수 비율
const VaRConvention = "return_signed"

// =============================================================================
// Types
// =============================================================================

// VaRResult VaR 계산 결과
type VaRResult struct {
	Confidence float64 `json:"confidence"` // 신뢰수준 (예: 0.95)
	VaR        float64 `json:"var"`        // quantile return, <= 0
	CVaR       float64 `json:"cvar"`       // mean tail return, <= VaR
}

// Params 리스크 계산 파라미터
type Params struct {
	MinSamples     int     // beta/sharpe/sortino/VaR 최소 표본 수
	RiskFreeRate   float64 // 연율
	PeriodsPerYear int     // 연율화 계수 (일봉 252)
	VaRConfidence  float64
}

// DefaultParams returns daily-bar defaults
func DefaultParams() Params {
	return Params{
		MinSamples:     30,
		RiskFreeRate:   0.045,
		PeriodsPerYear: 252,
		VaRConfidence:  0.95,
	}
}

// Volatility windows in trading days
const (
	ShortVolWindow = 30
	LongVolWindow  = 90
)
