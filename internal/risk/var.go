package risk

import (
	"math"
	"sort"
)

// =============================================================================
// VaR (Value at Risk) Calculation
// =============================================================================

// CalculateVaR 과거 수익률 기반 VaR 계산 (Historical Simulation)
// returns: 일별 수익률 배열 (양수=이익, 음수=손실)
// confidence: 신뢰수준 (예: 0.95)
// 반환값: (1-confidence) 분위 수익률, 0 이하로 제한
func CalculateVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence}
	}

	// 수익률 정렬 (오름차순: 손실이 앞에)
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	// 95% VaR = 하위 5% 백분위수 (선형 보간)
	q := Percentile(sorted, (1.0-confidence)*100)

	return VaRResult{
		Confidence: confidence,
		VaR:        math.Min(q, 0),
		CVaR:       CalculateCVaR(sorted, q),
	}
}

// CalculateCVaR Conditional VaR (Expected Shortfall) 계산
// sorted: 오름차순 정렬된 수익률
// threshold: VaR 분위 수익률 (이 값 이하가 tail)
func CalculateCVaR(sorted []float64, threshold float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	var sum float64
	count := 0
	for _, r := range sorted {
		if r > threshold {
			break
		}
		sum += r
		count++
	}

	// 보간된 분위수가 최소값보다 작을 수는 없으므로 count >= 1
	if count == 0 {
		return math.Min(sorted[0], 0)
	}
	return math.Min(sum/float64(count), 0)
}

// =============================================================================
// 통계 유틸리티
// =============================================================================

// Percentile 백분위수 계산
// sorted: 오름차순, p: 0~100, idx = p/100*(n-1) 선형 보간
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// 선형 보간
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
