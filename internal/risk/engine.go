package risk

import (
	"fmt"

	"github.com/wonny/finscore/internal/contracts"
)

// =============================================================================
// Engine - 순수 계산기
// =============================================================================

// Engine 리스크 엔진 (순수 계산기)
// ⭐ SSOT: 가격 이력 기반 리스크 지표는 여기서만 계산
// 데이터 수집은 호출자 책임, 여기서는 I/O 없음
type Engine struct {
	params Params
}

// NewEngine 새 리스크 엔진 생성
func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

// Params returns the engine parameters
func (e *Engine) Params() Params {
	return e.params
}

// Analyze computes every risk metric from oldest-first price series.
// Metrics without enough history come back Unknown with a warning;
// the rest are still computed.
func (e *Engine) Analyze(prices, benchmark []contracts.PricePoint) (contracts.RiskResult, []string) {
	var warnings []string
	res := contracts.RiskResult{}

	closes := contracts.Closes(prices)
	returns := Returns(closes)
	res.Samples = len(returns)

	if len(closes) < 2 {
		warnings = append(warnings, "Insufficient price history for risk metrics")
		return res, warnings
	}

	res.MaxDrawdown = MaxDrawdown(closes)
	res.Vol30D = AnnualizedVolatility(returns, ShortVolWindow, e.params.PeriodsPerYear)
	res.Vol90D = AnnualizedVolatility(returns, LongVolWindow, e.params.PeriodsPerYear)
	if !res.Vol90D.IsKnown() && res.Vol30D.IsKnown() {
		warnings = append(warnings, fmt.Sprintf("90-day volatility unavailable (%d returns, need %d)", len(returns), LongVolWindow))
	}

	// Fail-closed: 최소 샘플 수 미만이면 추정치 대신 Unknown
	if len(returns) < e.params.MinSamples {
		warnings = append(warnings, fmt.Sprintf(
			"Insufficient history for Sharpe/VaR (%d returns, need %d)", len(returns), e.params.MinSamples))
	} else {
		res.Sharpe = Sharpe(returns, e.params.RiskFreeRate, e.params.PeriodsPerYear)
		if !res.Sharpe.IsKnown() {
			warnings = append(warnings, "Sharpe ratio undefined for a zero-variance return series")
		}
		res.Sortino = Sortino(returns, e.params.RiskFreeRate, e.params.PeriodsPerYear)

		v := CalculateVaR(returns, e.params.VaRConfidence)
		res.VaR95 = contracts.Known(v.VaR)
		res.CVaR95 = contracts.Known(v.CVaR)
	}

	res.Beta = e.beta(prices, benchmark, &warnings)

	return res, warnings
}

func (e *Engine) beta(prices, benchmark []contracts.PricePoint, warnings *[]string) contracts.Float {
	if len(benchmark) == 0 {
		*warnings = append(*warnings, "Benchmark series missing, beta unavailable")
		return contracts.Unknown()
	}

	a, b := Align(prices, benchmark)
	ra, rb := pairedReturns(a, b)
	if len(ra) < e.params.MinSamples {
		*warnings = append(*warnings, fmt.Sprintf(
			"Insufficient overlapping history for beta (%d periods, need %d)", len(ra), e.params.MinSamples))
		return contracts.Unknown()
	}

	beta := Beta(ra, rb)
	if !beta.IsKnown() {
		*warnings = append(*warnings, "Beta undefined for a zero-variance benchmark")
	}
	return beta
}
