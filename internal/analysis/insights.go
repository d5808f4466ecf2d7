package analysis

import (
	"fmt"
	"strings"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
)

// Kind tells whether a rule produces an insight or a warning
type Kind string

const (
	KindInsight Kind = "insight"
	KindWarning Kind = "warning"
)

// Drawdown bands for the descriptive volatility insight
const (
	modestDrawdown = -0.10
	deepDrawdown   = -0.30
)

// Snapshot is the read-only view rules evaluate against
type Snapshot struct {
	Symbol      string
	Price       contracts.Float
	IndustryROE contracts.Float
	ROE         contracts.Float
	Composite   Composite
	Confidence  contracts.Float
	Scores      map[contracts.Category]contracts.CategoryScore

	Technical *contracts.TechnicalResult
	Health    *contracts.FinancialHealthResult
	Risk      *contracts.RiskResult
	Valuation *contracts.ValuationResult
	Quality   *contracts.QualityResult
}

func (s *Snapshot) score(cat contracts.Category) (float64, bool) {
	return s.Scores[cat].Score.Get()
}

// Rule is one independent predicate → message
type Rule struct {
	ID   string
	Kind Kind
	Eval func(s *Snapshot) (string, bool)
}

// Rules returns the ordered rule set. Order is output priority.
// ⭐ SSOT: 인사이트/경고 규칙과 우선순위는 여기서만
func Rules(t strategyconfig.Insights) []Rule {
	return []Rule{
		// === Insights ===
		{ID: "strong_fundamentals", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			v, ok := s.score(contracts.CategoryFundamental)
			return fmt.Sprintf("Strong fundamentals (score %.0f)", v), ok && v >= t.StrongCategory
		}},
		{ID: "weak_fundamentals", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			v, ok := s.score(contracts.CategoryFundamental)
			return fmt.Sprintf("Weak fundamentals (score %.0f)", v), ok && v <= t.WeakCategory
		}},
		{ID: "roe_above_industry", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			roe, ok := s.ROE.Get()
			bench := s.IndustryROE.OrElse(t.IndustryROE)
			return fmt.Sprintf("ROE of %.1f%% above industry benchmark of %.1f%%", roe, bench), ok && roe > bench
		}},
		{ID: "bullish_trend", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			if s.Technical == nil {
				return "", false
			}
			tr := s.Technical.Trend
			return "Bullish technical trend", tr == contracts.TrendBullish || tr == contracts.TrendStrongBullish
		}},
		{ID: "bearish_trend", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			if s.Technical == nil {
				return "", false
			}
			tr := s.Technical.Trend
			return "Bearish technical trend", tr == contracts.TrendBearish || tr == contracts.TrendStrongBearish
		}},
		{ID: "rsi_oversold", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			if s.Technical == nil {
				return "", false
			}
			rsi, ok := s.Technical.RSI.Get()
			return fmt.Sprintf("RSI indicates oversold conditions (%.1f)", rsi), ok && rsi < t.RSIOversold
		}},
		{ID: "positive_sentiment", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			v, ok := s.score(contracts.CategorySentiment)
			return "Positive market sentiment", ok && v >= t.StrongCategory
		}},
		{ID: "negative_sentiment", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			v, ok := s.score(contracts.CategorySentiment)
			return "Negative market sentiment", ok && v <= t.WeakCategory
		}},
		{ID: "piotroski_strong", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			if s.Health == nil || s.Health.PiotroskiTests == 0 {
				return "", false
			}
			h := s.Health
			return fmt.Sprintf("Strong financial health (Piotroski score: %d/%d)", h.Piotroski, h.PiotroskiTests),
				h.Piotroski >= t.PiotroskiStrongMin
		}},
		{ID: "piotroski_weak", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			// 9개 테스트가 모두 가능할 때만 약세 판정
			if s.Health == nil || s.Health.PiotroskiTests < 9 {
				return "", false
			}
			h := s.Health
			return fmt.Sprintf("Weak financial health (Piotroski score: %d/9)", h.Piotroski), h.Piotroski <= t.PiotroskiWeakMax
		}},
		{ID: "undervalued_dcf", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			dcf, p, ok := dcfAndPrice(s)
			return fmt.Sprintf("Trading below estimated intrinsic value (DCF %.2f vs price %.2f)", dcf, p),
				ok && dcf > p*(1+t.UndervaluedMargin)
		}},
		{ID: "overvalued_dcf", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			dcf, p, ok := dcfAndPrice(s)
			return fmt.Sprintf("Trading above estimated intrinsic value (DCF %.2f vs price %.2f)", dcf, p),
				ok && dcf < p*(1-t.UndervaluedMargin)
		}},
		{ID: "strong_cash_flow", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			if s.Quality == nil {
				return "", false
			}
			conv, ok := s.Quality.CashConversion.Get()
			return "Strong cash flow generation relative to earnings", ok && conv >= t.StrongCashFlow
		}},
		{ID: "low_drawdown", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			mdd, ok := drawdown(s)
			return "Low historical volatility and drawdown", ok && mdd > modestDrawdown
		}},
		{ID: "deep_drawdown", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			mdd, ok := drawdown(s)
			return fmt.Sprintf("High historical volatility with significant drawdowns (max %.1f%%)", mdd*100),
				ok && mdd < deepDrawdown && mdd >= t.SevereDrawdown
		}},
		{ID: "strongest_category", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			best, v, ok := extreme(s, func(a, b float64) bool { return a > b })
			return fmt.Sprintf("Strongest area: %s (score %.0f)", label(best), v),
				ok && len(s.Composite.Present) > 1 && v >= t.StrongCategory
		}},
		{ID: "missing_data", Kind: KindInsight, Eval: func(s *Snapshot) (string, bool) {
			c := s.Composite
			if !c.Score.IsKnown() || len(c.Missing) == 0 {
				return "", false
			}
			names := make([]string, len(c.Missing))
			for i, cat := range c.Missing {
				names[i] = label(cat)
			}
			return fmt.Sprintf("Score based on %d of %d categories; missing %s (weights redistributed, confidence reduced)",
				len(c.Present), len(c.Present)+len(c.Missing), strings.Join(names, ", ")), true
		}},

		// === Warnings ===
		{ID: "unanalyzable", Kind: KindWarning, Eval: func(s *Snapshot) (string, bool) {
			return fmt.Sprintf("No category could be scored; %s is unanalyzable", s.Symbol), !s.Composite.Score.IsKnown()
		}},
		{ID: "altman_distress", Kind: KindWarning, Eval: func(s *Snapshot) (string, bool) {
			if s.Health == nil {
				return "", false
			}
			return fmt.Sprintf("Elevated bankruptcy risk: Altman Z-Score %s in distress zone", fmtFloat(s.Health.AltmanZ)),
				s.Health.Zone == contracts.ZoneDistress
		}},
		{ID: "red_flags", Kind: KindWarning, Eval: func(s *Snapshot) (string, bool) {
			if s.Quality == nil || len(s.Quality.RedFlags) == 0 {
				return "", false
			}
			flags := s.Quality.RedFlags
			return fmt.Sprintf("%d accounting red flags detected: %s", len(flags), strings.Join(flags, ", ")), true
		}},
		{ID: "severe_drawdown", Kind: KindWarning, Eval: func(s *Snapshot) (string, bool) {
			mdd, ok := drawdown(s)
			return fmt.Sprintf("Very high historical volatility and drawdowns (max %.1f%%)", mdd*100), ok && mdd < t.SevereDrawdown
		}},
		{ID: "rsi_overbought", Kind: KindWarning, Eval: func(s *Snapshot) (string, bool) {
			if s.Technical == nil {
				return "", false
			}
			rsi, ok := s.Technical.RSI.Get()
			return fmt.Sprintf("RSI indicates overbought conditions (%.1f)", rsi), ok && rsi > t.RSIOverbought
		}},
		{ID: "high_beta", Kind: KindWarning, Eval: func(s *Snapshot) (string, bool) {
			if s.Risk == nil {
				return "", false
			}
			b, ok := s.Risk.Beta.Get()
			return fmt.Sprintf("High market sensitivity (beta %.2f)", b), ok && b > t.HighBeta
		}},
		{ID: "weakest_category", Kind: KindWarning, Eval: func(s *Snapshot) (string, bool) {
			worst, v, ok := extreme(s, func(a, b float64) bool { return a < b })
			return fmt.Sprintf("Weakest area: %s (score %.0f)", label(worst), v),
				ok && len(s.Composite.Present) > 1 && v <= t.WeakCategory
		}},
		{ID: "low_confidence", Kind: KindWarning, Eval: func(s *Snapshot) (string, bool) {
			c, ok := s.Confidence.Get()
			return fmt.Sprintf("Low confidence (%.0f%%): category scores disagree or data is incomplete", c),
				ok && c < t.LowConfidence
		}},
	}
}

// Generate evaluates rules in order
func Generate(rules []Rule, s *Snapshot) (insights, warnings []string) {
	insights, warnings = []string{}, []string{}
	for _, r := range rules {
		msg, ok := r.Eval(s)
		if !ok {
			continue
		}
		if r.Kind == KindWarning {
			warnings = append(warnings, msg)
		} else {
			insights = append(insights, msg)
		}
	}
	return insights, warnings
}

func dcfAndPrice(s *Snapshot) (float64, float64, bool) {
	if s.Valuation == nil {
		return 0, 0, false
	}
	dcf, ok1 := s.Valuation.DCFValue.Get()
	p, ok2 := s.Price.Get()
	return dcf, p, ok1 && ok2 && p > 0 && dcf > 0
}

func drawdown(s *Snapshot) (float64, bool) {
	if s.Risk == nil {
		return 0, false
	}
	return s.Risk.MaxDrawdown.Get()
}

// extreme finds the present category that wins better(a, b), first in
// reporting order on ties
func extreme(s *Snapshot, better func(a, b float64) bool) (contracts.Category, float64, bool) {
	var (
		best  contracts.Category
		value float64
		found bool
	)
	for _, cat := range s.Composite.Present {
		v, ok := s.score(cat)
		if !ok {
			continue
		}
		if !found || better(v, value) {
			best, value, found = cat, v, true
		}
	}
	return best, value, found
}

func label(c contracts.Category) string {
	return strings.ReplaceAll(string(c), "_", " ")
}

func fmtFloat(f contracts.Float) string {
	if v, ok := f.Get(); ok {
		return fmt.Sprintf("%.2f", v)
	}
	return "n/a"
}
