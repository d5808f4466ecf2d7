package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
)

func defaultRules() []Rule {
	return Rules(strategyconfig.DefaultConfig().Insights)
}

// knownSnapshot has a known composite so the unanalyzable rule stays quiet
func knownSnapshot() *Snapshot {
	return &Snapshot{
		Symbol:     "ACME",
		Composite:  Composite{Score: k(55), Present: []contracts.Category{contracts.CategoryFundamental}},
		Confidence: k(90),
		Scores:     map[contracts.Category]contracts.CategoryScore{},
	}
}

func TestGenerate_Empty(t *testing.T) {
	insights, warnings := Generate(defaultRules(), knownSnapshot())
	assert.Empty(t, insights)
	assert.Empty(t, warnings)
	assert.NotNil(t, insights)
	assert.NotNil(t, warnings)
}

func TestGenerate_RuleOrder(t *testing.T) {
	rules := []Rule{
		{ID: "b", Kind: KindInsight, Eval: func(*Snapshot) (string, bool) { return "second", true }},
		{ID: "w", Kind: KindWarning, Eval: func(*Snapshot) (string, bool) { return "warn", true }},
		{ID: "a", Kind: KindInsight, Eval: func(*Snapshot) (string, bool) { return "first", true }},
		{ID: "skip", Kind: KindInsight, Eval: func(*Snapshot) (string, bool) { return "never", false }},
	}

	insights, warnings := Generate(rules, knownSnapshot())
	assert.Equal(t, []string{"second", "first"}, insights)
	assert.Equal(t, []string{"warn"}, warnings)
}

func TestRules_CategoryStrength(t *testing.T) {
	s := knownSnapshot()
	s.Scores = scoresOf(map[contracts.Category]contracts.Float{
		contracts.CategoryFundamental: k(78),
		contracts.CategorySentiment:   k(22),
	})

	insights, _ := Generate(defaultRules(), s)
	assert.Contains(t, insights, "Strong fundamentals (score 78)")
	assert.Contains(t, insights, "Negative market sentiment")
	assert.NotContains(t, insights, "Positive market sentiment")
}

func TestRules_ROEBenchmark(t *testing.T) {
	s := knownSnapshot()
	s.ROE = k(18)

	insights, _ := Generate(defaultRules(), s)
	assert.Contains(t, insights, "ROE of 18.0% above industry benchmark of 15.0%")

	// 번들의 업종 ROE가 설정값보다 우선
	s.IndustryROE = k(20)
	insights, _ = Generate(defaultRules(), s)
	for _, msg := range insights {
		assert.NotContains(t, msg, "ROE of")
	}
}

func TestRules_RSI(t *testing.T) {
	s := knownSnapshot()
	s.Technical = &contracts.TechnicalResult{Trend: contracts.TrendStrongBullish, RSI: k(75)}

	insights, warnings := Generate(defaultRules(), s)
	assert.Contains(t, insights, "Bullish technical trend")
	assert.Contains(t, warnings, "RSI indicates overbought conditions (75.0)")

	s.Technical = &contracts.TechnicalResult{Trend: contracts.TrendBearish, RSI: k(25)}
	insights, warnings = Generate(defaultRules(), s)
	assert.Contains(t, insights, "Bearish technical trend")
	assert.Contains(t, insights, "RSI indicates oversold conditions (25.0)")
	assert.Empty(t, warnings)
}

func TestRules_Piotroski(t *testing.T) {
	tests := []struct {
		name   string
		health *contracts.FinancialHealthResult
		want   string
	}{
		{"strong", &contracts.FinancialHealthResult{Piotroski: 8, PiotroskiTests: 9, Zone: contracts.ZoneSafe},
			"Strong financial health (Piotroski score: 8/9)"},
		{"strong on partial data", &contracts.FinancialHealthResult{Piotroski: 7, PiotroskiTests: 8, Zone: contracts.ZoneSafe},
			"Strong financial health (Piotroski score: 7/8)"},
		{"weak", &contracts.FinancialHealthResult{Piotroski: 2, PiotroskiTests: 9, Zone: contracts.ZoneGrey},
			"Weak financial health (Piotroski score: 2/9)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := knownSnapshot()
			s.Health = tt.health
			insights, _ := Generate(defaultRules(), s)
			assert.Equal(t, []string{tt.want}, insights)
		})
	}
}

func TestRules_PiotroskiWeakNeedsAllTests(t *testing.T) {
	s := knownSnapshot()
	s.Health = &contracts.FinancialHealthResult{Piotroski: 2, PiotroskiTests: 6, Zone: contracts.ZoneGrey}

	insights, _ := Generate(defaultRules(), s)
	assert.Empty(t, insights)
}

func TestRules_AltmanDistress(t *testing.T) {
	s := knownSnapshot()
	s.Health = &contracts.FinancialHealthResult{AltmanZ: k(1.2), Zone: contracts.ZoneDistress}

	_, warnings := Generate(defaultRules(), s)
	assert.Equal(t, []string{"Elevated bankruptcy risk: Altman Z-Score 1.20 in distress zone"}, warnings)
}

func TestRules_DCF(t *testing.T) {
	tests := []struct {
		name string
		dcf  float64
		want string
	}{
		{"undervalued", 130, "Trading below estimated intrinsic value (DCF 130.00 vs price 100.00)"},
		{"overvalued", 75, "Trading above estimated intrinsic value (DCF 75.00 vs price 100.00)"},
		{"inside margin", 110, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := knownSnapshot()
			s.Price = k(100)
			s.Valuation = &contracts.ValuationResult{DCFValue: k(tt.dcf)}

			insights, _ := Generate(defaultRules(), s)
			if tt.want == "" {
				assert.Empty(t, insights)
				return
			}
			assert.Equal(t, []string{tt.want}, insights)
		})
	}
}

func TestRules_QualityAndCashFlow(t *testing.T) {
	s := knownSnapshot()
	s.Quality = &contracts.QualityResult{
		CashConversion: k(1.4),
		RedFlags:       []string{"high accruals", "very high debt-to-equity ratio"},
	}

	insights, warnings := Generate(defaultRules(), s)
	assert.Contains(t, insights, "Strong cash flow generation relative to earnings")
	assert.Contains(t, warnings, "2 accounting red flags detected: high accruals, very high debt-to-equity ratio")
}

func TestRules_StrongCashFlowBoundary(t *testing.T) {
	tests := []struct {
		conversion float64
		fires      bool
	}{
		{1.2, true},
		{1.19, false},
		{1.21, true},
	}

	for _, tt := range tests {
		s := knownSnapshot()
		s.Quality = &contracts.QualityResult{CashConversion: k(tt.conversion)}

		insights, _ := Generate(defaultRules(), s)
		if tt.fires {
			assert.Contains(t, insights, "Strong cash flow generation relative to earnings", "conversion %v", tt.conversion)
		} else {
			assert.NotContains(t, insights, "Strong cash flow generation relative to earnings", "conversion %v", tt.conversion)
		}
	}
}

func TestRules_Drawdown(t *testing.T) {
	tests := []struct {
		mdd         float64
		wantInsight string
		wantWarning string
	}{
		{-0.05, "Low historical volatility and drawdown", ""},
		{-0.20, "", ""},
		{-0.35, "High historical volatility with significant drawdowns (max -35.0%)", ""},
		{-0.55, "", "Very high historical volatility and drawdowns (max -55.0%)"},
	}

	for _, tt := range tests {
		s := knownSnapshot()
		s.Risk = &contracts.RiskResult{MaxDrawdown: k(tt.mdd)}

		insights, warnings := Generate(defaultRules(), s)
		if tt.wantInsight == "" {
			assert.Empty(t, insights, "mdd %v", tt.mdd)
		} else {
			assert.Equal(t, []string{tt.wantInsight}, insights, "mdd %v", tt.mdd)
		}
		if tt.wantWarning == "" {
			assert.Empty(t, warnings, "mdd %v", tt.mdd)
		} else {
			assert.Equal(t, []string{tt.wantWarning}, warnings, "mdd %v", tt.mdd)
		}
	}
}

func TestRules_HighBeta(t *testing.T) {
	s := knownSnapshot()
	s.Risk = &contracts.RiskResult{Beta: k(1.8)}

	_, warnings := Generate(defaultRules(), s)
	assert.Equal(t, []string{"High market sensitivity (beta 1.80)"}, warnings)
}

func TestRules_StrongestAndWeakest(t *testing.T) {
	s := knownSnapshot()
	s.Composite.Present = []contracts.Category{contracts.CategoryFundamental, contracts.CategoryFinancialHealth, contracts.CategoryRisk}
	s.Scores = scoresOf(map[contracts.Category]contracts.Float{
		contracts.CategoryFundamental:     k(50),
		contracts.CategoryFinancialHealth: k(88),
		contracts.CategoryRisk:            k(12),
	})

	insights, warnings := Generate(defaultRules(), s)
	assert.Contains(t, insights, "Strongest area: financial health (score 88)")
	assert.Contains(t, warnings, "Weakest area: risk (score 12)")
}

func TestRules_MissingData(t *testing.T) {
	s := knownSnapshot()
	s.Composite = Composite{
		Score:   k(77),
		Present: []contracts.Category{contracts.CategoryFundamental, contracts.CategorySentiment},
		Missing: []contracts.Category{contracts.CategoryTechnical},
	}

	insights, _ := Generate(defaultRules(), s)
	assert.Contains(t, insights,
		"Score based on 2 of 3 categories; missing technical (weights redistributed, confidence reduced)")
}

func TestRules_LowConfidence(t *testing.T) {
	s := knownSnapshot()
	s.Confidence = k(35)

	_, warnings := Generate(defaultRules(), s)
	assert.Equal(t, []string{"Low confidence (35%): category scores disagree or data is incomplete"}, warnings)
}

func TestRules_Unanalyzable(t *testing.T) {
	s := &Snapshot{
		Symbol:     "ZZZ",
		Composite:  Composite{Score: u(), Missing: standardCategories()},
		Confidence: u(),
	}

	insights, warnings := Generate(defaultRules(), s)
	assert.Empty(t, insights)
	assert.Equal(t, []string{"No category could be scored; ZZZ is unanalyzable"}, warnings)
}
