package strategyconfig

import "github.com/wonny/finscore/internal/contracts"

// Metric names used as normalization table keys
const (
	MetricPERatio       = "pe_ratio"
	MetricROE           = "roe"
	MetricDebtToEquity  = "debt_to_equity"
	MetricRevenueGrowth = "revenue_growth"
	MetricProfitMargin  = "profit_margin"
	MetricCurrentRatio  = "current_ratio"
	MetricPBRatio       = "pb_ratio"

	MetricTrend       = "trend"
	MetricRSI         = "rsi"
	MetricMACDHistPct = "macd_histogram_pct"
	MetricMAAlignment = "ma_alignment"

	MetricNewsSentiment    = "news_sentiment"
	MetricSocialSentiment  = "social_sentiment"
	MetricAnalystConsensus = "analyst_consensus"

	MetricPiotroskiPct = "piotroski_pct"
	MetricAltmanZ      = "altman_z"
	MetricDebtCoverage = "debt_coverage"

	MetricPriceToDCF    = "price_to_dcf"
	MetricPriceToGraham = "price_to_graham"
	MetricPriceToFCF    = "price_to_fcf"
	MetricEVEBIT        = "ev_ebit"
	MetricEVSales       = "ev_sales"

	MetricEarningsQuality = "earnings_quality"
	MetricAccrualsRatio   = "accruals_ratio"
	MetricROA             = "roa"

	MetricReturn1M = "return_1m"
	MetricReturn3M = "return_3m"
	MetricReturn6M = "return_6m"

	MetricSharpe      = "sharpe"
	MetricMaxDrawdown = "max_drawdown"
	MetricVol90D      = "vol_90d"
	MetricVaR95       = "var_95"
	MetricBeta        = "beta"
)

// WeightEpsilon is the tolerance for "weights sum to 1.0"
const WeightEpsilon = 1e-6

func higher(good, fair, weight float64) MetricRule {
	return MetricRule{Good: good, Fair: fair, Direction: HigherIsBetter, Weight: weight}
}

func lower(good, fair, weight float64) MetricRule {
	return MetricRule{Good: good, Fair: fair, Direction: LowerIsBetter, Weight: weight}
}

// DefaultNormalization returns the built-in metric tables
func DefaultNormalization() map[contracts.Category]map[string]MetricRule {
	return map[contracts.Category]map[string]MetricRule{
		contracts.CategoryFundamental: {
			MetricPERatio:       lower(15, 25, 0.15),
			MetricROE:           higher(15, 10, 0.20),
			MetricDebtToEquity:  lower(0.5, 1.0, 0.15),
			MetricRevenueGrowth: higher(15, 5, 0.15),
			MetricProfitMargin:  higher(20, 10, 0.15),
			MetricCurrentRatio:  higher(2.0, 1.2, 0.10),
			MetricPBRatio:       lower(1.5, 3.0, 0.10),
		},
		contracts.CategoryTechnical: {
			MetricTrend:       higher(1, 0, 0.30),
			MetricRSI:         lower(35, 60, 0.20),
			MetricMACDHistPct: higher(0.5, 0, 0.25),
			MetricMAAlignment: higher(1, 0, 0.25),
		},
		contracts.CategorySentiment: {
			// news 0.7 / social 0.3 블렌드를 70%, 애널리스트 30%
			MetricNewsSentiment:    higher(0.3, 0, 0.49),
			MetricSocialSentiment:  higher(0.3, 0, 0.21),
			MetricAnalystConsensus: higher(4, 3, 0.30),
		},
		contracts.CategoryFinancialHealth: {
			MetricPiotroskiPct: higher(78, 44, 0.45),
			MetricAltmanZ:      higher(3.0, 1.8, 0.40),
			MetricDebtCoverage: higher(0.4, 0.2, 0.15),
		},
		contracts.CategoryValuation: {
			MetricPriceToDCF:    lower(0.8, 1.2, 0.35),
			MetricPriceToGraham: lower(1.0, 1.5, 0.15),
			MetricPriceToFCF:    lower(15, 30, 0.20),
			MetricEVEBIT:        lower(10, 20, 0.20),
			MetricEVSales:       lower(2, 5, 0.10),
		},
		contracts.CategoryQuality: {
			MetricEarningsQuality: higher(75, 50, 0.60),
			MetricAccrualsRatio:   lower(-0.05, 0.05, 0.20),
			MetricROA:             higher(8, 2, 0.20),
		},
		contracts.CategoryMomentum: {
			MetricReturn1M: higher(5, 0, 0.30),
			MetricReturn3M: higher(10, 0, 0.35),
			MetricReturn6M: higher(15, 0, 0.35),
		},
		contracts.CategoryRisk: {
			MetricSharpe:      higher(1.0, 0.5, 0.30),
			MetricMaxDrawdown: higher(-0.10, -0.20, 0.25),
			MetricVol90D:      lower(0.20, 0.35, 0.15),
			MetricVaR95:       higher(-0.02, -0.035, 0.15),
			MetricBeta:        lower(1.0, 1.3, 0.15),
		},
	}
}

// DefaultConfig returns the built-in configuration. Load overlays a
// YAML file on top of it.
func DefaultConfig() *Config {
	return &Config{
		Meta: Meta{Name: "default", Version: "1"},
		Weights: Weights{
			Standard: CategoryWeights{
				Fundamental: 0.50,
				Technical:   0.30,
				Sentiment:   0.20,
			},
			Comprehensive: CategoryWeights{
				Fundamental:     0.25,
				Technical:       0.15,
				FinancialHealth: 0.20,
				Valuation:       0.15,
				Quality:         0.10,
				Momentum:        0.10,
				Risk:            0.05,
			},
		},
		Recommendation: Recommendation{
			Thresholds: Thresholds{StrongBuy: 80, Buy: 65, Hold: 35, Sell: 20},
		},
		Risk: Risk{
			MinSamplePeriods:   30,
			RiskFreeRate:       0.045,
			TradingDaysPerYear: 252,
			VaRConfidence:      0.95,
		},
		DCF: DCF{
			HorizonYears:       5,
			DiscountRate:       0.10,
			GrowthRateCap:      0.15,
			TerminalGrowthRate: 0.03,
			DefaultGrowthRate:  0.05,
		},
		Confidence: Confidence{Floor: 20, Cap: 95, DispersionScale: 50},
		Momentum: Momentum{
			// iloc[-22], [-66], [-132] 기준 → 21/65/131 거래일 전 종가 대비
			Windows: MomentumWindows{OneMonth: 21, ThreeMonth: 65, SixMonth: 131},
		},
		Technical: Technical{
			RSIPeriod:        14,
			MACDFast:         12,
			MACDSlow:         26,
			MACDSignal:       9,
			BollingerPeriod:  20,
			BollingerStdDevs: 2,
		},
		Quality: Quality{
			CashConversionWeight: 0.6,
			AccrualsWeight:       0.4,
			HighAccruals:         0.10,
			LowCashConversion:    0.8,
			VolatileRatioStdDev:  0.5,
			LowROA:               2,
			HighDebtToEquity:     2.0,
		},
		Insights: Insights{
			IndustryROE:        15,
			RSIOverbought:      70,
			RSIOversold:        30,
			HighBeta:           1.5,
			LowConfidence:      40,
			UndervaluedMargin:  0.2,
			SevereDrawdown:     -0.40,
			StrongCategory:     70,
			WeakCategory:       30,
			StrongCashFlow:     1.2,
			PiotroskiStrongMin: 7,
			PiotroskiWeakMax:   3,
		},
		Normalization: DefaultNormalization(),
	}
}
