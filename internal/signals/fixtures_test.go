package signals

import (
	"math"
	"time"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/internal/strategyconfig"
	"github.com/wonny/finscore/pkg/logger"
)

var k = contracts.Known

func testConfig() *strategyconfig.Config {
	return strategyconfig.DefaultConfig()
}

func testLogger() *logger.Logger {
	return logger.NewNop()
}

// priceSeries builds n daily closes with drift and a deterministic wobble
func priceSeries(n int, start, drift, wobble float64) []contracts.PricePoint {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]contracts.PricePoint, n)
	for i := 0; i < n; i++ {
		out[i] = contracts.PricePoint{
			Date:   base.AddDate(0, 0, i),
			Close:  start*(1+drift*float64(i)) + wobble*math.Sin(float64(i)/5),
			Volume: 1_000_000,
		}
	}
	return out
}

// sampleBundle is a fully populated, healthy company
func sampleBundle() *contracts.RawMetricsBundle {
	return &contracts.RawMetricsBundle{
		Symbol:            "ACME",
		AsOf:              time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		MarketCap:         k(2000),
		SharesOutstanding: k(10),
		Fundamentals: contracts.Fundamentals{
			PERatio:           k(18),
			PBRatio:           k(2.2),
			ROE:               k(17),
			ROA:               k(9),
			ProfitMargin:      k(16),
			DebtToEquity:      k(0.6),
			CurrentRatio:      k(1.8),
			RevenueGrowth:     k(12),
			EarningsGrowth:    k(10),
			EPS:               k(11),
			BookValuePerShare: k(90),
		},
		Statements: []contracts.FinancialStatement{
			{
				NetIncome: k(110), OperatingCashFlow: k(140), TotalAssets: k(1200),
				TotalLiabilities: k(500), CurrentAssets: k(400), CurrentLiabilities: k(220),
				LongTermDebt: k(200), RetainedEarnings: k(350), EBIT: k(160),
				Revenue: k(900), GrossProfit: k(380), SharesOutstanding: k(10),
			},
			{
				NetIncome: k(95), OperatingCashFlow: k(120), TotalAssets: k(1150),
				TotalLiabilities: k(520), CurrentAssets: k(360), CurrentLiabilities: k(230),
				LongTermDebt: k(230), RetainedEarnings: k(300), EBIT: k(140),
				Revenue: k(820), GrossProfit: k(330), SharesOutstanding: k(10),
			},
		},
		CashFlow: contracts.CashFlowData{
			FreeCashFlow:        k(100),
			FreeCashFlowHistory: []contracts.Float{k(100), k(92), k(85)},
			TotalDebt:           k(250),
			Cash:                k(120),
		},
		Sentiment: contracts.SentimentData{
			NewsSentiment:   k(0.25),
			SocialSentiment: k(0.1),
			AnalystRatings:  contracts.AnalystRatings{StrongBuy: 4, Buy: 6, Hold: 3, Sell: 1},
		},
		Prices:          priceSeries(260, 150, 0.002, 3),
		BenchmarkPrices: priceSeries(260, 400, 0.001, 4),
	}
}
