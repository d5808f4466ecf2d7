package contracts

import "time"

// RawMetricsBundle is the already-fetched input for one analysis request.
// ⭐ SSOT: 엔진 입력 데이터 구조는 여기서만 정의
//
// Every numeric field is independently optional. Series are ordered
// oldest first; statements are ordered newest first ([0] current, [1] prior).
type RawMetricsBundle struct {
	Symbol string    `json:"symbol" validate:"required,max=32"`
	AsOf   time.Time `json:"as_of,omitempty"`

	Price             Float `json:"price"`
	MarketCap         Float `json:"market_cap"`
	SharesOutstanding Float `json:"shares_outstanding"`

	Fundamentals Fundamentals         `json:"fundamentals"`
	Statements   []FinancialStatement `json:"statements,omitempty"`
	CashFlow     CashFlowData         `json:"cash_flow"`
	Technical    TechnicalData        `json:"technical"`
	Sentiment    SentimentData        `json:"sentiment"`

	Prices          []PricePoint `json:"prices,omitempty" validate:"max=5000,dive"`
	BenchmarkPrices []PricePoint `json:"benchmark_prices,omitempty" validate:"max=5000,dive"`
}

// Fundamentals holds provider-reported ratios. Percent fields are in
// percent units (15 = 15%).
type Fundamentals struct {
	PERatio           Float `json:"pe_ratio"`
	PBRatio           Float `json:"pb_ratio"`
	ROE               Float `json:"roe"`
	ROA               Float `json:"roa"`
	ProfitMargin      Float `json:"profit_margin"`
	DebtToEquity      Float `json:"debt_to_equity"`
	CurrentRatio      Float `json:"current_ratio"`
	RevenueGrowth     Float `json:"revenue_growth"`
	EarningsGrowth    Float `json:"earnings_growth"`
	EPS               Float `json:"eps"`
	BookValuePerShare Float `json:"book_value_per_share"`

	// 업종 평균 ROE (%), 없으면 설정값 사용
	IndustryROE Float `json:"industry_roe"`
}

// FinancialStatement is one annual period of accounting figures.
type FinancialStatement struct {
	PeriodEnd          time.Time `json:"period_end,omitempty"`
	NetIncome          Float     `json:"net_income"`
	OperatingCashFlow  Float     `json:"operating_cash_flow"`
	TotalAssets        Float     `json:"total_assets"`
	TotalLiabilities   Float     `json:"total_liabilities"`
	CurrentAssets      Float     `json:"current_assets"`
	CurrentLiabilities Float     `json:"current_liabilities"`
	LongTermDebt       Float     `json:"long_term_debt"`
	RetainedEarnings   Float     `json:"retained_earnings"`
	EBIT               Float     `json:"ebit"`
	Revenue            Float     `json:"revenue"`
	GrossProfit        Float     `json:"gross_profit"`
	SharesOutstanding  Float     `json:"shares_outstanding"`
}

// CashFlowData holds free cash flow and capital structure inputs.
type CashFlowData struct {
	FreeCashFlow Float `json:"free_cash_flow"`
	// newest first
	FreeCashFlowHistory []Float `json:"free_cash_flow_history,omitempty"`
	TotalDebt           Float   `json:"total_debt"`
	Cash                Float   `json:"cash"`
}

// TechnicalData holds precomputed indicators. Missing values are derived
// from Prices when the series is long enough.
type TechnicalData struct {
	RSI            Float `json:"rsi"`
	MACD           Float `json:"macd"`
	MACDSignal     Float `json:"macd_signal"`
	SMA20          Float `json:"sma_20"`
	SMA50          Float `json:"sma_50"`
	SMA200         Float `json:"sma_200"`
	BollingerUpper Float `json:"bollinger_upper"`
	BollingerLower Float `json:"bollinger_lower"`
}

// SentimentData holds polarity readings in [-1, 1] and analyst opinions.
type SentimentData struct {
	NewsSentiment    Float          `json:"news_sentiment"`
	SocialSentiment  Float          `json:"social_sentiment"`
	NewsArticleCount int            `json:"news_article_count,omitempty"`
	SocialPostCount  int            `json:"social_post_count,omitempty"`
	AnalystRatingKey string         `json:"analyst_rating_key,omitempty" validate:"max=32"` // strong_buy, buy, hold, sell, strong_sell
	AnalystRatings   AnalystRatings `json:"analyst_ratings"`
}

// AnalystRatings counts analyst opinions
type AnalystRatings struct {
	StrongBuy  int `json:"strong_buy" validate:"gte=0"`
	Buy        int `json:"buy" validate:"gte=0"`
	Hold       int `json:"hold" validate:"gte=0"`
	Sell       int `json:"sell" validate:"gte=0"`
	StrongSell int `json:"strong_sell" validate:"gte=0"`
}

// Total returns the number of ratings
func (a AnalystRatings) Total() int {
	return a.StrongBuy + a.Buy + a.Hold + a.Sell + a.StrongSell
}

// HasNegative reports whether any rating count is below zero
func (a AnalystRatings) HasNegative() bool {
	return a.StrongBuy < 0 || a.Buy < 0 || a.Hold < 0 || a.Sell < 0 || a.StrongSell < 0
}

// PricePoint is one daily close
type PricePoint struct {
	Date   time.Time `json:"date,omitempty"`
	Close  float64   `json:"close" validate:"gte=0"`
	Volume int64     `json:"volume,omitempty"`
}

// Current returns the newest statement, if any.
func (b *RawMetricsBundle) Current() (FinancialStatement, bool) {
	if len(b.Statements) == 0 {
		return FinancialStatement{}, false
	}
	return b.Statements[0], true
}

// Prior returns the statement one period before the newest, if any.
func (b *RawMetricsBundle) Prior() (FinancialStatement, bool) {
	if len(b.Statements) < 2 {
		return FinancialStatement{}, false
	}
	return b.Statements[1], true
}

// Closes returns the close series, oldest first.
func Closes(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Close
	}
	return out
}

// LastPrice returns Price, falling back to the newest close.
func (b *RawMetricsBundle) LastPrice() Float {
	if b.Price.IsKnown() {
		return b.Price
	}
	if n := len(b.Prices); n > 0 && b.Prices[n-1].Close > 0 {
		return Known(b.Prices[n-1].Close)
	}
	return Unknown()
}

// Shares returns SharesOutstanding, falling back to the newest statement.
func (b *RawMetricsBundle) Shares() Float {
	if b.SharesOutstanding.IsKnown() {
		return b.SharesOutstanding
	}
	if cur, ok := b.Current(); ok {
		return cur.SharesOutstanding
	}
	return Unknown()
}
