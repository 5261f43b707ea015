package models

import "time"

// GateResult records the outcome of one entry gate.
type GateResult struct {
	Name   string  `json:"name"`
	Pass   bool    `json:"pass"`
	Value  float64 `json:"value"`
	Reason string  `json:"reason,omitempty"`
}

// Decision is the journal row for one entry evaluation.
type Decision struct {
	ID       string        `json:"id"`
	Symbol   string        `json:"symbol"`
	BarIndex int           `json:"bar_index"`
	Time     time.Time     `json:"time"`
	Accepted bool          `json:"accepted"`
	Gates    []GateResult  `json:"gates"`
	Request  *TradeRequest `json:"request,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// OpenTrade is the read-only view of a managed position.
type OpenTrade struct {
	PositionID     string     `json:"position_id"`
	Direction      Direction  `json:"direction"`
	EntryPrice     float64    `json:"entry_price"`
	Anchor         float64    `json:"anchor"`
	Stretch        float64    `json:"stretch"`
	TP1            float64    `json:"tp1"`
	TP2            float64    `json:"tp2"`
	TP1Hit         bool       `json:"tp1_hit"`
	TP2Hit         bool       `json:"tp2_hit"`
	TrailingActive bool       `json:"trailing_active"`
	EntryBarIndex  int        `json:"entry_bar_index"`
	EntryTrend     TrendState `json:"entry_trend"`
	OpenedAt       time.Time  `json:"opened_at"`
}

// Performance summarises realised results.
type Performance struct {
	Since        time.Time `json:"since"`
	TotalTrades  int       `json:"total_trades"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	GrossProfit  float64   `json:"gross_profit"`
	GrossLoss    float64   `json:"gross_loss"`
	NetProfit    float64   `json:"net_profit"`
	WinRate      float64   `json:"win_rate"`
	ProfitFactor float64   `json:"profit_factor"`
	LargestWin   float64   `json:"largest_win"`
	LargestLoss  float64   `json:"largest_loss"`
	AvgWin       float64   `json:"avg_win"`
	AvgLoss      float64   `json:"avg_loss"`
}

// Snapshot is the derived engine state exposed to operators. Consumers get copies.
type Snapshot struct {
	Symbol         string      `json:"symbol"`
	BarIndex       int         `json:"bar_index"`
	Time           time.Time   `json:"time"`
	Close          float64     `json:"close"`
	Smoothed       float64     `json:"smoothed"`
	Slope          float64     `json:"slope"`
	Trend          TrendState  `json:"trend"`
	Hurst          float64     `json:"hurst"`
	FractalDim     float64     `json:"fractal_dimension"`
	FDZone         string      `json:"fd_zone"`
	InCorrection   bool        `json:"in_correction"`
	Anchor         float64     `json:"anchor"`
	AnchorValid    bool        `json:"anchor_valid"`
	ImbalanceRaw   float64     `json:"imbalance_raw"`
	ImbalanceZ     float64     `json:"imbalance_z"`
	ToxicityScore  float64     `json:"toxicity_score"`
	EffSpread      float64     `json:"effective_spread"`
	MarketSafe     bool        `json:"market_safe"`
	ATR            float64     `json:"atr"`
	TradingEnabled bool        `json:"trading_enabled"`
	OpenTrades     []OpenTrade `json:"open_trades"`
	Performance    Performance `json:"performance"`
	LastDecision   *Decision   `json:"last_decision,omitempty"`
}
