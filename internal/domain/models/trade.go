package models

import "time"

// Direction of a trade. The numeric value matches TrendState so the two can be compared.
type Direction int

const (
	Sell Direction = -1
	Buy  Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "none"
	}
}

// TrendState is the classified direction of the smoothed price.
type TrendState int

const (
	TrendDown TrendState = -1
	TrendFlat TrendState = 0
	TrendUp   TrendState = 1
)

func (s TrendState) String() string {
	switch s {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	default:
		return "flat"
	}
}

// Direction maps a non-flat trend to the trade direction it implies.
func (s TrendState) Direction() Direction {
	switch s {
	case TrendUp:
		return Buy
	case TrendDown:
		return Sell
	default:
		return 0
	}
}

// TradeRequest is a market order produced by the risk sizer.
type TradeRequest struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Direction    Direction `json:"direction"`
	Volume       float64   `json:"volume"`
	EntryPrice   float64   `json:"entry_price"`
	StopDistance float64   `json:"stop_distance"`
	StopPips     float64   `json:"stop_pips"`
	TP1          float64   `json:"tp1"`
	TP2          float64   `json:"tp2"`
	Label        string    `json:"label"`
	Time         time.Time `json:"time"`
}

// ExitAction enumerates the commands the exit state machine can issue.
type ExitAction string

const (
	ExitCloseFull    ExitAction = "close_full"
	ExitClosePartial ExitAction = "close_partial"
	ExitModifyStop   ExitAction = "modify_stop"
)

// ExitCommand targets one open position.
type ExitCommand struct {
	PositionID string     `json:"position_id"`
	Symbol     string     `json:"symbol"`
	Action     ExitAction `json:"action"`
	Volume     float64    `json:"volume,omitempty"`
	StopPrice  float64    `json:"stop_price,omitempty"`
	Reason     string     `json:"reason"`
	Time       time.Time  `json:"time"`
}

// OrderResult is the outcome of a call against the order gateway.
type OrderResult struct {
	OK         bool    `json:"ok"`
	PositionID string  `json:"position_id,omitempty"`
	FillPrice  float64 `json:"fill_price,omitempty"` // set by Submit; 0 when the gateway does not report it
	Error      string  `json:"error,omitempty"`
}

// Position is the broker view of an open position.
type Position struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Label      string    `json:"label"`
	Direction  Direction `json:"direction"`
	Volume     float64   `json:"volume"`
	EntryPrice float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	OpenedAt   time.Time `json:"opened_at"`
}

// PositionClosed is the broker notification that a position is gone.
type PositionClosed struct {
	PositionID string    `json:"position_id"`
	Symbol     string    `json:"symbol"`
	NetProfit  float64   `json:"net_profit"`
	Reason     string    `json:"reason"`
	Time       time.Time `json:"time"`
}

// TradeRecord is the journal row written for every closed position.
type TradeRecord struct {
	PositionID string    `json:"position_id"`
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	Anchor     float64   `json:"anchor"`
	NetProfit  float64   `json:"net_profit"`
	Reason     string    `json:"reason"`
	OpenedAt   time.Time `json:"opened_at"`
	ClosedAt   time.Time `json:"closed_at"`
}
