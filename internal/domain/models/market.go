package models

import "time"

// Bar is one OHLC observation. Bars are immutable once appended to a series.
type Bar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

// Tick is a single top-of-book quote.
type Tick struct {
	Symbol string    `json:"s"`
	Time   time.Time `json:"t"`
	Bid    float64   `json:"b"`
	Ask    float64   `json:"a"`
}

// Mid returns the quote midpoint.
func (t Tick) Mid() float64 { return (t.Bid + t.Ask) / 2 }

// SymbolInfo carries the tradable metadata of an instrument.
type SymbolInfo struct {
	Name       string  `json:"name"`
	PipSize    float64 `json:"pip_size"`
	PipValue   float64 `json:"pip_value"`
	VolumeMin  float64 `json:"volume_min"`
	VolumeMax  float64 `json:"volume_max"`
	VolumeStep float64 `json:"volume_step"`
}

// AccountInfo is the subset of account state the sizer needs.
type AccountInfo struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}
