package models

import "time"

// TrackedPosition — one open contract remembered by a channel tracker.
type TrackedPosition struct {
	Ticker    string    `json:"ticker"`
	Strike    string    `json:"strike"`
	Direction Direction `json:"direction"`
	Price     float64   `json:"price"`
	ExpDate   time.Time `json:"expDate"`
	OpenedAt  time.Time `json:"openedAt"`
}

func (p TrackedPosition) SameContract(o TrackedPosition) bool {
	return p.Ticker == o.Ticker &&
		p.Strike == o.Strike &&
		p.Direction == o.Direction &&
		p.ExpDate.Equal(o.ExpDate)
}

// OpenPosition — brokerage view of a held contract or share lot.
type OpenPosition struct {
	Ticker     string
	ContractID string
	Strike     string
	Direction  Direction
	ExpDate    time.Time
	Quantity   float64
	CostPrice  float64
	LastPrice  float64
	PLPct      float64
}
