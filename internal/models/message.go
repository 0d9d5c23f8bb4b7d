package models

import "time"

// ChannelMessage — a scrubbed chat message from an alert channel.
type ChannelMessage struct {
	Timestamp time.Time
	Author    string
	Content   string
	Hint      SignalHint
}

// StopLossState — trailing state for one held contract.
// Level is the locked-in profit fraction; it never decreases.
type StopLossState struct {
	StopPrice float64 `json:"stopPrice"`
	Level     float64 `json:"level"`
	Dirty     bool    `json:"-"`
}
