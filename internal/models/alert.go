package models

import "time"

type Signal string

const (
	SignalNone  Signal = ""
	SignalOpen  Signal = "BTO"
	SignalClose Signal = "STC"
)

// SignalHint — classification of a channel message before parsing.
// Derived from the embed border colour or from the leading keyword.
type SignalHint int

const (
	HintNone SignalHint = iota
	HintOpen
	HintClose
)

type Direction string

const (
	DirectionCall Direction = "call"
	DirectionPut  Direction = "put"
)

type RiskClass string

const (
	RiskDaytrade RiskClass = "DAYTRADE/SCALP"
	RiskSwing    RiskClass = "RISKY/SWING"
)

type CloseKind string

const (
	CloseAllOut     CloseKind = "ALL OUT"
	CloseMost       CloseKind = "MOST"
	CloseHalf       CloseKind = "HALF"
	CloseSome       CloseKind = "SOME"
	CloseSingle     CloseKind = "SINGLE"
	CloseSpecific   CloseKind = "SPECIFIC"
	CloseFractional CloseKind = "FRACTIONAL"
)

// CloseInstruction — how much of the position a Close alert liquidates.
// Fraction is in (0, 1]; fractions in [0.01, 0.09] mean 1-9 whole contracts.
type CloseInstruction struct {
	Kind     CloseKind
	Fraction float64
}

// TradeAlert is a fully parsed alert, ready for order placement.
type TradeAlert struct {
	Signal    Signal
	Ticker    string
	Strike    string
	Direction Direction
	Price     float64
	ExpDate   time.Time
	StopLoss  float64

	// Open only.
	Risk      RiskClass
	InvestPct float64

	// Close only.
	Close CloseInstruction
}
