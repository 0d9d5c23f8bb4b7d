package stoploss

import (
	"math"

	"mirror_trader/internal/models"
)

const (
	// Each ratchet step locks in another 10% above entry.
	levelStep = 0.1

	breakevenFloor = 0.1
	ratchetFloor   = 0.2
)

type input struct {
	entryPrice float64
	lastPrice  float64
	state      models.StopLossState
	defaultSL  float64
}

// seedState derives the initial ratchet state from the resting stop
// order. A missing or nonsense trigger falls back to the default stop.
func seedState(entryPrice, orderStop, defaultSL float64) models.StopLossState {
	stop := orderStop
	if stop <= 0 {
		stop = round2(entryPrice * (1 - defaultSL))
	}
	return models.StopLossState{StopPrice: stop, Level: -defaultSL}
}

// decideRatchet moves the stop up as profit grows; it never moves down.
// First step: 10% unrealized moves the stop to breakeven. From 20% on,
// every extra 10% locks the previous level in.
func decideRatchet(in input) models.StopLossState {
	st := in.state
	if in.entryPrice <= 0 {
		return st
	}

	pl := (in.lastPrice - in.entryPrice) / in.entryPrice

	switch {
	case pl >= breakevenFloor && pl < ratchetFloor && st.Level == -in.defaultSL:
		st.StopPrice = round2(in.entryPrice)
		st.Level = levelStep
		st.Dirty = true

	case pl >= ratchetFloor && pl-st.Level >= levelStep:
		st.StopPrice = round2(in.entryPrice * (1 + st.Level))
		st.Level += levelStep
		st.Dirty = true
	}

	return st
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
