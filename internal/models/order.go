package models

type OrderAction string

const (
	ActionBuy  OrderAction = "BUY"
	ActionSell OrderAction = "SELL"
)

type OrderType string

const (
	OrderLimit  OrderType = "LMT"
	OrderMarket OrderType = "MKT"
	OrderStop   OrderType = "STP"
)

type TimeInForce string

const (
	EnforceDay TimeInForce = "DAY"
	EnforceGTC TimeInForce = "GTC"
)

// WorkingOrder — a submitted order owned by exactly one supervisor
// until it fills or is cancelled.
type WorkingOrder struct {
	Action     OrderAction
	OrderID    string
	Ticker     string
	ContractID string
	StopLoss   float64
	OrderType  OrderType
	Filled     bool
}

// Order — brokerage view of a live order.
type Order struct {
	OrderID    string
	Ticker     string
	ContractID string
	Action     OrderAction
	OrderType  OrderType
	LimitPrice float64
	StopPrice  float64
	Quantity   int
}

type Quote struct {
	Bid float64
	Ask float64
}

func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}

type AccountBalances struct {
	Cash     float64
	OptionBP float64
}
