package service

// envelope is the common response wrapper of the trade API.
type envelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
}

type wireOrder struct {
	OrderID     string  `json:"orderId"`
	Ticker      string  `json:"ticker"`
	TickerID    string  `json:"tickerId"`
	Action      string  `json:"action"`
	OrderType   string  `json:"orderType"`
	TimeInForce string  `json:"timeInForce"`
	LmtPrice    float64 `json:"lmtPrice"`
	AuxPrice    float64 `json:"auxPrice"`
	Quantity    float64 `json:"totalQuantity"`
	FilledQty   float64 `json:"filledQuantity"`
	Status      string  `json:"status"`
}

type wirePosition struct {
	Ticker       string  `json:"ticker"`
	TickerID     string  `json:"tickerId"`
	AssetType    string  `json:"assetType"`
	StrikePrice  string  `json:"strikePrice"`
	Direction    string  `json:"direction"`
	ExpireDate   string  `json:"expireDate"`
	Position     float64 `json:"position"`
	CostPrice    float64 `json:"costPrice"`
	LastPrice    float64 `json:"lastPrice"`
	UnrealizedPL float64 `json:"unrealizedProfitLossRate"`
}
