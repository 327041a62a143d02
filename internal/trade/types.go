package trade

import "errors"

// Errors
var (
	ErrOrderRejected = errors.New("order rejected by gateway")
)

// retcodeDone is the MT5 trade server code for a completed request.
const retcodeDone = 10009

// Quote is one price snapshot for a symbol.
type Quote struct {
	Symbol string
	Bid    float64
	Ask    float64
	Last   float64
	Volume float64
	Time   int64 // server timestamp, unix ms
}

// SymbolParams are the trading parameters of one symbol.
type SymbolParams struct {
	Symbol     string
	Digits     int64
	Point      float64
	VolumeMin  float64
	VolumeMax  float64
	VolumeStep float64
}

// Order is one open or historical order.
type Order struct {
	Ticket     uint64
	Symbol     string
	Type       string
	Volume     float64
	PriceOpen  float64
	StopLoss   float64
	TakeProfit float64
	Profit     float64
	Comment    string
}

// OrderRequest describes a new order.
type OrderRequest struct {
	Symbol     string
	Type       string // "buy", "sell", "buy_limit", ...
	Volume     float64
	Price      float64 // 0 for market orders
	StopLoss   float64
	TakeProfit float64
	Comment    string
}

// OrderResult is the gateway's answer to a trade operation.
type OrderResult struct {
	Ticket  uint64
	Retcode int64
	Price   float64
	Comment string
}
