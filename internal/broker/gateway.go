package broker

import (
	"context"
	"fmt"
	"time"

	"mirror_trader/internal/models"
)

// Gateway is the brokerage surface the order manager and the stop-loss
// engine work against. Paper and live accounts implement the same set.
type Gateway interface {
	// PlaceOrder submits an option order and returns the broker order id.
	PlaceOrder(ctx context.Context, o models.Order, tif models.TimeInForce) (string, error)
	// ModifyOrder replaces the price levels of a working order in place.
	ModifyOrder(ctx context.Context, o models.Order, tif models.TimeInForce) error
	CancelOrder(ctx context.Context, orderID string) error

	GetPositions(ctx context.Context) ([]models.OpenPosition, error)
	GetWorkingOrders(ctx context.Context) ([]models.WorkingOrder, error)
	GetQuote(ctx context.Context, ticker, contractID string) (models.Quote, error)
	GetAccountBalances(ctx context.Context) (models.AccountBalances, error)

	// GetOptionContractID resolves an option contract by strike and
	// direction. When the requested expiry has no chain, the nearest
	// listed expiration is used; the date actually chosen is returned.
	GetOptionContractID(ctx context.Context, ticker, strike string, direction models.Direction, expDate time.Time) (string, time.Time, error)

	Paper() bool
}

// APIError is a non-2xx or broker-declined response.
type APIError struct {
	Code int
	Msg  string
	Raw  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("broker api error code=%d msg=%s RAW=%s", e.Code, e.Msg, e.Raw)
}
