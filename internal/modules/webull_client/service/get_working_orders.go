package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"mirror_trader/internal/broker"
	"mirror_trader/internal/models"
)

// GetWorkingOrders lists orders still resting in the broker's book.
// An order absent from this table is either filled or cancelled.
func (c *Client) GetWorkingOrders(ctx context.Context) ([]models.WorkingOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tradePath("/v1/account/orders?status=working"), nil)
	if err != nil {
		return nil, fmt.Errorf("GetWorkingOrders new request: %w", err)
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GetWorkingOrders do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 != 2 {
		return nil, &broker.APIError{Code: resp.StatusCode, Msg: "GetWorkingOrders", Raw: string(data)}
	}

	var r struct {
		envelope
		Orders []wireOrder `json:"orders"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("GetWorkingOrders decode: %w; body=%s", err, string(data))
	}
	if !r.Success {
		return nil, fmt.Errorf("GetWorkingOrders rejected: code=%d msg=%s RAW=%s", r.Code, r.Msg, string(data))
	}

	out := make([]models.WorkingOrder, 0, len(r.Orders))
	for _, o := range r.Orders {
		out = append(out, models.WorkingOrder{
			OrderID:    o.OrderID,
			Ticker:     o.Ticker,
			ContractID: o.TickerID,
			Action:     models.OrderAction(o.Action),
			OrderType:  models.OrderType(o.OrderType),
			StopLoss:   o.AuxPrice,
		})
	}
	return out, nil
}
