package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"mirror_trader/internal/broker"
	"mirror_trader/internal/models"
)

func (c *Client) ModifyOrder(ctx context.Context, o models.Order, tif models.TimeInForce) error {
	if o.OrderID == "" {
		return fmt.Errorf("ModifyOrder: empty order id")
	}

	body := map[string]any{
		"serialId":    uuid.NewString(),
		"orderId":     o.OrderID,
		"tickerId":    o.ContractID,
		"action":      string(o.Action),
		"orderType":   string(o.OrderType),
		"timeInForce": string(tif),
		"quantity":    o.Quantity,
	}
	switch o.OrderType {
	case models.OrderLimit:
		body["lmtPrice"] = o.LimitPrice
	case models.OrderStop:
		body["auxPrice"] = o.StopPrice
	}

	payload, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("ModifyOrder marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.tradePath("/v1/option/orders/modify"),
		bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("ModifyOrder new request: %w", err)
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ModifyOrder do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 != 2 {
		return &broker.APIError{Code: resp.StatusCode, Msg: "ModifyOrder", Raw: string(data)}
	}

	var r envelope
	if err := sonic.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("ModifyOrder decode: %w; body=%s", err, string(data))
	}
	if !r.Success {
		return fmt.Errorf("ModifyOrder rejected: code=%d msg=%s RAW=%s", r.Code, r.Msg, string(data))
	}

	return nil
}
