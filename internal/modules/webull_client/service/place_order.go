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

func (c *Client) PlaceOrder(ctx context.Context, o models.Order, tif models.TimeInForce) (string, error) {
	if o.Quantity <= 0 {
		return "", fmt.Errorf("PlaceOrder: quantity <= 0")
	}
	if o.ContractID == "" {
		return "", fmt.Errorf("PlaceOrder: empty contract id")
	}

	body := map[string]any{
		"serialId":    uuid.NewString(),
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
		return "", fmt.Errorf("PlaceOrder marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.tradePath("/v1/option/orders/place"),
		bytes.NewReader(payload),
	)
	if err != nil {
		return "", fmt.Errorf("PlaceOrder new request: %w", err)
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("PlaceOrder do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 != 2 {
		return "", &broker.APIError{Code: resp.StatusCode, Msg: "PlaceOrder", Raw: string(data)}
	}

	var r struct {
		envelope
		OrderID string `json:"orderId"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("PlaceOrder decode: %w; body=%s", err, string(data))
	}

	if !r.Success {
		return "", fmt.Errorf("PlaceOrder rejected: code=%d msg=%s RAW=%s", r.Code, r.Msg, string(data))
	}
	if r.OrderID == "" {
		return "", fmt.Errorf("PlaceOrder: empty orderId RAW=%s", string(data))
	}

	return r.OrderID, nil
}
