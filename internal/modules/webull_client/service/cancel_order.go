package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"mirror_trader/internal/broker"
)

func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	if orderID == "" {
		return fmt.Errorf("CancelOrder: empty order id")
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.tradePath("/v1/orders/"+orderID+"/cancel"),
		nil,
	)
	if err != nil {
		return fmt.Errorf("CancelOrder new request: %w", err)
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("CancelOrder do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 != 2 {
		return &broker.APIError{Code: resp.StatusCode, Msg: "CancelOrder", Raw: string(data)}
	}

	var r envelope
	if err := sonic.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("CancelOrder decode: %w; body=%s", err, string(data))
	}
	if !r.Success {
		return fmt.Errorf("CancelOrder rejected: code=%d msg=%s RAW=%s", r.Code, r.Msg, string(data))
	}

	return nil
}
