package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"

	"mirror_trader/internal/broker"
	"mirror_trader/internal/models"
)

func (c *Client) GetQuote(ctx context.Context, ticker, contractID string) (models.Quote, error) {
	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("tickerId", contractID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/quotes?"+q.Encode(), nil)
	if err != nil {
		return models.Quote{}, fmt.Errorf("GetQuote new request: %w", err)
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Quote{}, fmt.Errorf("GetQuote do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 != 2 {
		return models.Quote{}, &broker.APIError{Code: resp.StatusCode, Msg: "GetQuote", Raw: string(data)}
	}

	var r struct {
		envelope
		Bid float64 `json:"bidPrice"`
		Ask float64 `json:"askPrice"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return models.Quote{}, fmt.Errorf("GetQuote decode: %w; body=%s", err, string(data))
	}
	if !r.Success {
		return models.Quote{}, fmt.Errorf("GetQuote rejected: code=%d msg=%s RAW=%s", r.Code, r.Msg, string(data))
	}
	if r.Bid < 0 || r.Ask <= 0 {
		return models.Quote{}, fmt.Errorf("GetQuote: empty book RAW=%s", string(data))
	}

	return models.Quote{Bid: r.Bid, Ask: r.Ask}, nil
}
