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

func (c *Client) GetAccountBalances(ctx context.Context) (models.AccountBalances, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tradePath("/v1/account/balances"), nil)
	if err != nil {
		return models.AccountBalances{}, fmt.Errorf("GetAccountBalances new request: %w", err)
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return models.AccountBalances{}, fmt.Errorf("GetAccountBalances do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 != 2 {
		return models.AccountBalances{}, &broker.APIError{Code: resp.StatusCode, Msg: "GetAccountBalances", Raw: string(data)}
	}

	var r struct {
		envelope
		Cash     float64 `json:"cashBalance"`
		OptionBP float64 `json:"optionBuyingPower"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return models.AccountBalances{}, fmt.Errorf("GetAccountBalances decode: %w; body=%s", err, string(data))
	}
	if !r.Success {
		return models.AccountBalances{}, fmt.Errorf("GetAccountBalances rejected: code=%d msg=%s RAW=%s", r.Code, r.Msg, string(data))
	}

	return models.AccountBalances{Cash: r.Cash, OptionBP: r.OptionBP}, nil
}
