package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"mirror_trader/internal/broker"
	"mirror_trader/internal/models"
)

func (c *Client) GetPositions(ctx context.Context) ([]models.OpenPosition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tradePath("/v1/account/positions"), nil)
	if err != nil {
		return nil, fmt.Errorf("GetPositions new request: %w", err)
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GetPositions do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 != 2 {
		return nil, &broker.APIError{Code: resp.StatusCode, Msg: "GetPositions", Raw: string(data)}
	}

	var r struct {
		envelope
		Positions []wirePosition `json:"positions"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("GetPositions decode: %w; body=%s", err, string(data))
	}
	if !r.Success {
		return nil, fmt.Errorf("GetPositions rejected: code=%d msg=%s RAW=%s", r.Code, r.Msg, string(data))
	}

	out := make([]models.OpenPosition, 0, len(r.Positions))
	for _, p := range r.Positions {
		pos := models.OpenPosition{
			Ticker:     p.Ticker,
			ContractID: p.TickerID,
			Strike:     p.StrikePrice,
			Quantity:   p.Position,
			CostPrice:  p.CostPrice,
			LastPrice:  p.LastPrice,
			PLPct:      p.UnrealizedPL,
		}
		switch strings.ToLower(p.Direction) {
		case "call":
			pos.Direction = models.DirectionCall
		case "put":
			pos.Direction = models.DirectionPut
		}
		if p.ExpireDate != "" {
			if exp, err := time.ParseInLocation("2006-01-02", p.ExpireDate, time.Local); err == nil {
				pos.ExpDate = exp
			}
		}
		out = append(out, pos)
	}
	return out, nil
}
