package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"

	"mirror_trader/internal/broker"
	"mirror_trader/internal/models"
	"mirror_trader/pkg/logger"
)

const expDateLayout = "2006-01-02"

// GetOptionContractID resolves a contract id from the option chain.
// If the requested expiry has no listed chain, the nearest listed
// expiration is substituted and the lookup retried once.
func (c *Client) GetOptionContractID(
	ctx context.Context,
	ticker, strike string,
	direction models.Direction,
	expDate time.Time,
) (string, time.Time, error) {

	id, dates, err := c.queryChain(ctx, ticker, strike, direction, expDate)
	if err != nil {
		return "", time.Time{}, err
	}
	if id != "" {
		return id, expDate, nil
	}

	nearest, ok := nearestExpiration(dates, expDate)
	if !ok {
		return "", time.Time{}, fmt.Errorf("GetOptionContractID: no chain for %s %s %s", ticker, strike, direction)
	}
	logger.Info("[%s] expiry %s not listed, trying %s",
		ticker, expDate.Format(expDateLayout), nearest.Format(expDateLayout))

	id, _, err = c.queryChain(ctx, ticker, strike, direction, nearest)
	if err != nil {
		return "", time.Time{}, err
	}
	if id == "" {
		return "", time.Time{}, fmt.Errorf("GetOptionContractID: no contract %s %s %s %s",
			ticker, strike, direction, nearest.Format(expDateLayout))
	}
	return id, nearest, nil
}

// queryChain returns the matching contract id (empty when the expiry is
// not listed) plus every expiration date the chain carries.
func (c *Client) queryChain(
	ctx context.Context,
	ticker, strike string,
	direction models.Direction,
	expDate time.Time,
) (string, []time.Time, error) {

	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("strike", strike)
	q.Set("direction", string(direction))
	q.Set("expireDate", expDate.Format(expDateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/option/chain?"+q.Encode(), nil)
	if err != nil {
		return "", nil, fmt.Errorf("GetOptionContractID new request: %w", err)
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("GetOptionContractID do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode/100 != 2 {
		return "", nil, &broker.APIError{Code: resp.StatusCode, Msg: "GetOptionContractID", Raw: string(data)}
	}

	var r struct {
		envelope
		TickerID        string   `json:"tickerId"`
		ExpirationDates []string `json:"expirationDates"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return "", nil, fmt.Errorf("GetOptionContractID decode: %w; body=%s", err, string(data))
	}
	if !r.Success {
		return "", nil, fmt.Errorf("GetOptionContractID rejected: code=%d msg=%s RAW=%s", r.Code, r.Msg, string(data))
	}

	dates := make([]time.Time, 0, len(r.ExpirationDates))
	for _, d := range r.ExpirationDates {
		if t, err := time.ParseInLocation(expDateLayout, d, time.Local); err == nil {
			dates = append(dates, t)
		}
	}
	return r.TickerID, dates, nil
}

func nearestExpiration(dates []time.Time, want time.Time) (time.Time, bool) {
	var (
		best     time.Time
		bestDiff = math.MaxFloat64
		found    bool
	)
	for _, d := range dates {
		diff := math.Abs(d.Sub(want).Hours() / 24)
		if diff < bestDiff {
			best, bestDiff, found = d, diff, true
		}
	}
	return best, found
}
