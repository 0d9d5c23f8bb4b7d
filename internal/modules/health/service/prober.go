package service

import (
	"context"
	"net/http"
	"time"

	"mirror_trader/pkg/logger"
)

const (
	probeURL      = "https://discord.com/api/v10/gateway"
	probeInterval = 10 * time.Second
	// Longest outage we ride out before giving up on the session.
	maxNetworkWait = 10 * time.Minute
)

// Prober answers "is the network back yet" for the pollers. After a
// request error they block in WaitForNetwork instead of hammering the API.
type Prober struct {
	http *http.Client
}

func NewProber() *Prober {
	return &Prober{http: &http.Client{Timeout: 5 * time.Second}}
}

func (p *Prober) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode/100 == 2
}

// WaitForNetwork blocks until connectivity returns, the wait budget is
// spent, or ctx is cancelled. Reports whether the network came back.
func (p *Prober) WaitForNetwork(ctx context.Context) bool {
	deadline := time.Now().Add(maxNetworkWait)
	tick := time.NewTicker(probeInterval)
	defer tick.Stop()

	for {
		if p.Online(ctx) {
			return true
		}
		if time.Now().After(deadline) {
			logger.Error("network still down after %s, giving up", maxNetworkWait)
			return false
		}
		logger.Info("network down, retrying in %s", probeInterval)

		select {
		case <-ctx.Done():
			return false
		case <-tick.C:
		}
	}
}
