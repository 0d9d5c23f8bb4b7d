package service

import (
	"net/http"
	"strconv"
	"time"
)

// Client talks to the brokerage REST API. One file per call below.
type Client struct {
	http     *http.Client
	endpoint string
	deviceID string
	token    string
	paper    bool
}

func NewClient(endpoint, deviceID, token string, paper bool) *Client {
	return &Client{
		http:     &http.Client{Timeout: 15 * time.Second},
		endpoint: endpoint,
		deviceID: deviceID,
		token:    token,
		paper:    paper,
	}
}

func (c *Client) Paper() bool { return c.paper }

func (c *Client) auth(req *http.Request) {
	req.Header.Set("did", c.deviceID)
	req.Header.Set("access_token", c.token)
	req.Header.Set("t_time", strconv.FormatInt(time.Now().UnixMilli(), 10))
	req.Header.Set("Content-Type", "application/json")
}

// tradePath prefixes paper-account calls so live and paper share call sites.
func (c *Client) tradePath(p string) string {
	if c.paper {
		return c.endpoint + "/paper" + p
	}
	return c.endpoint + p
}
