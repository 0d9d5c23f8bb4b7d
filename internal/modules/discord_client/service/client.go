package service

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	apiBase    = "https://discord.com/api/v10"
	gatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"
)

type Client struct {
	http     *http.Client
	wsDialer *websocket.Dialer
	token    string
}

func NewClient(token string) *Client {
	return &Client{
		http:     &http.Client{Timeout: 15 * time.Second},
		wsDialer: websocket.DefaultDialer,
		token:    token,
	}
}

func (c *Client) auth(req *http.Request) {
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")
}
