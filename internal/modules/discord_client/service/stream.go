package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bytedance/sonic"

	"mirror_trader/internal/models"
	"mirror_trader/pkg/logger"
)

type gatewayFrame struct {
	Op int             `json:"op"`
	T  string          `json:"t"`
	S  *int            `json:"s"`
	D  json.RawMessage `json:"d"`
}

const (
	opDispatch  = 0
	opHeartbeat = 1
	opIdentify  = 2
	opHello     = 10
)

// StreamMessages — live MESSAGE_CREATE feed for a set of channels over
// the gateway websocket, with reconnect. Used instead of polling when
// streaming is enabled.
func (c *Client) StreamMessages(ctx context.Context, channelIDs []string) <-chan StreamItem {
	ch := make(chan StreamItem)
	go func() {
		defer close(ch)

		if len(channelIDs) == 0 {
			return
		}

		wanted := make(map[string]struct{}, len(channelIDs))
		for _, id := range channelIDs {
			wanted[id] = struct{}{}
		}

		for {
			logger.Info("[WS] gateway connect, %d channels", len(channelIDs))
			conn, _, err := c.wsDialer.Dial(gatewayURL, nil)
			if err != nil {
				logger.Error("[WS] gateway dial error: %v", err)
				time.Sleep(time.Second)
				continue
			}

			var (
				lastSeq   *int
				beat      *time.Ticker
				stopBeats = make(chan struct{})
			)

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					logger.Error("[WS] gateway read error: %v", err)
					_ = conn.Close()
					break
				}

				var frame gatewayFrame
				if err := sonic.Unmarshal(msg, &frame); err != nil {
					continue
				}
				if frame.S != nil {
					lastSeq = frame.S
				}

				switch frame.Op {
				case opHello:
					var hello struct {
						HeartbeatInterval int `json:"heartbeat_interval"`
					}
					if err := sonic.Unmarshal(frame.D, &hello); err != nil || hello.HeartbeatInterval <= 0 {
						continue
					}

					beat = time.NewTicker(time.Duration(hello.HeartbeatInterval) * time.Millisecond)
					go func() {
						defer beat.Stop()
						for {
							select {
							case <-ctx.Done():
								return
							case <-stopBeats:
								return
							case <-beat.C:
								_ = conn.WriteJSON(map[string]any{"op": opHeartbeat, "d": lastSeq})
							}
						}
					}()

					identify := map[string]any{
						"op": opIdentify,
						"d": map[string]any{
							"token": c.token,
							"properties": map[string]string{
								"os": "linux", "browser": "none", "device": "none",
							},
							"intents": 1 << 9, // GUILD_MESSAGES
						},
					}
					if err := conn.WriteJSON(identify); err != nil {
						logger.Error("[WS] gateway identify error: %v", err)
					}

				case opDispatch:
					if frame.T != "MESSAGE_CREATE" {
						continue
					}

					var raw struct {
						rawMessage
						ChannelID string `json:"channel_id"`
					}
					if err := sonic.Unmarshal(frame.D, &raw); err != nil {
						continue
					}
					if _, ok := wanted[raw.ChannelID]; !ok {
						continue
					}

					select {
					case ch <- StreamItem{ChannelID: raw.ChannelID, Message: scrubMessage(raw.rawMessage)}:
					case <-ctx.Done():
						close(stopBeats)
						_ = conn.Close()
						return
					}
				}
			}

			close(stopBeats)

			select {
			case <-ctx.Done():
				return
			default:
				time.Sleep(time.Second)
			}
		}
	}()
	return ch
}

type StreamItem struct {
	ChannelID string
	Message   models.ChannelMessage
}
