package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"mirror_trader/internal/models"
)

// RateLimitError carries the retry-after hint from a 429 response.
type RateLimitError struct {
	Global     bool
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (global=%v): %s, retry after %s", e.Global, e.Message, e.RetryAfter)
}

type rawEmbed struct {
	Type        string `json:"type"`
	Color       int    `json:"color"`
	Description string `json:"description"`
}

type rawMessage struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
	Author    struct {
		Username string `json:"username"`
	} `json:"author"`
	Embeds []rawEmbed `json:"embeds"`
}

// ChannelMessages fetches the newest messages of a channel, newest first,
// already scrubbed and classified.
func (c *Client) ChannelMessages(ctx context.Context, channelID string, limit int) ([]models.ChannelMessage, error) {
	url := fmt.Sprintf("%s/channels/%s/messages?limit=%d", apiBase, channelID, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ChannelMessages new request: %w", err)
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ChannelMessages do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		var r struct {
			Global     bool    `json:"global"`
			Message    string  `json:"message"`
			RetryAfter float64 `json:"retry_after"`
		}
		if err := sonic.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("ChannelMessages decode 429: %w; body=%s", err, string(data))
		}
		return nil, &RateLimitError{
			Global:     r.Global,
			Message:    r.Message,
			RetryAfter: time.Duration(r.RetryAfter * float64(time.Second)),
		}
	}

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("ChannelMessages http %d: %s", resp.StatusCode, string(data))
	}

	var raw []rawMessage
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ChannelMessages decode: %w; body=%s", err, string(data))
	}

	out := make([]models.ChannelMessage, 0, len(raw))
	for _, m := range raw {
		out = append(out, scrubMessage(m))
	}
	return out, nil
}
