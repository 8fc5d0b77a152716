package server

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// Health is the parsed answer of the status probe.
type Health struct {
	Status     string
	Message    string
	Code       int64
	ServerTime int64
}

// OK reports whether the application declared itself healthy.
func (h Health) OK() bool { return h.Status == "success" }

// Health probes healthcheck/status.json.
func (c *Client) Health(ctx context.Context) (Health, error) {
	body, err := c.get(ctx, c.URL("healthcheck", "status.json"))
	if err != nil {
		return Health{}, fmt.Errorf("health probe failed: %w", err)
	}
	return ParseHealth(body)
}

// ParseHealth reads the envelope header of a status response.
func ParseHealth(body []byte) (Health, error) {
	if !gjson.ValidBytes(body) {
		return Health{}, fmt.Errorf("health probe returned invalid JSON")
	}
	header := gjson.GetBytes(body, "header")
	if !header.Exists() {
		return Health{}, fmt.Errorf("health probe response has no header")
	}
	h := Health{
		Status:     header.Get("status").String(),
		Message:    header.Get("message").String(),
		Code:       header.Get("code").Int(),
		ServerTime: header.Get("servertime").Int(),
	}
	if h.Message == "" {
		h.Message = gjson.GetBytes(body, "body").String()
	}
	return h, nil
}
