// Package server talks to the test-only endpoints exposed by the application
// under test: database reset, last sent email and the health probe.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// ErrUnexpectedStatus is returned when an endpoint answers with a non-2xx code.
var ErrUnexpectedStatus = errors.New("unexpected status")

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// Client calls the test-server endpoints of one application instance.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a client for the application at baseURL. The underlying
// http.Client keeps cookies so the endpoints see one session.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Jar: jar},
		logger:  logger.Named("server"),
	}, nil
}

// BaseURL returns the application root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// URL joins path segments onto the base URL, escaping each one.
func (c *Client) URL(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

// get fetches target and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", target, err)
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", target, err)
	}
	c.logger.Debug("Test-server call",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, fmt.Errorf("%w: GET %s returned %d", ErrUnexpectedStatus, target, resp.StatusCode)
	}
	return body, nil
}

// ResetInstance reloads the given dataset through the seleniumTests endpoint.
func (c *Client) ResetInstance(ctx context.Context, dataset string) error {
	if dataset == "" {
		dataset = "default"
	}
	if _, err := c.get(ctx, c.URL("seleniumTests", "resetInstance", dataset)); err != nil {
		return fmt.Errorf("failed to reset dataset %s: %w", dataset, err)
	}
	c.logger.Info("Database reset", zap.String("dataset", dataset), zap.String("strategy", "http"))
	return nil
}

// Reset implements Resetter over HTTP.
func (c *Client) Reset(ctx context.Context, dataset string) error {
	return c.ResetInstance(ctx, dataset)
}
