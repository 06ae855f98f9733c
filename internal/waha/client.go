// Package waha is a thin client for a WAHA-style WhatsApp gateway control API.
// Every call is a single outbound HTTP request against the Target passed in;
// the gateway process is the source of truth for session state, so nothing is cached.
package waha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodyBytes bounds how much of a gateway response is read into memory.
const maxBodyBytes = 4 << 20

// Target identifies a gateway installation and the session to act on.
type Target struct {
	BaseURL string
	Session string
	// APIKey is sent as X-Api-Key when not empty.
	APIKey string
}

// Client drives the gateway over HTTP.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

// New creates a gateway client. A nil httpClient gets a client with a 15s timeout.
func New(httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: httpClient, logger: logger}
}

// call performs one request and decodes a JSON response into out (when non-nil).
func (c *Client) call(ctx context.Context, op string, t Target, method, path string, query url.Values, body, out any) error {
	data, _, err := c.do(ctx, op, t, method, path, query, body, "application/json")
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &GatewayError{Op: op, Status: http.StatusOK, Body: truncate(data), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// do performs one request and returns the raw body and its content type.
// Non-2xx responses and transport failures come back as *GatewayError.
func (c *Client) do(ctx context.Context, op string, t Target, method, path string, query url.Values, body any, accept string) ([]byte, string, error) {
	endpoint, err := t.url(path, query)
	if err != nil {
		return nil, "", &GatewayError{Op: op, Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, "", &GatewayError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, "", &GatewayError{Op: op, Err: err}
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Content-Type", "application/json")
	if t.APIKey != "" {
		req.Header.Set("X-Api-Key", t.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("gateway request failed", "op", op, "url", redact(endpoint), "error", err)
		return nil, "", &GatewayError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", &GatewayError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gerr := &GatewayError{Op: op, Status: resp.StatusCode, Body: truncate(data)}
		c.logger.Warn("gateway returned error status", "op", op, "status", resp.StatusCode, "body", gerr.Body)
		return nil, "", gerr
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (t Target) url(path string, query url.Values) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(t.BaseURL), "/")
	if base == "" {
		return "", ErrNotConfigured
	}
	u, err := url.Parse(base + path)
	if err != nil {
		return "", fmt.Errorf("invalid gateway base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid gateway base url scheme %q", u.Scheme)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (t Target) sessionPath(format string) string {
	return fmt.Sprintf(format, url.PathEscape(t.Session))
}

func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	u.User = nil
	return u.String()
}

func truncate(b []byte) string {
	const limit = 2048
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
