package waha

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Session states reported by the gateway.
const (
	StatusNotStarted = "NOT_STARTED"
	StatusStarting   = "STARTING"
	StatusScanQRCode = "SCAN_QR_CODE"
	StatusWorking    = "WORKING"
	StatusStopped    = "STOPPED"
	StatusFailed     = "FAILED"
)

// SessionSummary is the gateway's view of one session.
type SessionSummary struct {
	Name   string         `json:"name"`
	Status string         `json:"status"`
	Config map[string]any `json:"config,omitempty"`
	Me     *SessionMe     `json:"me,omitempty"`
	// AlreadyExists is set when StartSession found the session already present.
	AlreadyExists bool `json:"alreadyExists,omitempty"`
}

// SessionMe is the account paired with a WORKING session.
type SessionMe struct {
	ID       string `json:"id"`
	PushName string `json:"pushName,omitempty"`
}

// Ack is the outcome of a fire-and-acknowledge control call.
type Ack struct {
	Success bool `json:"success"`
}

type startSessionRequest struct {
	Name   string         `json:"name"`
	Start  bool           `json:"start"`
	Config map[string]any `json:"config,omitempty"`
}

// ListSessions returns every session known to the gateway, including stopped ones.
func (c *Client) ListSessions(ctx context.Context, t Target) ([]SessionSummary, error) {
	var sessions []SessionSummary
	if err := c.call(ctx, "list sessions", t, http.MethodGet, "/api/sessions", url.Values{"all": {"true"}}, nil, &sessions); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []SessionSummary{}
	}
	return sessions, nil
}

// StartSession creates and starts t.Session. A 422 from the gateway means the
// session already exists and is reported as a summary in SCAN_QR_CODE so the
// caller can go straight to QR display.
func (c *Client) StartSession(ctx context.Context, t Target, config map[string]any) (*SessionSummary, error) {
	if t.Session == "" {
		return nil, ErrSessionRequired
	}
	body := startSessionRequest{Name: t.Session, Start: true, Config: config}

	var summary SessionSummary
	err := c.call(ctx, "start session", t, http.MethodPost, "/api/sessions", nil, body, &summary)
	if err != nil {
		if StatusOf(err) == http.StatusUnprocessableEntity {
			c.logger.Info("gateway session already exists", "session", t.Session)
			return &SessionSummary{Name: t.Session, Status: StatusScanQRCode, AlreadyExists: true}, nil
		}
		return nil, err
	}
	if summary.Name == "" {
		summary.Name = t.Session
	}
	if summary.Status == "" {
		summary.Status = StatusStarting
	}
	return &summary, nil
}

// GetStatus returns the current state of t.Session.
func (c *Client) GetStatus(ctx context.Context, t Target) (*SessionSummary, error) {
	if t.Session == "" {
		return nil, ErrSessionRequired
	}
	var summary SessionSummary
	if err := c.call(ctx, "get status", t, http.MethodGet, t.sessionPath("/api/sessions/%s"), nil, nil, &summary); err != nil {
		return nil, err
	}
	if summary.Name == "" {
		summary.Name = t.Session
	}
	return &summary, nil
}

// GetQRImage fetches the pairing QR code and returns it as a data URL.
func (c *Client) GetQRImage(ctx context.Context, t Target) (string, error) {
	if t.Session == "" {
		return "", ErrSessionRequired
	}
	data, contentType, err := c.do(ctx, "get qr", t, http.MethodGet, t.sessionPath("/api/%s/auth/qr"), url.Values{"format": {"image"}}, nil, "image/png")
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", &GatewayError{Op: "get qr", Status: http.StatusOK, Err: errors.New("empty qr image")}
	}
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Logout unpairs the account from t.Session.
func (c *Client) Logout(ctx context.Context, t Target) (*Ack, error) {
	return c.control(ctx, "logout", t, http.MethodPost, "/api/sessions/%s/logout")
}

// StopSession stops t.Session without unpairing it.
func (c *Client) StopSession(ctx context.Context, t Target) (*Ack, error) {
	return c.control(ctx, "stop session", t, http.MethodPost, "/api/sessions/%s/stop")
}

// DeleteSession removes t.Session from the gateway.
func (c *Client) DeleteSession(ctx context.Context, t Target) (*Ack, error) {
	return c.control(ctx, "delete session", t, http.MethodDelete, "/api/sessions/%s")
}

func (c *Client) control(ctx context.Context, op string, t Target, method, pathFormat string) (*Ack, error) {
	if t.Session == "" {
		return nil, ErrSessionRequired
	}
	if err := c.call(ctx, op, t, method, t.sessionPath(pathFormat), nil, nil, nil); err != nil {
		return nil, err
	}
	return &Ack{Success: true}, nil
}
