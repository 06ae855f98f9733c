package waha

import (
	"context"
	"log/slog"
)

// TargetProvider resolves the gateway target to use right now.
type TargetProvider interface {
	Target(ctx context.Context) (Target, error)
}

// Deliverer sends direct messages to mobile numbers through the configured session.
type Deliverer struct {
	client  *Client
	targets TargetProvider
	logger  *slog.Logger
}

// NewDeliverer creates a Deliverer.
func NewDeliverer(client *Client, targets TargetProvider, logger *slog.Logger) *Deliverer {
	return &Deliverer{client: client, targets: targets, logger: logger}
}

// SendText delivers text to the WhatsApp account of mobile (+91XXXXXXXXXX).
// The target is resolved on every call so settings edits apply immediately.
func (d *Deliverer) SendText(ctx context.Context, mobile, text string) bool {
	target, err := d.targets.Target(ctx)
	if err != nil {
		d.logger.Error("resolve gateway target failed", "error", err)
		return false
	}
	chatID := ChatIDFromMobile(mobile)
	if chatID == "" {
		d.logger.Warn("cannot derive chat id", "mobile", mobile)
		return false
	}
	return d.client.SendText(ctx, target, chatID, text)
}
