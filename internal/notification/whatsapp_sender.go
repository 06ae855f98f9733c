package notification

import (
	"context"
	"errors"
)

// textDeliverer is satisfied by waha.Deliverer.
type textDeliverer interface {
	SendText(ctx context.Context, mobile, text string) bool
}

// ErrWhatsAppDelivery is returned when the gateway did not accept the message.
var ErrWhatsAppDelivery = errors.New("whatsapp delivery failed")

type whatsAppSender struct {
	deliverer textDeliverer
}

// NewWhatsAppSender creates a sender that delivers through the messaging gateway.
func NewWhatsAppSender(deliverer textDeliverer) messageSender {
	return &whatsAppSender{deliverer: deliverer}
}

func (s *whatsAppSender) Send(ctx context.Context, mobile, message string) error {
	if !s.deliverer.SendText(ctx, mobile, message) {
		return ErrWhatsAppDelivery
	}
	return nil
}
