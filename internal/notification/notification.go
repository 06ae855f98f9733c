package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/delordemm1/go-otp-identity/internal/notification/templates"
)

// --- Constants for Type Safety ---
type Channel string
type Priority string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// --- Data Structures ---

// Content holds the specific message data for each channel.
type Content struct {
	EmailSubject  string
	EmailHTMLBody string
	EmailTextBody string
	MessageText   string
}

// Recipient addresses a user on every channel they can be reached on.
type Recipient struct {
	Email  string
	Mobile string
}

// Notification is the universal object used to send any notification.
type Notification struct {
	To       Recipient
	Channels []Channel
	Priority Priority
	Content  Content
}

// --- Internal Sender Interfaces ---
type emailSender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}
type messageSender interface {
	Send(ctx context.Context, mobile, text string) error
}

// --- Public Service ---

// Service is the main interface for the notification system.
type Service interface {
	templates.Renderer
	Send(ctx context.Context, n Notification) error
}

type service struct {
	log         *slog.Logger
	renderer    templates.Renderer
	emailSender emailSender
	whatsApp    messageSender
	retryDelay  time.Duration
}

// attempts is how many times a failing channel is tried for a priority.
func (p Priority) attempts() int {
	if p == PriorityHigh {
		return 3
	}
	return 1
}

// NewService creates a new notification service. A nil sender disables its channel.
func NewService(log *slog.Logger, renderer templates.Renderer, emailSender emailSender, whatsApp messageSender) Service {
	return &service{
		log:         log,
		renderer:    renderer,
		emailSender: emailSender,
		whatsApp:    whatsApp,
		retryDelay:  2 * time.Second,
	}
}

func (s *service) RenderAny(ctx context.Context, id string, data any) (templates.Rendered, error) {
	return s.renderer.RenderAny(ctx, id, data)
}

// Send routes the notification to each channel sender in its own goroutine and
// returns immediately. Sends outlive the caller's request. High priority
// notifications are retried on failure.
func (s *service) Send(ctx context.Context, n Notification) error {
	ctx = context.WithoutCancel(ctx)
	for _, channel := range n.Channels {
		go func(ch Channel) {
			attempts := n.Priority.attempts()
			for i := 1; ; i++ {
				err := s.dispatch(ctx, ch, n)
				if err == nil {
					return
				}
				if errors.Is(err, errChannelSkipped) || i >= attempts {
					if !errors.Is(err, errChannelSkipped) {
						s.log.Error("failed to send notification", "channel", ch, "priority", n.Priority, "attempts", i, "error", err)
					}
					return
				}
				s.log.Warn("notification send failed, retrying", "channel", ch, "attempt", i, "error", err)
				time.Sleep(time.Duration(i) * s.retryDelay)
			}
		}(channel)
	}
	return nil
}

var errChannelSkipped = errors.New("channel skipped")

func (s *service) dispatch(ctx context.Context, ch Channel, n Notification) error {
	switch ch {
	case ChannelEmail:
		if s.emailSender == nil || n.To.Email == "" {
			s.log.Warn("email channel skipped", "configured", s.emailSender != nil)
			return errChannelSkipped
		}
		s.log.Info("dispatching email notification", "recipient", n.To.Email)
		return s.emailSender.Send(ctx, n.To.Email, n.Content.EmailSubject, n.Content.EmailHTMLBody, n.Content.EmailTextBody)
	case ChannelWhatsApp:
		if s.whatsApp == nil || n.To.Mobile == "" {
			s.log.Warn("whatsapp channel skipped", "configured", s.whatsApp != nil)
			return errChannelSkipped
		}
		s.log.Info("dispatching whatsapp notification", "recipient", n.To.Mobile)
		return s.whatsApp.Send(ctx, n.To.Mobile, n.Content.MessageText)
	default:
		s.log.Warn("unsupported notification channel", "channel", ch)
		return errChannelSkipped
	}
}

// SendTemplate renders h with data and dispatches the result.
func SendTemplate[T any](ctx context.Context, svc Service, h templates.Handle[T], to Recipient, channels []Channel, priority Priority, data T) error {
	if svc == nil {
		return errors.New("notification service not configured")
	}
	rendered, err := templates.Render(ctx, svc, h, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", h.ID(), err)
	}
	return svc.Send(ctx, Notification{
		To:       to,
		Channels: channels,
		Priority: priority,
		Content: Content{
			EmailSubject:  rendered.Subject,
			EmailHTMLBody: rendered.EmailHTML,
			EmailTextBody: rendered.EmailText,
			MessageText:   rendered.MessageText,
		},
	})
}
