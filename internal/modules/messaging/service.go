// Package messaging exposes the gateway session lifecycle and broadcast tools
// to administrators.
package messaging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/delordemm1/go-otp-identity/internal/waha"
)

// Gateway is the subset of the gateway client the admin tools drive.
type Gateway interface {
	ListSessions(ctx context.Context, t waha.Target) ([]waha.SessionSummary, error)
	StartSession(ctx context.Context, t waha.Target, config map[string]any) (*waha.SessionSummary, error)
	GetStatus(ctx context.Context, t waha.Target) (*waha.SessionSummary, error)
	GetQRImage(ctx context.Context, t waha.Target) (string, error)
	Logout(ctx context.Context, t waha.Target) (*waha.Ack, error)
	StopSession(ctx context.Context, t waha.Target) (*waha.Ack, error)
	DeleteSession(ctx context.Context, t waha.Target) (*waha.Ack, error)
	ListGroupsAndChannels(ctx context.Context, t waha.Target) ([]waha.Chat, error)
	SendText(ctx context.Context, t waha.Target, chatID, text string) bool
}

// TargetResolver merges request overrides with stored settings and defaults.
type TargetResolver interface {
	Resolve(ctx context.Context, override waha.Target) waha.Target
}

// BroadcastResult counts deliveries. FailedChatIDs lists the ids that were not sent.
type BroadcastResult struct {
	Sent          int
	Failed        int
	FailedChatIDs []string
}

type Service struct {
	gateway Gateway
	targets TargetResolver
	logger  *slog.Logger
}

func NewService(gateway Gateway, targets TargetResolver, logger *slog.Logger) *Service {
	return &Service{gateway: gateway, targets: targets, logger: logger}
}

func (s *Service) resolve(ctx context.Context, override waha.Target) waha.Target {
	return s.targets.Resolve(ctx, override)
}

func (s *Service) ListSessions(ctx context.Context, override waha.Target) ([]waha.SessionSummary, error) {
	t := s.resolve(ctx, override)
	sessions, err := s.gateway.ListSessions(ctx, t)
	if err != nil {
		s.logger.Error("list sessions failed", "error", err, "upstream_status", waha.StatusOf(err))
		return nil, mapGatewayError(err)
	}
	return sessions, nil
}

func (s *Service) StartSession(ctx context.Context, override waha.Target, config map[string]any) (*waha.SessionSummary, error) {
	t := s.resolve(ctx, override)
	summary, err := s.gateway.StartSession(ctx, t, config)
	if err != nil {
		s.logger.Error("start session failed", "error", err, "session", t.Session, "upstream_status", waha.StatusOf(err))
		return nil, mapGatewayError(err)
	}
	s.logger.Info("session started", "session", summary.Name, "status", summary.Status, "already_exists", summary.AlreadyExists)
	return summary, nil
}

func (s *Service) Status(ctx context.Context, override waha.Target) (*waha.SessionSummary, error) {
	t := s.resolve(ctx, override)
	summary, err := s.gateway.GetStatus(ctx, t)
	if err != nil {
		s.logger.Error("session status failed", "error", err, "session", t.Session, "upstream_status", waha.StatusOf(err))
		return nil, mapGatewayError(err)
	}
	return summary, nil
}

// QR returns the pairing code as a data URL.
func (s *Service) QR(ctx context.Context, override waha.Target) (string, error) {
	t := s.resolve(ctx, override)
	img, err := s.gateway.GetQRImage(ctx, t)
	if err != nil {
		s.logger.Error("qr fetch failed", "error", err, "session", t.Session, "upstream_status", waha.StatusOf(err))
		return "", mapGatewayError(err)
	}
	return img, nil
}

func (s *Service) Logout(ctx context.Context, override waha.Target) (*waha.Ack, error) {
	return s.control(ctx, "logout", override, s.gateway.Logout)
}

func (s *Service) Stop(ctx context.Context, override waha.Target) (*waha.Ack, error) {
	return s.control(ctx, "stop", override, s.gateway.StopSession)
}

func (s *Service) Delete(ctx context.Context, override waha.Target) (*waha.Ack, error) {
	return s.control(ctx, "delete", override, s.gateway.DeleteSession)
}

func (s *Service) control(ctx context.Context, op string, override waha.Target, fn func(context.Context, waha.Target) (*waha.Ack, error)) (*waha.Ack, error) {
	t := s.resolve(ctx, override)
	ack, err := fn(ctx, t)
	if err != nil {
		s.logger.Error("session "+op+" failed", "error", err, "session", t.Session, "upstream_status", waha.StatusOf(err))
		return nil, mapGatewayError(err)
	}
	s.logger.Info("session "+op, "session", t.Session)
	return ack, nil
}

func (s *Service) Chats(ctx context.Context, override waha.Target) ([]waha.Chat, error) {
	t := s.resolve(ctx, override)
	chats, err := s.gateway.ListGroupsAndChannels(ctx, t)
	if err != nil {
		s.logger.Error("list chats failed", "error", err, "session", t.Session, "upstream_status", waha.StatusOf(err))
		return nil, mapGatewayError(err)
	}
	return chats, nil
}

// Broadcast sends text to each chat in turn. Blank and repeated ids are skipped.
// Individual failures are counted, not returned.
func (s *Service) Broadcast(ctx context.Context, override waha.Target, chatIDs []string, text string) (*BroadcastResult, error) {
	t := s.resolve(ctx, override)
	if t.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	if t.Session == "" {
		return nil, ErrSessionRequired
	}

	res := &BroadcastResult{FailedChatIDs: []string{}}
	seen := make(map[string]struct{}, len(chatIDs))
	for _, id := range chatIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if ctx.Err() != nil || !s.gateway.SendText(ctx, t, id, text) {
			res.Failed++
			res.FailedChatIDs = append(res.FailedChatIDs, id)
			continue
		}
		res.Sent++
	}

	s.logger.Info("broadcast finished", "session", t.Session, "sent", res.Sent, "failed", res.Failed)
	return res, nil
}
