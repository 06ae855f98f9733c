package messaging

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/go-otp-identity/internal/httpx"
	"github.com/delordemm1/go-otp-identity/internal/validation"
	"github.com/delordemm1/go-otp-identity/internal/waha"
)

// Handler serves the admin gateway endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts /admin/whatsapp/* behind the admin middlewares.
func (h *Handler) RegisterRoutes(api huma.API, admin huma.Middlewares) {
	security := []map[string][]string{{"bearer": {}}}
	op := func(id, method, path, summary string) huma.Operation {
		return huma.Operation{
			OperationID: id,
			Method:      method,
			Path:        "/admin/whatsapp" + path,
			Summary:     summary,
			Tags:        []string{"whatsapp"},
			Security:    security,
			Middlewares: admin,
		}
	}

	huma.Register(api, op("list-sessions", http.MethodGet, "/sessions", "List gateway sessions"), h.ListSessionsHandler)
	huma.Register(api, op("start-session", http.MethodPost, "/sessions/start", "Create and start a session"), h.StartSessionHandler)
	huma.Register(api, op("session-status", http.MethodGet, "/sessions/status", "Get a session's status"), h.StatusHandler)
	huma.Register(api, op("session-qr", http.MethodGet, "/sessions/qr", "Get the pairing QR code"), h.QRHandler)
	huma.Register(api, op("logout-session", http.MethodPost, "/sessions/logout", "Unpair a session"), h.LogoutHandler)
	huma.Register(api, op("stop-session", http.MethodPost, "/sessions/stop", "Stop a session"), h.StopHandler)
	huma.Register(api, op("delete-session", http.MethodDelete, "/sessions", "Delete a session"), h.DeleteHandler)
	huma.Register(api, op("list-chats", http.MethodGet, "/groups", "List groups and channels"), h.ChatsHandler)
	huma.Register(api, op("broadcast", http.MethodPost, "/broadcast", "Send a text to many chats"), h.BroadcastHandler)
}

// --- DTOs ---

// GatewayQuery carries per-request overrides for GET and DELETE routes.
type GatewayQuery struct {
	WahaBaseURL string `query:"wahaBaseUrl" doc:"Overrides the stored gateway URL"`
	SessionName string `query:"sessionName" doc:"Overrides the stored session name"`
	WahaAPIKey  string `query:"wahaApiKey" doc:"Overrides the stored gateway API key"`
}

func (q GatewayQuery) target() waha.Target {
	return waha.Target{BaseURL: q.WahaBaseURL, Session: q.SessionName, APIKey: q.WahaAPIKey}
}

// GatewayBody carries the same overrides in POST bodies.
type GatewayBody struct {
	WahaBaseURL string `json:"wahaBaseUrl,omitempty" validate:"omitempty,http_url"`
	SessionName string `json:"sessionName,omitempty" validate:"omitempty,max=100"`
	WahaAPIKey  string `json:"wahaApiKey,omitempty" validate:"omitempty,max=512"`
}

func (b GatewayBody) target() waha.Target {
	return waha.Target{BaseURL: b.WahaBaseURL, Session: b.SessionName, APIKey: b.WahaAPIKey}
}

type GatewayBodyRequest struct {
	Body GatewayBody
}

type StartSessionRequest struct {
	Body struct {
		GatewayBody
		Config map[string]any `json:"config,omitempty" doc:"Engine-specific session config passed through unchanged"`
	}
}

type BroadcastRequest struct {
	Body struct {
		GatewayBody
		ChatIDs []string `json:"chatIds,omitempty" validate:"required,min=1,max=500,dive,max=128"`
		Text    string   `json:"text,omitempty" validate:"required,max=4096"`
	}
}

type SessionsResponse struct {
	Body struct {
		Sessions []waha.SessionSummary `json:"sessions"`
	}
}

type SessionResponse struct {
	Body struct {
		Session *waha.SessionSummary `json:"session"`
	}
}

type QRResponse struct {
	Body struct {
		QR string `json:"qr" doc:"PNG data URL"`
	}
}

type AckResponse struct {
	Body struct {
		Success bool `json:"success"`
	}
}

type ChatsResponse struct {
	Body struct {
		Chats []waha.Chat `json:"chats"`
	}
}

type BroadcastResponse struct {
	Body struct {
		Sent          int      `json:"sent"`
		Failed        int      `json:"failed"`
		FailedChatIDs []string `json:"failedChatIds"`
	}
}

// --- Handlers ---

func (h *Handler) ListSessionsHandler(ctx context.Context, input *GatewayQuery) (*SessionsResponse, error) {
	sessions, err := h.service.ListSessions(ctx, input.target())
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	resp := &SessionsResponse{}
	resp.Body.Sessions = sessions
	if resp.Body.Sessions == nil {
		resp.Body.Sessions = []waha.SessionSummary{}
	}
	return resp, nil
}

func (h *Handler) StartSessionHandler(ctx context.Context, input *StartSessionRequest) (*SessionResponse, error) {
	if verr := validation.ValidateStruct(&input.Body.GatewayBody); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}
	summary, err := h.service.StartSession(ctx, input.Body.target(), input.Body.Config)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	resp := &SessionResponse{}
	resp.Body.Session = summary
	return resp, nil
}

func (h *Handler) StatusHandler(ctx context.Context, input *GatewayQuery) (*SessionResponse, error) {
	summary, err := h.service.Status(ctx, input.target())
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	resp := &SessionResponse{}
	resp.Body.Session = summary
	return resp, nil
}

func (h *Handler) QRHandler(ctx context.Context, input *GatewayQuery) (*QRResponse, error) {
	img, err := h.service.QR(ctx, input.target())
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	resp := &QRResponse{}
	resp.Body.QR = img
	return resp, nil
}

func (h *Handler) LogoutHandler(ctx context.Context, input *GatewayBodyRequest) (*AckResponse, error) {
	return h.ack(ctx, &input.Body, h.service.Logout)
}

func (h *Handler) StopHandler(ctx context.Context, input *GatewayBodyRequest) (*AckResponse, error) {
	return h.ack(ctx, &input.Body, h.service.Stop)
}

func (h *Handler) DeleteHandler(ctx context.Context, input *GatewayQuery) (*AckResponse, error) {
	ack, err := h.service.Delete(ctx, input.target())
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	resp := &AckResponse{}
	resp.Body.Success = ack.Success
	return resp, nil
}

func (h *Handler) ack(ctx context.Context, body *GatewayBody, fn func(context.Context, waha.Target) (*waha.Ack, error)) (*AckResponse, error) {
	if verr := validation.ValidateStruct(body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}
	ack, err := fn(ctx, body.target())
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	resp := &AckResponse{}
	resp.Body.Success = ack.Success
	return resp, nil
}

func (h *Handler) ChatsHandler(ctx context.Context, input *GatewayQuery) (*ChatsResponse, error) {
	chats, err := h.service.Chats(ctx, input.target())
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	resp := &ChatsResponse{}
	resp.Body.Chats = chats
	if resp.Body.Chats == nil {
		resp.Body.Chats = []waha.Chat{}
	}
	return resp, nil
}

func (h *Handler) BroadcastHandler(ctx context.Context, input *BroadcastRequest) (*BroadcastResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}
	res, err := h.service.Broadcast(ctx, input.Body.target(), input.Body.ChatIDs, input.Body.Text)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	resp := &BroadcastResponse{}
	resp.Body.Sent = res.Sent
	resp.Body.Failed = res.Failed
	resp.Body.FailedChatIDs = res.FailedChatIDs
	return resp, nil
}
