package settings

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/go-otp-identity/internal/httpx"
	"github.com/delordemm1/go-otp-identity/internal/validation"
	"github.com/delordemm1/go-otp-identity/internal/waha"
)

// Handler serves the admin settings endpoints.
type Handler struct {
	provider *Provider
	logger   *slog.Logger
}

func NewHandler(provider *Provider, logger *slog.Logger) *Handler {
	return &Handler{provider: provider, logger: logger}
}

// RegisterRoutes mounts GET and PUT /admin/settings behind the admin middlewares.
func (h *Handler) RegisterRoutes(api huma.API, admin huma.Middlewares) {
	security := []map[string][]string{{"bearer": {}}}

	huma.Register(api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/admin/settings",
		Summary:     "Read the messaging gateway settings",
		Tags:        []string{"admin"},
		Security:    security,
		Middlewares: admin,
	}, h.GetHandler)

	huma.Register(api, huma.Operation{
		OperationID: "update-settings",
		Method:      http.MethodPut,
		Path:        "/admin/settings",
		Summary:     "Update the messaging gateway settings",
		Tags:        []string{"admin"},
		Security:    security,
		Middlewares: admin,
	}, h.UpdateHandler)
}

// SettingsBody never echoes the stored API key.
type SettingsBody struct {
	WahaBaseURL   string     `json:"wahaBaseUrl"`
	SessionName   string     `json:"sessionName"`
	WahaAPIKeySet bool       `json:"wahaApiKeySet"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
	Effective     struct {
		WahaBaseURL   string `json:"wahaBaseUrl"`
		SessionName   string `json:"sessionName"`
		WahaAPIKeySet bool   `json:"wahaApiKeySet"`
	} `json:"effective" doc:"Values used when a request does not override them"`
}

type SettingsResponse struct {
	Body SettingsBody
}

type UpdateSettingsRequest struct {
	Body struct {
		WahaBaseURL *string `json:"wahaBaseUrl,omitempty" validate:"omitempty,http_url,max=2048"`
		SessionName *string `json:"sessionName,omitempty" validate:"omitempty,max=100"`
		WahaAPIKey  *string `json:"wahaApiKey,omitempty" validate:"omitempty,max=512"`
	}
}

func (h *Handler) GetHandler(ctx context.Context, _ *struct{}) (*SettingsResponse, error) {
	s, err := h.provider.Get(ctx)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return h.toResponse(ctx, s), nil
}

func (h *Handler) UpdateHandler(ctx context.Context, input *UpdateSettingsRequest) (*SettingsResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	s, err := h.provider.Update(ctx, Patch{
		WahaBaseURL: input.Body.WahaBaseURL,
		SessionName: input.Body.SessionName,
		WahaAPIKey:  input.Body.WahaAPIKey,
	})
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return h.toResponse(ctx, s), nil
}

func (h *Handler) toResponse(ctx context.Context, s *Settings) *SettingsResponse {
	resp := &SettingsResponse{}
	resp.Body.WahaBaseURL = s.WahaBaseURL
	resp.Body.SessionName = s.SessionName
	resp.Body.WahaAPIKeySet = s.WahaAPIKey != ""
	if !s.UpdatedAt.IsZero() {
		resp.Body.UpdatedAt = &s.UpdatedAt
	}
	effective := h.provider.Resolve(ctx, waha.Target{})
	resp.Body.Effective.WahaBaseURL = effective.BaseURL
	resp.Body.Effective.SessionName = effective.Session
	resp.Body.Effective.WahaAPIKeySet = effective.APIKey != ""
	return resp
}
