package user

import (
	"context"

	"github.com/delordemm1/go-otp-identity/internal/httpx"
)

type SetAdminRequest struct {
	ID   string `path:"id"`
	Body struct {
		IsAdmin bool `json:"isAdmin"`
	}
}

type SetAdminResponse struct {
	Body struct {
		User UserSummary `json:"user"`
	}
}

// SetAdminHandler toggles another user's admin flag.
func (h *Handler) SetAdminHandler(ctx context.Context, input *SetAdminRequest) (*SetAdminResponse, error) {
	u, err := h.service.SetAdmin(ctx, input.ID, input.Body.IsAdmin)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	if caller, ok := currentUser(ctx); ok {
		h.logger.Info("admin flag updated", "by", caller.ID, "user_id", u.ID, "is_admin", u.IsAdmin)
	}

	resp := &SetAdminResponse{}
	resp.Body.User = toUserSummary(u)
	return resp, nil
}
