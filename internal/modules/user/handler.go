package user

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/go-otp-identity/internal/contextx"
)

// Handler holds the dependencies for the user module's HTTP handlers.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new handler for the user module.
func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// bearerSecurity marks an operation as requiring the bearer scheme in the OpenAPI document.
var bearerSecurity = []map[string][]string{{"bearer": {}}}

// RegisterRoutes sets up the routing for the user module.
// authenticated guards /me and /profile; admin guards the admin routes.
func (h *Handler) RegisterRoutes(api huma.API, authenticated, admin huma.Middlewares) {
	// --- OTP Routes ---
	huma.Register(api, huma.Operation{
		OperationID: "request-otp",
		Method:      http.MethodPost,
		Path:        "/otp/request",
		Summary:     "Send a one-time passcode over WhatsApp",
		Tags:        []string{"otp"},
	}, h.RequestOTPHandler)

	huma.Register(api, huma.Operation{
		OperationID: "verify-otp",
		Method:      http.MethodPost,
		Path:        "/otp/verify",
		Summary:     "Verify a one-time passcode and obtain a token",
		Tags:        []string{"otp"},
	}, h.VerifyOTPHandler)

	// --- Authentication Routes ---
	huma.Register(api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/signup",
		Summary:       "Create a password account",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
	}, h.SignupHandler)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/login",
		Summary:     "Log in with email and password",
		Tags:        []string{"auth"},
	}, h.LoginHandler)

	// --- Password Management Routes ---
	huma.Register(api, huma.Operation{
		OperationID:   "forgot-password",
		Method:        http.MethodPost,
		Path:          "/password/forgot",
		Summary:       "Initiate password reset",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusAccepted,
	}, h.ForgotPasswordHandler)

	huma.Register(api, huma.Operation{
		OperationID: "reset-password",
		Method:      http.MethodPost,
		Path:        "/password/reset",
		Summary:     "Reset password with a token",
		Tags:        []string{"auth"},
	}, h.ResetPasswordHandler)

	// --- Profile Routes ---
	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Get the current user",
		Tags:        []string{"profile"},
		Security:    bearerSecurity,
		Middlewares: authenticated,
	}, h.GetMeHandler)

	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPut,
		Path:        "/profile",
		Summary:     "Update the current user's profile",
		Tags:        []string{"profile"},
		Security:    bearerSecurity,
		Middlewares: authenticated,
	}, h.UpdateProfileHandler)

	// --- Admin Routes ---
	huma.Register(api, huma.Operation{
		OperationID: "set-admin",
		Method:      http.MethodPut,
		Path:        "/admin/users/{id}/admin",
		Summary:     "Grant or revoke admin privileges",
		Tags:        []string{"admin"},
		Security:    bearerSecurity,
		Middlewares: admin,
	}, h.SetAdminHandler)
}

// --- Shared DTOs & Mappers ---

// UserSummary is the public view of a user. The password hash and transient
// OTP and reset fields are never included.
type UserSummary struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Mobile     string     `json:"mobile,omitempty"`
	IsAdmin    bool       `json:"isAdmin"`
	IsVerified bool       `json:"isVerified"`
	AuthMethod AuthMethod `json:"authMethod"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// AuthBody is returned by every endpoint that issues a token.
type AuthBody struct {
	Message string      `json:"message,omitempty"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

// AuthResponse wraps AuthBody.
type AuthResponse struct {
	Body AuthBody
}

func toUserSummary(u *User) UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.EmailValue(),
		Mobile:     u.MobileValue(),
		IsAdmin:    u.IsAdmin,
		IsVerified: u.IsVerified,
		AuthMethod: u.AuthMethod,
		CreatedAt:  u.CreatedAt,
	}
}

func toAuthResponse(message string, res *AuthResult) *AuthResponse {
	return &AuthResponse{Body: AuthBody{
		Message: message,
		Token:   res.Token,
		User:    toUserSummary(res.User),
	}}
}

// currentUser returns the user loaded by the auth middleware.
func currentUser(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextx.UserKey).(*User)
	return u, ok && u != nil
}
