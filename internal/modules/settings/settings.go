// Package settings stores the site-wide messaging gateway configuration and
// resolves the gateway target used for each call.
package settings

import (
	"net/http"
	"strings"
	"time"

	"github.com/delordemm1/go-otp-identity/internal/httpx"
)

// Settings is the singleton row edited by administrators.
// Empty fields fall back to the installation defaults.
type Settings struct {
	WahaBaseURL string    `db:"waha_base_url" bson:"wahaBaseUrl"`
	SessionName string    `db:"session_name" bson:"sessionName"`
	WahaAPIKey  string    `db:"waha_api_key" bson:"wahaApiKey"`
	UpdatedAt   time.Time `db:"updated_at" bson:"updatedAt"`
}

// Patch describes an edit. Nil fields are left unchanged; an empty string clears.
type Patch struct {
	WahaBaseURL *string
	SessionName *string
	WahaAPIKey  *string
}

func (p Patch) apply(s *Settings) {
	if p.WahaBaseURL != nil {
		s.WahaBaseURL = strings.TrimRight(strings.TrimSpace(*p.WahaBaseURL), "/")
	}
	if p.SessionName != nil {
		s.SessionName = strings.TrimSpace(*p.SessionName)
	}
	if p.WahaAPIKey != nil {
		s.WahaAPIKey = strings.TrimSpace(*p.WahaAPIKey)
	}
}

var (
	ErrNotFound = &httpx.DomainError{
		Code:       "ErrSettingsNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "site settings have not been saved yet",
		TypeURI:    "urn:problem:settings/err-not-found",
	}

	ErrInternal = &httpx.DomainError{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "internal server error",
		TypeURI:    "urn:problem:settings/err-internal",
	}
)
