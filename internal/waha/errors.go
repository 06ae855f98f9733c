package waha

import (
	"errors"
	"fmt"
)

var (
	// ErrGateway matches every failure talking to the gateway.
	ErrGateway = errors.New("waha: gateway error")

	// ErrNotConfigured is returned when no base URL could be resolved.
	ErrNotConfigured = errors.New("waha: gateway base url is not configured")

	// ErrSessionRequired is returned by session-scoped calls made without a session name.
	ErrSessionRequired = errors.New("waha: session name is required")
)

// GatewayError carries the upstream status and body for logging.
// Status is zero for transport failures.
type GatewayError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("waha %s: status %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("waha %s: status %d: %s", e.Op, e.Status, e.Body)
	default:
		return fmt.Sprintf("waha %s: %v", e.Op, e.Err)
	}
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Is reports ErrGateway for every GatewayError.
func (e *GatewayError) Is(target error) bool { return target == ErrGateway }

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr.Status
	}
	return 0
}
