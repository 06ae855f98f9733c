package templates

// OTPMessageData holds variables for the user.otp_message scenario.
type OTPMessageData struct {
	Code             string
	ExpiresInMinutes int
}

// OTPMessage is the typed handle for the user.otp_message template.
var OTPMessage = Expect[OTPMessageData]("user.otp_message")

// PasswordResetData holds variables for the user.password_reset scenario.
type PasswordResetData struct {
	Name             string
	ResetURL         string
	ExpiresInMinutes int
	SupportEmail     string
}

// PasswordReset is the typed handle for the user.password_reset template.
var PasswordReset = Expect[PasswordResetData]("user.password_reset")

// All lists every scenario the services render.
var All = []IHandle{OTPMessage, PasswordReset}
