package user

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/delordemm1/go-otp-identity/internal/notification/templates"
	"github.com/delordemm1/go-otp-identity/internal/validation"
)

const (
	otpTTL        = 5 * time.Minute
	otpCodeLength = 6
	countryPrefix = "+91"
)

func otpCooldownKey(fullMobile string) string {
	return "otp:cooldown:" + fullMobile
}

// RequestOTP issues a fresh code for a 10-digit local mobile number and sends it
// over WhatsApp. It returns the stored +91 form of the number.
//
// The resend cooldown is enforced by the store on every request; the Redis
// throttle, when configured, rejects repeats before any write happens.
func (s *service) RequestOTP(ctx context.Context, mobile string) (string, error) {
	// 1. Validate before touching any state.
	mobile = strings.TrimSpace(mobile)
	if !validation.LocalMobilePattern.MatchString(mobile) {
		return "", ErrInvalidMobile
	}
	full := countryPrefix + mobile
	cooldown := s.config.OTP.ResendCooldown

	// 2. Fast-path cooldown. The slot is given back if anything below fails.
	var err error
	if s.throttle != nil {
		key := otpCooldownKey(full)
		acquired, terr := s.throttle.Acquire(ctx, key, cooldown)
		if terr != nil {
			s.logger.Error("otp cooldown check failed", "error", terr)
			return "", ErrInternal.WithCause(terr)
		}
		if !acquired {
			return "", ErrResendTooSoon
		}
		defer func() {
			if err == nil {
				return
			}
			if rerr := s.throttle.Release(context.WithoutCancel(ctx), key); rerr != nil {
				s.logger.Warn("otp cooldown release failed", "error", rerr, "key", key)
			}
		}()
	}

	// 3. Generate and render the code before anything is persisted.
	code, err := generateNumericCode()
	if err != nil {
		s.logger.Error("failed to generate otp", "error", err)
		err = ErrInternal.WithCause(err)
		return "", err
	}
	rendered, err := templates.Render(ctx, s.templates, templates.OTPMessage, templates.OTPMessageData{
		Code:             code,
		ExpiresInMinutes: int(otpTTL / time.Minute),
	})
	if err != nil {
		s.logger.Error("failed to render otp message", "error", err)
		err = ErrInternal.WithCause(err)
		return "", err
	}

	// 4. Persist the digest, creating the account if needed. The store refuses
	// the write while the previous send is inside the cooldown window.
	now := s.now()
	candidate, err := NewProvisionalMobileAccount(full, now)
	if err != nil {
		return "", err
	}
	u, err := s.repo.UpsertMobileOTP(ctx, candidate, OTPChallenge{
		Digest:       hashToken(code),
		Expiry:       now.Add(otpTTL),
		SentAt:       now,
		NotSentSince: now.Add(-cooldown),
	})
	if err != nil {
		if errors.Is(err, ErrResendTooSoon) {
			return "", err
		}
		s.logger.Error("failed to store otp", "error", err)
		err = ErrInternal.WithCause(err)
		return "", err
	}

	// 5. Deliver. The stored code stays valid if delivery fails, and the
	// cooldown is lifted so the user can retry at once.
	if !s.messenger.SendText(ctx, full, rendered.MessageText) {
		s.logger.Warn("otp delivery failed", "user_id", u.ID)
		if cerr := s.repo.ClearOTPCooldown(context.WithoutCancel(ctx), u.ID); cerr != nil {
			s.logger.Warn("otp cooldown reset failed", "error", cerr, "user_id", u.ID)
		}
		err = ErrDeliveryFailed
		return "", err
	}

	s.logger.Info("otp sent", "user_id", u.ID)
	return full, nil
}

// VerifyOTP checks code against the outstanding challenge for a +91 mobile
// number and, on success, marks the account verified and returns a token.
// The code is single use: success clears it.
func (s *service) VerifyOTP(ctx context.Context, mobile, code, name string) (*AuthResult, error) {
	mobile = strings.TrimSpace(mobile)
	if !validation.FullMobilePattern.MatchString(mobile) {
		return nil, ErrInvalidMobile.WithDetail("Invalid mobile number. Use the format +91XXXXXXXXXX.")
	}
	if utf8.RuneCountInString(code) != otpCodeLength {
		return nil, ErrInvalidOTPFormat
	}

	u, err := s.repo.FindByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound.WithDetail("No account found for this mobile number. Request an OTP first.")
		}
		s.logger.Error("verify otp: find user failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if !u.HasPendingOTP() {
		return nil, ErrOTPMismatch
	}
	if u.OTPExpiry == nil || s.now().After(*u.OTPExpiry) {
		return nil, ErrOTPExpired
	}
	if !tokensEqual(hashToken(code), *u.OTP) {
		return nil, ErrOTPMismatch
	}

	verified, err := s.repo.CompleteOTPLogin(ctx, u.ID, *u.OTP, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Consumed or replaced by a concurrent request.
			return nil, ErrOTPMismatch
		}
		s.logger.Error("verify otp: complete login failed", "error", err, "user_id", u.ID)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("otp verified", "user_id", verified.ID)
	return s.issue(verified)
}
