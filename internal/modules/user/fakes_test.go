package user

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/delordemm1/go-otp-identity/internal/notification"
	"github.com/delordemm1/go-otp-identity/internal/notification/templates"
)

// memoryRepo is an in-memory Repository. It stores and returns copies.
type memoryRepo struct {
	mu    sync.Mutex
	users map[string]User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[string]User{}}
}

func (r *memoryRepo) put(u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *memoryRepo) get(id string) User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *memoryRepo) findLocked(match func(User) bool) (*User, error) {
	for _, u := range r.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) conflictLocked(u *User) error {
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if u.Email != nil && other.Email != nil && *u.Email == *other.Email {
			return ErrEmailExists
		}
		if u.Mobile != nil && other.Mobile != nil && *u.Mobile == *other.Mobile {
			return ErrMobileExists
		}
	}
	return nil
}

func (r *memoryRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflictLocked(u); err != nil {
		return err
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memoryRepo) FindByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(func(u User) bool { return u.ID == id })
}

func (r *memoryRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = normalizeEmail(email)
	return r.findLocked(func(u User) bool { return u.EmailValue() == email && email != "" })
}

func (r *memoryRepo) FindByMobile(_ context.Context, mobile string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(func(u User) bool { return u.MobileValue() == mobile && mobile != "" })
}

func (r *memoryRepo) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if err := r.conflictLocked(u); err != nil {
		return err
	}
	stored.Name, stored.Email, stored.Mobile = u.Name, u.Email, u.Mobile
	r.users[u.ID] = stored
	return nil
}

func (r *memoryRepo) UpsertMobileOTP(_ context.Context, candidate *User, ch OTPChallenge) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, err := r.findLocked(func(u User) bool { return u.MobileValue() == candidate.MobileValue() })
	target := *candidate
	if err == nil {
		if existing.OTPSentAt != nil && existing.OTPSentAt.After(ch.NotSentSince) {
			return nil, ErrResendTooSoon
		}
		target = *existing
	}
	target.OTP = &ch.Digest
	target.OTPExpiry = &ch.Expiry
	target.OTPSentAt = &ch.SentAt
	r.users[target.ID] = target
	cp := target
	return &cp, nil
}

func (r *memoryRepo) ClearOTPCooldown(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.OTPSentAt = nil
	r.users[userID] = u
	return nil
}

func (r *memoryRepo) CompleteOTPLogin(_ context.Context, userID, otpDigest, name string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.OTP == nil || *u.OTP != otpDigest {
		return nil, ErrNotFound
	}
	if name != "" && u.Name == PlaceholderName {
		u.Name = name
	}
	u.IsVerified = true
	u.OTP, u.OTPExpiry = nil, nil
	r.users[userID] = u
	cp := u
	return &cp, nil
}

func (r *memoryRepo) SetPasswordResetToken(_ context.Context, userID, tokenHash string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.ResetToken, u.ResetTokenExpiry = &tokenHash, &expiry
	r.users[userID] = u
	return nil
}

func (r *memoryRepo) FindByPasswordResetToken(_ context.Context, tokenHash string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(func(u User) bool { return u.ResetToken != nil && *u.ResetToken == tokenHash })
}

func (r *memoryRepo) UpdatePassword(_ context.Context, userID, newPasswordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = newPasswordHash
	u.ResetToken, u.ResetTokenExpiry = nil, nil
	u.TokenVersion++
	r.users[userID] = u
	return nil
}

func (r *memoryRepo) SetAdmin(_ context.Context, userID string, isAdmin bool) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	u.IsAdmin = isAdmin
	r.users[userID] = u
	cp := u
	return &cp, nil
}

type sentMessage struct {
	mobile string
	text   string
}

type fakeMessenger struct {
	mu   sync.Mutex
	ok   bool
	sent []sentMessage
}

func (m *fakeMessenger) SendText(_ context.Context, mobile, text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{mobile: mobile, text: text})
	return m.ok
}

func (m *fakeMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

// memoryThrottle holds keys until released; windows are not timed.
type memoryThrottle struct {
	mu   sync.Mutex
	held map[string]time.Duration
}

func newMemoryThrottle() *memoryThrottle {
	return &memoryThrottle{held: map[string]time.Duration{}}
}

func (t *memoryThrottle) Acquire(_ context.Context, key string, window time.Duration) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.held[key]; ok {
		return false, nil
	}
	t.held[key] = window
	return true, nil
}

func (t *memoryThrottle) Release(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.held, key)
	return nil
}

func (t *memoryThrottle) isHeld(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.held[key]
	return ok
}

// captureNotifier records notifications synchronously.
type captureNotifier struct {
	templates.Renderer
	mu   sync.Mutex
	sent []notification.Notification
}

func (c *captureNotifier) Send(_ context.Context, n notification.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
