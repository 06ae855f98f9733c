package notification

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/delordemm1/go-otp-identity/internal/notification/templates"
	"github.com/stretchr/testify/require"
)

type sentEmail struct {
	to, subject, html, text string
	ctxErr                  error
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
	done chan struct{}
}

func (f *fakeEmailSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	f.mu.Lock()
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, html: htmlBody, text: textBody, ctxErr: ctx.Err()})
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

type fakeDeliverer struct {
	mu     sync.Mutex
	mobile string
	text   string
	ok     bool
	// failFirst makes the first n calls fail regardless of ok.
	failFirst int
	calls     int
	done      chan struct{}
}

func (f *fakeDeliverer) SendText(_ context.Context, mobile, text string) bool {
	f.mu.Lock()
	f.mobile, f.text = mobile, text
	f.calls++
	ok := f.ok && f.calls > f.failFirst
	f.mu.Unlock()
	f.done <- struct{}{}
	return ok
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendTemplate_DispatchesEveryChannel(t *testing.T) {
	email := &fakeEmailSender{done: make(chan struct{}, 1)}
	wa := &fakeDeliverer{ok: true, done: make(chan struct{}, 1)}
	svc := NewService(quietLogger(), templates.NewEngine(templates.Config{}, quietLogger()), email, NewWhatsAppSender(wa))

	ctx, cancel := context.WithCancel(context.Background())
	err := SendTemplate(ctx, svc, templates.PasswordReset,
		Recipient{Email: "asha@example.com", Mobile: "+919876543210"},
		[]Channel{ChannelEmail, ChannelWhatsApp}, PriorityHigh,
		templates.PasswordResetData{Name: "Asha", ResetURL: "https://app.example.com/reset?token=t0k", ExpiresInMinutes: 15},
	)
	require.NoError(t, err)
	// Dispatch must survive the request context ending.
	cancel()

	waitFor(t, email.done)
	waitFor(t, wa.done)

	email.mu.Lock()
	require.Len(t, email.sent, 1)
	require.Equal(t, "asha@example.com", email.sent[0].to)
	require.Equal(t, "Reset your password", email.sent[0].subject)
	require.Contains(t, email.sent[0].html, "token=t0k")
	require.NoError(t, email.sent[0].ctxErr)
	email.mu.Unlock()

	wa.mu.Lock()
	require.Equal(t, "+919876543210", wa.mobile)
	require.Contains(t, wa.text, "token=t0k")
	wa.mu.Unlock()
}

func TestSend_SkipsUnconfiguredChannel(t *testing.T) {
	wa := &fakeDeliverer{ok: true, done: make(chan struct{}, 1)}
	svc := NewService(quietLogger(), templates.NewEngine(templates.Config{}, quietLogger()), nil, NewWhatsAppSender(wa))

	err := svc.Send(context.Background(), Notification{
		To:       Recipient{Email: "asha@example.com", Mobile: "+919876543210"},
		Channels: []Channel{ChannelEmail, ChannelWhatsApp},
		Content:  Content{MessageText: "hello"},
	})
	require.NoError(t, err)
	waitFor(t, wa.done)
}

func TestWhatsAppSender_ReportsFailure(t *testing.T) {
	wa := &fakeDeliverer{ok: false, done: make(chan struct{}, 1)}
	err := NewWhatsAppSender(wa).Send(context.Background(), "+919876543210", "hi")
	require.ErrorIs(t, err, ErrWhatsAppDelivery)
}

func TestSend_RetriesByPriority(t *testing.T) {
	send := func(t *testing.T, p Priority) *fakeDeliverer {
		t.Helper()
		wa := &fakeDeliverer{ok: true, failFirst: 1, done: make(chan struct{}, 4)}
		svc := NewService(quietLogger(), templates.NewEngine(templates.Config{}, quietLogger()), nil, NewWhatsAppSender(wa))
		svc.(*service).retryDelay = time.Millisecond

		require.NoError(t, svc.Send(context.Background(), Notification{
			To:       Recipient{Mobile: "+919876543210"},
			Channels: []Channel{ChannelWhatsApp},
			Priority: p,
			Content:  Content{MessageText: "hello"},
		}))
		return wa
	}

	t.Run("high priority is retried", func(t *testing.T) {
		wa := send(t, PriorityHigh)
		waitFor(t, wa.done)
		waitFor(t, wa.done)
		wa.mu.Lock()
		require.Equal(t, 2, wa.calls)
		wa.mu.Unlock()
	})

	t.Run("low priority is sent once", func(t *testing.T) {
		wa := send(t, PriorityLow)
		waitFor(t, wa.done)
		time.Sleep(20 * time.Millisecond)
		wa.mu.Lock()
		require.Equal(t, 1, wa.calls)
		wa.mu.Unlock()
	})
}
