package templates

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRender_OTPMessage(t *testing.T) {
	e := NewEngine(Config{}, quietLogger())

	out, err := Render(context.Background(), e, OTPMessage, OTPMessageData{Code: "482913", ExpiresInMinutes: 5})
	require.NoError(t, err)
	require.Contains(t, out.MessageText, "482913")
	require.Contains(t, out.MessageText, "5 minutes")
	require.Empty(t, out.Subject)
	require.Empty(t, out.EmailHTML)
}

func TestRender_PasswordResetEscapesHTML(t *testing.T) {
	e := NewEngine(Config{}, quietLogger())

	out, err := Render(context.Background(), e, PasswordReset, PasswordResetData{
		Name:             "<Asha>",
		ResetURL:         "https://example.com/reset?token=abc",
		ExpiresInMinutes: 15,
	})
	require.NoError(t, err)
	require.Equal(t, "Reset your password", out.Subject)
	require.Contains(t, out.EmailText, "Hi <Asha>,")
	require.Contains(t, out.EmailHTML, "&lt;Asha&gt;")
	require.Contains(t, out.MessageText, "https://example.com/reset?token=abc")
	require.NotContains(t, out.EmailText, "Questions?")
}

func TestRender_UnknownTemplate(t *testing.T) {
	e := NewEngine(Config{}, quietLogger())
	_, err := e.RenderAny(context.Background(), "user.missing", nil)
	require.Error(t, err)
}

func TestRender_DiskReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, OTPMessage.ID()+".tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{define "message_text"}}v1 {{.Code}}{{end}}`), 0o600))

	e := NewEngine(Config{Dir: dir, Reload: true}, quietLogger())
	data := OTPMessageData{Code: "111111", ExpiresInMinutes: 5}

	out, err := Render(context.Background(), e, OTPMessage, data)
	require.NoError(t, err)
	require.Equal(t, "v1 111111", out.MessageText)

	require.NoError(t, os.WriteFile(path, []byte(`{{define "message_text"}}v2 {{.Code}}{{end}}`), 0o600))
	out, err = Render(context.Background(), e, OTPMessage, data)
	require.NoError(t, err)
	require.Equal(t, "v2 111111", out.MessageText)
}

func TestRender_DiskFallsBackToEmbedded(t *testing.T) {
	e := NewEngine(Config{Dir: t.TempDir()}, quietLogger())
	out, err := Render(context.Background(), e, OTPMessage, OTPMessageData{Code: "222222", ExpiresInMinutes: 5})
	require.NoError(t, err)
	require.Contains(t, out.MessageText, "222222")
}

func TestPreload(t *testing.T) {
	require.NoError(t, NewEngine(Config{}, quietLogger()).Preload(All...))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PasswordReset.ID()+".tmpl"), []byte(`{{define "subject"}}{{.Name`), 0o600))
	err := NewEngine(Config{Dir: dir}, quietLogger()).Preload(All...)
	require.ErrorContains(t, err, PasswordReset.ID())
}
