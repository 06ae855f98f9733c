package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/delordemm1/go-otp-identity/internal/config"
	mail "github.com/xhit/go-simple-mail/v2"
)

// smtpEmailSender delivers the email channel of a notification over SMTP.
type smtpEmailSender struct {
	server *mail.SMTPServer
	from   string
	log    *slog.Logger
}

// NewSMTPEmailSender builds a sender from the SMTP_* settings. A fresh
// connection is opened per message.
func NewSMTPEmailSender(cfg config.SMTPConfig, log *slog.Logger) emailSender {
	server := mail.NewSMTPClient()
	server.Host = cfg.Host
	server.Port = cfg.Port
	server.Username = cfg.Username
	server.Password = cfg.Password
	server.Encryption = encryptionFor(cfg.Port)
	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second
	if cfg.Username == "" {
		server.Authentication = mail.AuthNone
	}

	return &smtpEmailSender{server: server, from: cfg.From, log: log}
}

// encryptionFor picks implicit TLS on 465, plaintext on 25 and STARTTLS otherwise.
func encryptionFor(port int) mail.Encryption {
	switch port {
	case 465:
		return mail.EncryptionSSLTLS
	case 25:
		return mail.EncryptionNone
	default:
		return mail.EncryptionSTARTTLS
	}
}

// buildMessage assembles an HTML message with an optional plain-text alternative.
func (s *smtpEmailSender) buildMessage(to, subject, htmlBody, textBody string) (*mail.Email, error) {
	msg := mail.NewMSG()
	msg.SetFrom(s.from).AddTo(to).SetSubject(subject)
	switch {
	case htmlBody != "":
		msg.SetBody(mail.TextHTML, htmlBody)
		if textBody != "" {
			msg.AddAlternative(mail.TextPlain, textBody)
		}
	default:
		msg.SetBody(mail.TextPlain, textBody)
	}
	if msg.Error != nil {
		return nil, fmt.Errorf("build email: %w", msg.Error)
	}
	return msg, nil
}

func (s *smtpEmailSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := s.buildMessage(to, subject, htmlBody, textBody)
	if err != nil {
		return err
	}

	client, err := s.server.Connect()
	if err != nil {
		return fmt.Errorf("connect to smtp server: %w", err)
	}
	if err := msg.Send(client); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.log.Info("email sent", "channel", ChannelEmail)
	return nil
}
