package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host       string
	Port       int
	TLS        bool
	Username   string
	Password   string
	From       string
	SenderName string
}

type EmailNotifier struct {
	SMTPConfig SMTPConfig
	client     *mail.Client
}

func NewEmailNotifier(config SMTPConfig) (*EmailNotifier, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if config.From == "" {
		return nil, fmt.Errorf("sender address is required")
	}

	opts := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTimeout(30 * time.Second),
	}

	// Only add authentication if username and password are provided
	if config.Username != "" && config.Password != "" {
		slog.Info("Adding authentication", "user", config.Username)
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	if !config.TLS {
		slog.Info("Using NoTLS policy")
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	} else {
		slog.Info("Using TLS Mandatory policy")
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{ServerName: config.Host, MinVersion: tls.VersionTLS12}),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
		if config.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	}

	slog.Info("Creating mail client", "host", config.Host, "port", config.Port)
	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		slog.Error("Failed to create mail client", "err", err)
		return nil, err
	}

	return &EmailNotifier{SMTPConfig: config, client: client}, nil
}

func (e *EmailNotifier) buildMessage(notification NotificationData, tmpl NoticeTemplate) (*mail.Msg, error) {
	if notification.To == "" {
		return nil, fmt.Errorf("email notification requires 'To' address")
	}

	textBody, htmlBody, err := Render(tmpl, notification.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to render email: %w", err)
	}

	msg := mail.NewMsg()
	if e.SMTPConfig.SenderName != "" {
		err = msg.FromFormat(e.SMTPConfig.SenderName, e.SMTPConfig.From)
	} else {
		err = msg.From(e.SMTPConfig.From)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set from address: %w", err)
	}
	if notification.ToName != "" {
		err = msg.AddToFormat(notification.ToName, notification.To)
	} else {
		err = msg.To(notification.To)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set to address: %w", err)
	}
	msg.Subject(tmpl.Subject)

	switch {
	case textBody != "" && htmlBody != "":
		msg.SetBodyString(mail.TypeTextPlain, textBody)
		msg.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	case htmlBody != "":
		msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	default:
		msg.SetBodyString(mail.TypeTextPlain, textBody)
	}
	return msg, nil
}

func (e *EmailNotifier) Send(ctx context.Context, noticeType NoticeType, notification NotificationData, tmpl NoticeTemplate) error {
	msg, err := e.buildMessage(notification, tmpl)
	if err != nil {
		slog.Error("Failed to build email", "type", noticeType, "err", err)
		return err
	}

	if err := e.client.DialAndSendWithContext(ctx, msg); err != nil {
		slog.Error("Failed to send email", "type", noticeType, "err", err)
		return fmt.Errorf("failed to send %s email: %w", noticeType, err)
	}

	slog.Info("Email sent successfully", "type", noticeType, "to", notification.To, "host", e.SMTPConfig.Host, "port", e.SMTPConfig.Port)
	return nil
}
