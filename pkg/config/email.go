package config

import (
	"github.com/tendant/simple-account/pkg/notification"
)

// EmailConfig holds SMTP email configuration
type EmailConfig struct {
	Host       string `env:"EMAIL_HOST" env-default:"localhost"`
	Port       uint16 `env:"EMAIL_PORT" env-default:"1025"`
	Username   string `env:"EMAIL_USER" env-default:""`
	Password   string `env:"EMAIL_PASS" env-default:""`
	From       string `env:"EMAIL_SENDER_EMAIL" env-default:"noreply@example.com"`
	SenderName string `env:"EMAIL_SENDER_NAME" env-default:"Simple Account"`
	TLS        bool   `env:"EMAIL_TLS" env-default:"false"`
}

// ToSMTPConfig converts the config to a notification.SMTPConfig
func (e EmailConfig) ToSMTPConfig() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:       e.Host,
		Port:       int(e.Port),
		Username:   e.Username,
		Password:   e.Password,
		From:       e.From,
		SenderName: e.SenderName,
		TLS:        e.TLS,
	}
}
