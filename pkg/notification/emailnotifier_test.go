package notification

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailNotifierValidation(t *testing.T) {
	_, err := NewEmailNotifier(SMTPConfig{Port: 25, From: "no-reply@example.com"})
	assert.Error(t, err)

	_, err = NewEmailNotifier(SMTPConfig{Host: "localhost", Port: 25})
	assert.Error(t, err)
}

func TestEmailNotifierBuildMessage(t *testing.T) {
	e, err := NewEmailNotifier(SMTPConfig{
		Host:       "localhost",
		Port:       1025,
		From:       "no-reply@example.com",
		SenderName: "Acme Accounts",
	})
	require.NoError(t, err)

	msg, err := e.buildMessage(NotificationData{
		To:     "ana@example.com",
		ToName: "Ana",
		Data:   map[string]string{"passcode": "654321"},
	}, NoticeTemplate{Subject: "Your code", Html: "<b>{{.passcode}}</b>"})
	require.NoError(t, err)

	var sb strings.Builder
	_, err = msg.WriteTo(&sb)
	require.NoError(t, err)
	raw := sb.String()
	assert.Contains(t, raw, "Subject: Your code")
	assert.Contains(t, raw, "Acme Accounts")
	assert.Contains(t, raw, "no-reply@example.com")
	assert.Contains(t, raw, "ana@example.com")
	assert.Contains(t, raw, "654321")

	_, err = e.buildMessage(NotificationData{}, NoticeTemplate{Subject: "x"})
	assert.Error(t, err)
}
