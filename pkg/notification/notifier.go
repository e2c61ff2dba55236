// Package notification renders and delivers the account emails.
package notification

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// NoticeType identifies an email the service sends.
type NoticeType string

const (
	AccountConfirmation NoticeType = "account_confirmation"
	PasswordReset       NoticeType = "password_reset"
	Passcode            NoticeType = "passcode"
)

// NoticeTemplate holds the subject and bodies of a notice. Html and Text are
// Go templates executed against NotificationData.Data.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

type NotificationData struct {
	To     string            // Recipient address
	ToName string            // Optional display name
	Data   map[string]string // Template values
}

type Notifier interface {
	Send(ctx context.Context, noticeType NoticeType, notification NotificationData, tmpl NoticeTemplate) error
}

// Render executes the text and HTML bodies of tmpl. Empty bodies stay empty.
func Render(tmpl NoticeTemplate, data map[string]string) (text string, html string, err error) {
	if tmpl.Text != "" {
		t, err := texttemplate.New("text").Parse(tmpl.Text)
		if err != nil {
			return "", "", err
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return "", "", err
		}
		text = buf.String()
	}
	if tmpl.Html != "" {
		t, err := htmltemplate.New("html").Parse(tmpl.Html)
		if err != nil {
			return "", "", err
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return "", "", err
		}
		html = buf.String()
	}
	return text, html, nil
}
