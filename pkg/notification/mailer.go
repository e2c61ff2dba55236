package notification

import (
	"context"
	"embed"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tendant/simple-account/pkg/i18n"
)

//go:embed templates/email/*.html
var templateFiles embed.FS

func loadTemplate(filename string) (string, error) {
	content, err := templateFiles.ReadFile("templates/email/" + filename)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", filename, err)
	}
	return string(content), nil
}

// Recipient is the user an email is addressed to.
type Recipient struct {
	Email string
	Name  string
}

// Mailer sends the localized account emails through a Notifier.
type Mailer struct {
	notifier Notifier
	appURL   string
	appName  string
	html     map[NoticeType]string
	now      func() time.Time
}

type MailerOption func(*Mailer)

// WithAppName sets the name shown in the email footer.
func WithAppName(name string) MailerOption {
	return func(m *Mailer) { m.appName = name }
}

func WithMailerClock(now func() time.Time) MailerOption {
	return func(m *Mailer) { m.now = now }
}

// NewMailer loads the embedded templates. appURL is the frontend base used
// for confirmation and reset links.
func NewMailer(notifier Notifier, appURL string, opts ...MailerOption) (*Mailer, error) {
	m := &Mailer{
		notifier: notifier,
		appURL:   strings.TrimRight(appURL, "/"),
		html:     map[NoticeType]string{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	files := map[NoticeType]string{
		AccountConfirmation: "account_confirmation.html",
		PasswordReset:       "password_reset.html",
		Passcode:            "passcode.html",
	}
	for noticeType, file := range files {
		html, err := loadTemplate(file)
		if err != nil {
			return nil, err
		}
		m.html[noticeType] = html
	}
	return m, nil
}

func (m *Mailer) link(path, token string) string {
	return m.appURL + path + "?" + url.Values{"token": {token}}.Encode()
}

func (m *Mailer) send(ctx context.Context, noticeType NoticeType, to Recipient, lang i18n.Lang, subjectKey string, keys []string, extra map[string]string) error {
	data := map[string]string{
		"hello":             i18n.T(lang, "hello", nil),
		"userName":          to.Name,
		"allRightsReserved": i18n.T(lang, "allRightsReserved", nil),
		"appName":           m.appName,
		"year":              strconv.Itoa(m.now().Year()),
	}
	for _, key := range keys {
		data[key] = i18n.T(lang, key, nil)
	}
	for k, v := range extra {
		data[k] = v
	}

	return m.notifier.Send(ctx, noticeType, NotificationData{
		To:     to.Email,
		ToName: to.Name,
		Data:   data,
	}, NoticeTemplate{
		Subject: i18n.T(lang, subjectKey, nil),
		Html:    m.html[noticeType],
	})
}

// SendAccountConfirmation emails the confirm-account link carrying token.
func (m *Mailer) SendAccountConfirmation(ctx context.Context, to Recipient, lang i18n.Lang, token string) error {
	return m.send(ctx, AccountConfirmation, to, lang, "emailConfirmation",
		[]string{"welcomeActivateEmailMessage", "ignoreEmailMessage", "confirmAccount"},
		map[string]string{"confirmAccountLink": m.link("/confirm-account", token)})
}

// SendPasswordReset emails the reset-password link carrying token.
func (m *Mailer) SendPasswordReset(ctx context.Context, to Recipient, lang i18n.Lang, token string) error {
	return m.send(ctx, PasswordReset, to, lang, "forgotPasswordRequestTitle",
		[]string{"forgotPasswordEmailMessage", "ignoreEmailMessage", "createNewPassword"},
		map[string]string{"createNewPasswordLink": m.link("/reset-password", token)})
}

// SendPasscode emails a one-time MFA passcode valid for validFor.
func (m *Mailer) SendPasscode(ctx context.Context, to Recipient, lang i18n.Lang, passcode string, validFor time.Duration) error {
	minutes := int(validFor / time.Minute)
	return m.send(ctx, Passcode, to, lang, "twoFactorAuthenticationTitle",
		[]string{"passcodeMessage", "ignoreEmailMessage"},
		map[string]string{
			"passcode":          passcode,
			"expirationMessage": i18n.T(lang, "passcodeExpirationMessage", map[string]any{"minutes": minutes}),
		})
}
