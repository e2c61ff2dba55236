// Package mfa decides whether a login needs a second factor and validates it.
package mfa

import (
	"context"
	"crypto/subtle"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-account/pkg/attempts"
	"github.com/tendant/simple-account/pkg/errors"
	"github.com/tendant/simple-account/pkg/i18n"
	"github.com/tendant/simple-account/pkg/notification"
	"github.com/tendant/simple-account/pkg/passcode"
	"github.com/tendant/simple-account/pkg/session"
	"github.com/tendant/simple-account/pkg/user"
)

const DefaultEmailTimeout = 5 * time.Minute

// Challenge is returned instead of a session when a second factor is required.
type Challenge struct {
	UserID          uuid.UUID      `json:"userId"`
	Email           string         `json:"email"`
	RequirePasscode bool           `json:"requirePasscode"`
	Method          user.MfaMethod `json:"method"`
}

type CodeEngine interface {
	GenerateCode(secret string, period uint) (string, error)
	ValidateCode(code, secret string) bool
}

type PasscodeMailer interface {
	SendPasscode(ctx context.Context, to notification.Recipient, lang i18n.Lang, passcode string, validFor time.Duration) error
}

type Engine struct {
	users        user.Repository
	ledger       *attempts.Ledger
	passcodes    *passcode.Store
	codes        CodeEngine
	mailer       PasscodeMailer
	sessions     *session.Issuer
	emailTimeout time.Duration
}

type Option func(*Engine)

// WithEmailTimeout sets how long an emailed passcode stays valid.
func WithEmailTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.emailTimeout = d
		}
	}
}

func NewEngine(
	users user.Repository,
	ledger *attempts.Ledger,
	passcodes *passcode.Store,
	codes CodeEngine,
	mailer PasscodeMailer,
	sessions *session.Issuer,
	opts ...Option,
) *Engine {
	e := &Engine{
		users:        users,
		ledger:       ledger,
		passcodes:    passcodes,
		codes:        codes,
		mailer:       mailer,
		sessions:     sessions,
		emailTimeout: DefaultEmailTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Begin returns nil when u has MFA disabled. For the EMAIL method it stores
// and mails a fresh passcode first; a delivery failure is returned.
func (e *Engine) Begin(ctx context.Context, u user.User, lang i18n.Lang) (*Challenge, error) {
	if !u.MfaEnabled {
		return nil, nil
	}

	if u.MfaMethod == user.MfaMethodEmail {
		if u.MfaKey == nil {
			return nil, errors.MfaNotEnabled()
		}
		code, err := e.codes.GenerateCode(u.MfaKey.Secret, 0)
		if err != nil {
			return nil, errors.InternalWrap(err, "failed to generate passcode")
		}
		if err := e.passcodes.Set(ctx, u.ID, code, e.emailTimeout); err != nil {
			return nil, errors.InternalWrap(err, "failed to store passcode")
		}
		to := notification.Recipient{Email: u.Email, Name: u.Name}
		if err := e.mailer.SendPasscode(ctx, to, lang, code, e.emailTimeout); err != nil {
			return nil, errors.InternalWrap(err, "failed to send passcode")
		}
		slog.Info("Passcode sent", "userId", u.ID)
	}

	return &Challenge{
		UserID:          u.ID,
		Email:           u.Email,
		RequirePasscode: true,
		Method:          u.MfaMethod,
	}, nil
}

// Validate checks the second factor of an ACTIVE user. Failures count against
// the same attempt record as logins, including attempts made while blocked;
// success clears it and returns a session.
func (e *Engine) Validate(ctx context.Context, userID uuid.UUID, code string) (session.AuthPayload, error) {
	u, err := e.users.GetUser(ctx, user.Filter{UserID: userID, Status: user.StatusActive})
	if err != nil {
		if stderrors.Is(err, user.ErrUserNotFound) {
			return session.AuthPayload{}, errors.UserNotFound()
		}
		return session.AuthPayload{}, errors.InternalWrap(err, "failed to load user")
	}
	if u.MfaKey == nil {
		return session.AuthPayload{}, errors.MfaNotEnabled()
	}

	rec, err := e.ledger.GetAttempts(ctx, u.ID)
	if err != nil {
		return session.AuthPayload{}, errors.InternalWrap(err, "failed to load attempts")
	}
	rec = rec.Increment()
	if rec.Blocked() {
		return session.AuthPayload{}, e.ledger.ClassifyFailure(ctx, u.ID, attempts.OperationValidatePasscode, rec)
	}

	var match bool
	if u.MfaMethod == user.MfaMethodEmail {
		stored, ok, err := e.passcodes.Get(ctx, u.ID)
		if err != nil {
			return session.AuthPayload{}, errors.InternalWrap(err, "failed to load passcode")
		}
		if !ok {
			return session.AuthPayload{}, errors.ExpiredPasscode()
		}
		match = subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1
	} else {
		match = e.codes.ValidateCode(code, u.MfaKey.Secret)
	}

	if !match {
		return session.AuthPayload{}, e.ledger.ClassifyFailure(ctx, u.ID, attempts.OperationValidatePasscode, rec)
	}

	if err := e.passcodes.Delete(ctx, u.ID); err != nil {
		return session.AuthPayload{}, errors.InternalWrap(err, "failed to clear passcode")
	}
	if err := e.ledger.DeleteAttempts(ctx, u.ID); err != nil {
		return session.AuthPayload{}, errors.InternalWrap(err, "failed to clear attempts")
	}
	payload, err := e.sessions.Issue(u)
	if err != nil {
		return session.AuthPayload{}, errors.InternalWrap(err, fmt.Sprintf("failed to issue session for %s", u.ID))
	}
	return payload, nil
}
