// Package totp generates MFA enrollment keys and time-based codes.
package totp

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultPeriod is the code step in seconds.
	DefaultPeriod = 30
	// Skew is the number of steps accepted on either side of now.
	Skew = 1
)

// Key is what the user needs to enroll an authenticator app.
type Key struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

type Engine struct {
	issuer string
	now    func() time.Time
}

func NewEngine(issuer string) *Engine {
	return &Engine{issuer: issuer, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// GenerateKey creates a fresh secret and its otpauth:// enrollment URL.
func (e *Engine) GenerateKey(label string) (Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: label,
		Period:      DefaultPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		slog.Error("Failed to generate totp key", "label", label, "issuer", e.issuer, "error", err)
		return Key{}, fmt.Errorf("failed to generate totp key: %w", err)
	}
	return Key{Secret: key.Secret(), URL: key.URL()}, nil
}

// GenerateCode returns the current code for secret. A period of 0 uses DefaultPeriod.
func (e *Engine) GenerateCode(secret string, period uint) (string, error) {
	if period == 0 {
		period = DefaultPeriod
	}
	code, err := totp.GenerateCodeCustom(secret, e.now().UTC(), totp.ValidateOpts{
		Period:    period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		slog.Error("Failed to generate totp code", "error", err)
		return "", fmt.Errorf("failed to generate totp code: %w", err)
	}
	return code, nil
}

// ValidateCode checks code against secret, accepting one step of drift each way.
// Malformed codes are reported as invalid rather than as errors.
func (e *Engine) ValidateCode(code, secret string) bool {
	valid, err := totp.ValidateCustom(code, secret, e.now().UTC(), totp.ValidateOpts{
		Period:    DefaultPeriod,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		slog.Debug("Rejected totp code", "error", err)
		return false
	}
	return valid
}
