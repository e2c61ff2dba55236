// Package token signs and verifies the HS256 tokens used for sessions,
// account confirmation and password reset.
package token

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tendant/simple-account/pkg/errors"
)

type Type string

const (
	// TypeSession is the empty type carried by bearer tokens.
	TypeSession        Type = ""
	TypeConfirmAccount Type = "CONFIRM_ACCOUNT"
	TypeForgotPassword Type = "FORGOT_PASSWORD"
)

// Scopes are the authorization scopes embedded in a session.
type Scopes struct {
	Global        []string            `json:"global"`
	Organizations map[string][]string `json:"organizations"`
}

// EmptyScopes returns scopes with non-nil, empty collections so they encode as [] and {}.
func EmptyScopes() Scopes {
	return Scopes{Global: []string{}, Organizations: map[string][]string{}}
}

type Claims struct {
	UserID      string  `json:"userId"`
	Email       string  `json:"email,omitempty"`
	Name        string  `json:"name,omitempty"`
	UserPicture string  `json:"userPicture,omitempty"`
	Type        Type    `json:"type,omitempty"`
	Scopes      *Scopes `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type Option func(*Service)

func WithIssuer(issuer string) Option {
	return func(s *Service) {
		s.issuer = issuer
	}
}

// WithClock replaces the time source used for issuing and validating, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(secret string, opts ...Option) *Service {
	s := &Service{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Secret returns the signing key, for wiring the HTTP verifier.
func (s *Service) Secret() []byte {
	return s.secret
}

// Sign issues a token for claims. A zero expiry produces a token without exp.
func (s *Service) Sign(claims Claims, expiry time.Duration) (string, error) {
	now := s.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	if expiry > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiry))
	}
	if s.issuer != "" {
		claims.Issuer = s.issuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		slog.Error("Failed to sign token", "err", err)
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the claims. Any failure is INVALID_TOKEN.
func (s *Service) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, errors.InvalidToken()
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidToken, "invalid token")
	}
	return claims, nil
}

// VerifyType is Verify plus a check on the token type.
func (s *Service) VerifyType(tokenStr string, want Type) (*Claims, error) {
	claims, err := s.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, errors.InvalidToken()
	}
	return claims, nil
}
