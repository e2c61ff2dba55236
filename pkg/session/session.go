// Package session mints the bearer token returned after a completed login.
package session

import (
	"time"

	"github.com/tendant/simple-account/pkg/storage"
	"github.com/tendant/simple-account/pkg/token"
	"github.com/tendant/simple-account/pkg/user"
)

const DefaultExpiry = 24 * time.Hour

// AuthPayload is the body returned for an authenticated session.
type AuthPayload struct {
	UserID      string       `json:"userId"`
	Email       string       `json:"email"`
	Name        string       `json:"name"`
	UserPicture string       `json:"userPicture"`
	Token       string       `json:"token"`
	Scopes      token.Scopes `json:"scopes"`
}

type Issuer struct {
	tokens *token.Service
	expiry time.Duration
	cdnURL string
}

// NewIssuer returns an Issuer signing with tokens. A non-positive expiry uses DefaultExpiry.
func NewIssuer(tokens *token.Service, expiry time.Duration, cdnURL string) *Issuer {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Issuer{tokens: tokens, expiry: expiry, cdnURL: cdnURL}
}

func (i *Issuer) Expiry() time.Duration {
	return i.expiry
}

// Issue signs a session token for u.
func (i *Issuer) Issue(u user.User) (AuthPayload, error) {
	scopes := token.EmptyScopes()
	payload := AuthPayload{
		UserID:      u.ID.String(),
		Email:       u.Email,
		Name:        u.Name,
		UserPicture: storage.MountMediaURL(i.cdnURL, u.UserPicture),
		Scopes:      scopes,
	}

	signed, err := i.tokens.Sign(token.Claims{
		UserID:      payload.UserID,
		Email:       payload.Email,
		Name:        payload.Name,
		UserPicture: payload.UserPicture,
		Type:        token.TypeSession,
		Scopes:      &scopes,
	}, i.expiry)
	if err != nil {
		return AuthPayload{}, err
	}
	payload.Token = signed
	return payload, nil
}
