package token

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-account/pkg/errors"
)

func TestSignVerify(t *testing.T) {
	svc := NewService("test-secret")
	scopes := EmptyScopes()

	signed, err := svc.Sign(Claims{
		UserID: "7f0c1a52-2b4a-4b0c-9c39-8f9d7e0b9a11",
		Email:  "ana@example.com",
		Name:   "Ana",
		Scopes: &scopes,
	}, 24*time.Hour)
	require.NoError(t, err)

	claims, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "7f0c1a52-2b4a-4b0c-9c39-8f9d7e0b9a11", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, TypeSession, claims.Type)
	require.NotNil(t, claims.Scopes)
	assert.Empty(t, claims.Scopes.Global)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, 2*time.Second)
}

func TestVerifyRejects(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService("test-secret", WithClock(func() time.Time { return issuedAt }))

	expiring, err := svc.Sign(Claims{UserID: "u"}, time.Hour)
	require.NoError(t, err)

	later := NewService("test-secret", WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) }))
	other := NewService("other-secret", WithClock(func() time.Time { return issuedAt }))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		svc   *Service
		token string
	}{
		{"empty", svc, ""},
		{"garbage", svc, "not-a-token"},
		{"expired", later, expiring},
		{"wrong secret", other, expiring},
		{"alg none", svc, unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Verify(tt.token)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidToken), "err=%v", err)
		})
	}
}

func TestVerifyType(t *testing.T) {
	svc := NewService("test-secret")

	confirm, err := svc.Sign(Claims{UserID: "u", Type: TypeConfirmAccount}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.VerifyType(confirm, TypeConfirmAccount)
	require.NoError(t, err)
	assert.Equal(t, "u", claims.UserID)

	_, err = svc.VerifyType(confirm, TypeForgotPassword)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidToken))

	session, err := svc.Sign(Claims{UserID: "u"}, time.Hour)
	require.NoError(t, err)
	_, err = svc.VerifyType(session, TypeConfirmAccount)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidToken))
}

func TestEmptyScopesEncoding(t *testing.T) {
	data, err := json.Marshal(EmptyScopes())
	require.NoError(t, err)
	assert.JSONEq(t, `{"global":[],"organizations":{}}`, string(data))
}
