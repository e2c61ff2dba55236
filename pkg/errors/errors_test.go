package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeInvalidArgument, http.StatusBadRequest},
		{ErrCodeMfaNotEnabled, http.StatusBadRequest},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeInvalidPasscode, http.StatusUnauthorized},
		{ErrCodeExpiredPasscode, http.StatusUnauthorized},
		{ErrCodeInvalidToken, http.StatusUnauthorized},
		{ErrCodeFailedGoogleLogin, http.StatusUnauthorized},
		{ErrCodeForbiddenPasswordChange, http.StatusForbidden},
		{ErrCodeUserNotFound, http.StatusNotFound},
		{ErrCodeUserAlreadyExists, http.StatusConflict},
		{ErrCodeExceededAttempts, http.StatusTooManyRequests},
		{ErrCodeUploadFailed, http.StatusBadGateway},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func TestExceededAttemptsCarriesTime(t *testing.T) {
	err := ExceededAttempts("15m")

	assert.Equal(t, ErrCodeExceededAttempts, err.Code)
	assert.Equal(t, "15m", err.Details["time"])
	assert.Equal(t, "exceededAttempts", err.Code.MessageKey())
}

func TestInspectionThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", InvalidPasscode())

	assert.True(t, IsCode(wrapped, ErrCodeInvalidPasscode))
	assert.Equal(t, ErrCodeInvalidPasscode, GetCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, InvalidPasscode()))
	assert.False(t, stderrors.Is(wrapped, InvalidCredentials()))

	assert.Equal(t, ErrCodeInternal, GetCode(stderrors.New("boom")))
	assert.Nil(t, GetDetails(stderrors.New("boom")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("s3 unavailable")
	err := UploadFailed(cause)

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "UPLOAD_FAILED")
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "nothing"))
}

func TestUnknownCodeFallsBackToGenericMessage(t *testing.T) {
	assert.Equal(t, "somethingWentWrong", ErrorCode("NOPE").MessageKey())
}

func TestMessageKeyOverride(t *testing.T) {
	err := FailedRecaptcha(stderrors.New("timeout-or-duplicate"))

	assert.Equal(t, ErrCodeUnauthorized, err.Code)
	assert.Equal(t, "failedInReCaptchaValidation", err.MessageKey())
	assert.Equal(t, 401, err.HTTPStatusCode())
	assert.Equal(t, "unauthorized", Unauthorized("x").MessageKey())
}
