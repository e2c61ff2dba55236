package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

const (
	// Generic errors
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"

	// Authentication errors
	ErrCodeInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidPasscode     ErrorCode = "INVALID_PASSCODE"
	ErrCodeExpiredPasscode     ErrorCode = "EXPIRED_PASSCODE"
	ErrCodeExceededAttempts    ErrorCode = "EXCEEDED_ATTEMPTS"
	ErrCodeInvalidToken        ErrorCode = "INVALID_TOKEN"
	ErrCodeMfaNotEnabled       ErrorCode = "MFA_NOT_ENABLED"
	ErrCodeFailedGoogleLogin   ErrorCode = "FAILED_GOOGLE_LOGIN"
	ErrCodeFailedFacebookLogin ErrorCode = "FAILED_FACEBOOK_LOGIN"

	// User/Account errors
	ErrCodeUserNotFound            ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserAlreadyExists       ErrorCode = "USER_ALREADY_EXISTS"
	ErrCodeForbiddenPasswordChange ErrorCode = "FORBIDDEN_PASSWORD_CHANGE"

	// Storage errors
	ErrCodeUploadFailed ErrorCode = "UPLOAD_FAILED"
)

// messageKeys maps each code to the key of its localized message.
var messageKeys = map[ErrorCode]string{
	ErrCodeInternal:                "somethingWentWrong",
	ErrCodeInvalidInput:            "invalidInput",
	ErrCodeInvalidArgument:         "invalidArgument",
	ErrCodeUnauthorized:            "unauthorized",
	ErrCodeForbidden:               "unauthorizedOperation",
	ErrCodeInvalidCredentials:      "invalidCredentials",
	ErrCodeInvalidPasscode:         "invalidPasscode",
	ErrCodeExpiredPasscode:         "passcodeExpired",
	ErrCodeExceededAttempts:        "exceededAttempts",
	ErrCodeInvalidToken:            "invalidToken",
	ErrCodeMfaNotEnabled:           "mfaNotEnabled",
	ErrCodeFailedGoogleLogin:       "failedGoogleLogin",
	ErrCodeFailedFacebookLogin:     "failedFacebookLogin",
	ErrCodeUserNotFound:            "userNotFound",
	ErrCodeUserAlreadyExists:       "userAlreadyExists",
	ErrCodeForbiddenPasswordChange: "changeAllowedOnlyForApiProvider",
	ErrCodeUploadFailed:            "failedToUploadProfilePicture",
}

// MessageKey returns the localization key for the code.
func (c ErrorCode) MessageKey() string {
	if key, ok := messageKeys[c]; ok {
		return key
	}
	return messageKeys[ErrCodeInternal]
}

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode              // Unique error code
	Message string                 // Human-readable error message
	Details map[string]interface{} // Optional additional details, also used as message params
	Err     error                  // Wrapped underlying error
	Key     string                 // Optional message key, overrides the code's
}

// MessageKey returns the localization key of the error.
func (e *Error) MessageKey() string {
	if e.Key != "" {
		return e.Key
	}
	return e.Code.MessageKey()
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// AsError returns the structured Error in err's chain, if any
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
// Returns ErrCodeInternal if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// GetDetails extracts the details from an error
// Returns nil if the error is not a structured Error
func GetDetails(err error) map[string]interface{} {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	// 400 Bad Request
	case ErrCodeInvalidInput, ErrCodeInvalidArgument, ErrCodeMfaNotEnabled:
		return http.StatusBadRequest

	// 401 Unauthorized
	case ErrCodeUnauthorized, ErrCodeInvalidCredentials, ErrCodeInvalidPasscode,
		ErrCodeExpiredPasscode, ErrCodeInvalidToken, ErrCodeFailedGoogleLogin,
		ErrCodeFailedFacebookLogin:
		return http.StatusUnauthorized

	// 403 Forbidden
	case ErrCodeForbidden, ErrCodeForbiddenPasswordChange:
		return http.StatusForbidden

	// 404 Not Found
	case ErrCodeUserNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case ErrCodeUserAlreadyExists:
		return http.StatusConflict

	// 429 Too Many Requests
	case ErrCodeExceededAttempts:
		return http.StatusTooManyRequests

	// 502 Bad Gateway
	case ErrCodeUploadFailed:
		return http.StatusBadGateway

	case ErrCodeInternal:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors for the account domain

// InvalidCredentials creates an "invalid credentials" error
func InvalidCredentials() *Error {
	return New(ErrCodeInvalidCredentials, "invalid credentials")
}

// InvalidPasscode creates an "invalid passcode" error
func InvalidPasscode() *Error {
	return New(ErrCodeInvalidPasscode, "invalid passcode")
}

// ExpiredPasscode creates a "passcode expired" error
func ExpiredPasscode() *Error {
	return New(ErrCodeExpiredPasscode, "passcode expired")
}

// ExceededAttempts creates a lockout error carrying the block period label
func ExceededAttempts(period string) *Error {
	return Newf(ErrCodeExceededAttempts, "exceeded attempts, try again in %s", period).
		WithDetail("time", period)
}

// InvalidToken creates an "invalid token" error
func InvalidToken() *Error {
	return New(ErrCodeInvalidToken, "invalid token")
}

// UserNotFound creates a "user not found" error
func UserNotFound() *Error {
	return New(ErrCodeUserNotFound, "user not found")
}

// UserAlreadyExists creates a "user already exists" error
func UserAlreadyExists(email string) *Error {
	return Newf(ErrCodeUserAlreadyExists, "user already exists: %s", email)
}

// MfaNotEnabled creates an "mfa not enabled" error
func MfaNotEnabled() *Error {
	return New(ErrCodeMfaNotEnabled, "mfa not enabled")
}

// FailedGoogleLogin wraps a Google identity failure
func FailedGoogleLogin(err error) *Error {
	return &Error{Code: ErrCodeFailedGoogleLogin, Message: "failed google login", Err: err}
}

// FailedFacebookLogin wraps a Facebook identity failure
func FailedFacebookLogin(err error) *Error {
	return &Error{Code: ErrCodeFailedFacebookLogin, Message: "failed facebook login", Err: err}
}

// ForbiddenPasswordChange creates the error returned to non-API providers
func ForbiddenPasswordChange() *Error {
	return New(ErrCodeForbiddenPasswordChange, "password change allowed only for API provider")
}

// InvalidArgument creates an "invalid argument" error
func InvalidArgument(message string) *Error {
	return New(ErrCodeInvalidArgument, message)
}

// InvalidInput creates an "invalid input" error
func InvalidInput(field, reason string) *Error {
	return New(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithDetail("field", field)
}

// UploadFailed wraps an object storage failure
func UploadFailed(err error) *Error {
	return Wrap(err, ErrCodeUploadFailed, "failed to upload profile picture")
}

// Unauthorized creates an "unauthorized" error
func Unauthorized(message string) *Error {
	return New(ErrCodeUnauthorized, message)
}

// FailedRecaptcha is the UNAUTHORIZED error for a missing or rejected reCAPTCHA token.
func FailedRecaptcha(err error) *Error {
	return &Error{
		Code:    ErrCodeUnauthorized,
		Message: "failed recaptcha validation",
		Err:     err,
		Key:     "failedInReCaptchaValidation",
	}
}

// Forbidden creates a "forbidden" error
func Forbidden(message string) *Error {
	return New(ErrCodeForbidden, message)
}

// InternalWrap wraps an internal error
func InternalWrap(err error, message string) *Error {
	return Wrap(err, ErrCodeInternal, message)
}
