// Package errors provides structured error handling with error codes for simple-account.
//
// Every failure the account domain can report is an *Error carrying a typed ErrorCode,
// a developer-facing message, optional details and an optional wrapped cause. The HTTP
// layer maps the code to a status and translates the code's message key for the caller.
//
// # Basic Usage
//
//	import "github.com/tendant/simple-account/pkg/errors"
//
//	// Domain constructors
//	err := errors.InvalidCredentials()
//	err := errors.ExceededAttempts("5m") // Details["time"] == "5m"
//
//	// Wrap an infrastructure failure
//	err := errors.UploadFailed(s3Err)
//
// # Error Inspection
//
//	if errors.IsCode(err, errors.ErrCodeExceededAttempts) {
//		period := errors.GetDetails(err)["time"]
//	}
//
//	status := errors.MapErrorCodeToHTTPStatus(errors.GetCode(err))
//
// Because *Error implements Is by comparing codes, the standard library works too:
//
//	stderrors.Is(err, errors.InvalidPasscode())
//
// # Error code to HTTP status mapping
//
//   - INVALID_INPUT, INVALID_ARGUMENT, MFA_NOT_ENABLED → 400
//   - INVALID_CREDENTIALS, INVALID_PASSCODE, EXPIRED_PASSCODE, INVALID_TOKEN,
//     FAILED_GOOGLE_LOGIN, FAILED_FACEBOOK_LOGIN, UNAUTHORIZED → 401
//   - FORBIDDEN, FORBIDDEN_PASSWORD_CHANGE → 403
//   - USER_NOT_FOUND → 404
//   - USER_ALREADY_EXISTS → 409
//   - EXCEEDED_ATTEMPTS → 429
//   - UPLOAD_FAILED → 502
//   - everything else → 500
package errors
