package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-account/pkg/errors"
)

// AuthUser is the caller identified by a session token.
type AuthUser struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

func (a AuthUser) LogValue() slog.Value {
	return slog.GroupValue(slog.String("user", a.UserID.String()))
}

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "account context value " + k.name
}

var AuthUserKey = &contextKey{"AuthUser"}

// Verifier extracts and verifies a bearer token from the Authorization header.
func Verifier(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return jwtauth.Verify(ja, jwtauth.TokenFromHeader)
}

// Authenticator rejects requests whose token failed verification, rendering
// the same error body as the rest of the API.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			renderError(w, r, errors.Unauthorized("missing or invalid bearer token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

// AuthUserMiddleware loads the AuthUser from verified claims. Confirm-account
// and reset-password tokens carry a type claim and are not accepted as sessions.
func AuthUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			renderError(w, r, errors.Unauthorized("missing or invalid bearer token"))
			return
		}
		if claimString(claims, "type") != "" {
			renderError(w, r, errors.Unauthorized("token is not a session token"))
			return
		}
		userID, err := uuid.Parse(claimString(claims, "userId"))
		if err != nil {
			renderError(w, r, errors.Unauthorized("token has no valid userId"))
			return
		}

		authUser := &AuthUser{
			UserID: userID,
			Email:  claimString(claims, "email"),
			Name:   claimString(claims, "name"),
		}
		ctx := context.WithValue(r.Context(), AuthUserKey, authUser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SelfOnly lets the request through only when the {userId} path parameter is the caller.
func SelfOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authUser, ok := r.Context().Value(AuthUserKey).(*AuthUser)
		if !ok {
			renderError(w, r, errors.Unauthorized("not authenticated"))
			return
		}
		if chi.URLParam(r, "userId") != authUser.UserID.String() {
			slog.Warn("Rejected access to another user", "caller", authUser, "target", chi.URLParam(r, "userId"))
			renderError(w, r, errors.Forbidden("cannot access another user"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
