package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/tendant/simple-account/pkg/errors"
)

// RecaptchaHeader carries the client's reCAPTCHA token.
const RecaptchaHeader = "g-recaptcha-response"

const RecaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

type RecaptchaVerifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

type RecaptchaOption func(*RecaptchaVerifier)

// WithRecaptchaURL points the verifier at another siteverify endpoint.
func WithRecaptchaURL(u string) RecaptchaOption {
	return func(v *RecaptchaVerifier) { v.verifyURL = u }
}

func WithRecaptchaClient(c *http.Client) RecaptchaOption {
	return func(v *RecaptchaVerifier) { v.client = c }
}

func NewRecaptchaVerifier(secret string, opts ...RecaptchaOption) *RecaptchaVerifier {
	v := &RecaptchaVerifier{
		secret:    secret,
		verifyURL: RecaptchaVerifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify asks siteverify whether token is valid.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	form := url.Values{"secret": {v.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call siteverify: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("siteverify returned status %d", resp.StatusCode)
	}

	var out siteverifyResponse
	if err := render.DecodeJSON(resp.Body, &out); err != nil {
		return fmt.Errorf("failed to decode siteverify response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("recaptcha rejected: %s", strings.Join(out.ErrorCodes, ","))
	}
	return nil
}

// Middleware rejects requests without a valid reCAPTCHA token.
func (v *RecaptchaVerifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(RecaptchaHeader)
		if token == "" {
			renderError(w, r, errors.FailedRecaptcha(nil))
			return
		}
		if err := v.Verify(r.Context(), token, remoteHost(r)); err != nil {
			slog.Warn("Recaptcha validation failed", "path", r.URL.Path, "err", err)
			renderError(w, r, errors.FailedRecaptcha(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteHost(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}
