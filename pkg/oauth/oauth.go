// Package oauth exchanges Google and Facebook credentials for a verified identity.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoIdentity is returned when a provider answers without a usable user id.
var ErrNoIdentity = errors.New("provider returned no identity")

// Identity is the external user as reported by the provider.
type Identity struct {
	ExternalID string
	Email      string
	Name       string
	Picture    string
}

// Provider verifies a credential. id is only used by providers that need the
// external user id alongside the token (Facebook).
type Provider interface {
	Authenticate(ctx context.Context, credential, id string) (*Identity, error)
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func getJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response from %s: %w", req.URL.Host, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d: %s", req.URL.Host, resp.StatusCode, truncate(body, 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Host, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
