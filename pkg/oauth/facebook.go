package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

const FacebookGraphURL = "https://graph.facebook.com"

type FacebookOptions struct {
	// GraphURL defaults to FacebookGraphURL.
	GraphURL   string
	HTTPClient *http.Client
}

// FacebookProvider reads the user from the Graph API with a client-side access token.
type FacebookProvider struct {
	graphURL   string
	httpClient *http.Client
}

func NewFacebookProvider(opts FacebookOptions) *FacebookProvider {
	graphURL := opts.GraphURL
	if graphURL == "" {
		graphURL = FacebookGraphURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &FacebookProvider{graphURL: graphURL, httpClient: httpClient}
}

type facebookUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// Authenticate looks up facebookUserID using accessToken.
func (f *FacebookProvider) Authenticate(ctx context.Context, accessToken, facebookUserID string) (*Identity, error) {
	if accessToken == "" || facebookUserID == "" {
		return nil, fmt.Errorf("facebook: %w", ErrNoIdentity)
	}

	endpoint := fmt.Sprintf("%s/%s?%s", f.graphURL, url.PathEscape(facebookUserID),
		url.Values{"fields": {"id,name,email,picture"}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	var u facebookUser
	if err := getJSON(client, req, &u); err != nil {
		slog.Warn("Facebook graph request failed", "err", err)
		return nil, fmt.Errorf("facebook graph: %w", err)
	}
	if u.ID == "" || u.Email == "" {
		return nil, fmt.Errorf("facebook graph: %w", ErrNoIdentity)
	}

	return &Identity{
		ExternalID: u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Picture:    u.Picture.Data.URL,
	}, nil
}
