package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOptions struct {
	ClientID     string
	ClientSecret string
	// RedirectURL must match the one the frontend used to obtain the code.
	RedirectURL string
	// TokenURL and UserInfoURL default to Google's endpoints.
	TokenURL    string
	UserInfoURL string
	HTTPClient  *http.Client
}

// GoogleProvider exchanges an authorization code and reads the userinfo endpoint.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

func NewGoogleProvider(opts GoogleOptions) *GoogleProvider {
	endpoint := endpoints.Google
	if opts.TokenURL != "" {
		endpoint.TokenURL = opts.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	userInfoURL := opts.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = GoogleUserInfoURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}

	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfoURL,
		httpClient:  httpClient,
	}
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Authenticate exchanges code for an access token and fetches the user. The id argument is ignored.
func (g *GoogleProvider) Authenticate(ctx context.Context, code, _ string) (*Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)

	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		slog.Warn("Google code exchange failed", "err", err)
		return nil, fmt.Errorf("google code exchange: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("google code exchange: %w", ErrNoIdentity)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	var info googleUserInfo
	if err := getJSON(g.config.Client(ctx, tok), req, &info); err != nil {
		slog.Warn("Google userinfo request failed", "err", err)
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, fmt.Errorf("google userinfo: %w", ErrNoIdentity)
	}

	return &Identity{
		ExternalID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
		Picture:    info.Picture,
	}, nil
}
