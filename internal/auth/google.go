package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const tokeninfoEndpoint = "https://oauth2.googleapis.com/tokeninfo"

// GoogleIdentity is the verified external identity assertion consumed by
// the login flow.
type GoogleIdentity struct {
	Email   string
	Name    string
	Picture string
}

// GoogleVerifier verifies a Google ID token and extracts the identity.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// tokeninfoVerifier validates ID tokens against Google's tokeninfo
// endpoint, checking audience and expiry server-side.
type tokeninfoVerifier struct {
	clientID   string
	httpClient *http.Client
}

func NewGoogleVerifier(clientID string) GoogleVerifier {
	return &tokeninfoVerifier{
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type tokeninfoResponse struct {
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Expiry        string `json:"exp"`
}

func (v *tokeninfoVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	endpoint := tokeninfoEndpoint + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google rejected the token: status %d", resp.StatusCode)
	}

	var info tokeninfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if info.Audience != v.clientID {
		return nil, fmt.Errorf("token audience mismatch")
	}
	if exp, err := strconv.ParseInt(info.Expiry, 10, 64); err != nil || time.Now().Unix() >= exp {
		return nil, fmt.Errorf("token expired")
	}
	if info.Email == "" {
		return nil, fmt.Errorf("token carries no email")
	}

	return &GoogleIdentity{
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

// OAuthConfig builds the authorization-code flow configuration used by the
// /users/oauth/login and /users/oauth/callback routes.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// FetchIdentity exchanges an authorization code and reads the verified
// identity from Google's userinfo endpoint.
func FetchIdentity(ctx context.Context, cfg *oauth2.Config, code string) (*GoogleIdentity, error) {
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	client := cfg.Client(ctx, token)
	resp, err := client.Get("https://openidconnect.googleapis.com/v1/userinfo")
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed: status %d", resp.StatusCode)
	}

	var info struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("userinfo carries no email")
	}

	return &GoogleIdentity{Email: info.Email, Name: info.Name, Picture: info.Picture}, nil
}
