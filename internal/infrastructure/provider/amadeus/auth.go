package amadeus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fareglitch/internal/infrastructure/provider"
)

// expirySkew renews the token slightly before the server would reject it.
const expirySkew = 30 * time.Second

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Authenticator runs the OAuth2 client-credentials flow and caches the
// resulting access token until shortly before it expires.
type Authenticator struct {
	endpoint     string
	clientID     string
	clientSecret string
	http         *http.Client
	now          func() time.Time

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func NewAuthenticator(baseURL, clientID, clientSecret string, httpClient *http.Client) *Authenticator {
	return &Authenticator{
		endpoint:     strings.TrimRight(baseURL, "/") + "/v1/security/oauth2/token",
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         httpClient,
		now:          time.Now,
	}
}

func (a *Authenticator) Authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("http.Do: %w", err)
	}

	var body tokenResponse
	if err = provider.Decode(resp, Name, &body); err != nil {
		return err
	}

	if body.AccessToken == "" {
		return fmt.Errorf("%s: empty access token", Name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.token = body.AccessToken
	a.expiresAt = a.now().Add(time.Duration(body.ExpiresIn)*time.Second - expirySkew)

	return nil
}

// BearerToken returns an empty string once the cached token is stale, which
// makes the bearer round tripper authenticate again.
func (a *Authenticator) BearerToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.token == "" || !a.now().Before(a.expiresAt) {
		return ""
	}

	return a.token
}
