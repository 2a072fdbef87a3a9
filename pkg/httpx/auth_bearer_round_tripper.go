package httpx

import (
	"context"
	"fmt"
	"net/http"
)

// Authenticator supplies bearer tokens. BearerToken returns "" when a fresh
// Authenticate call is required.
type Authenticator interface {
	Authenticate(ctx context.Context) error
	BearerToken() string
}

// AuthBearerRoundTripper authorizes every request and retries once with a
// refreshed token on 401. Requests whose body cannot be replayed are not
// retried.
type AuthBearerRoundTripper struct {
	next          http.RoundTripper
	authenticator Authenticator
}

func NewAuthBearerRoundTripper(next http.RoundTripper, authenticator Authenticator) AuthBearerRoundTripper {
	return AuthBearerRoundTripper{
		next:          next,
		authenticator: authenticator,
	}
}

func (rt AuthBearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if rt.authenticator.BearerToken() == "" {
		if err := rt.authenticator.Authenticate(ctx); err != nil {
			return nil, fmt.Errorf("authenticator.Authenticate: %w", err)
		}
	}

	resp, err := rt.next.RoundTrip(rt.authorized(req))
	if err != nil {
		return nil, fmt.Errorf("next.RoundTrip: %w", err)
	}

	if resp.StatusCode != http.StatusUnauthorized || !replayable(req) {
		return resp, nil
	}

	resp.Body.Close()

	if err = rt.authenticator.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticator.Authenticate: %w", err)
	}

	retry := rt.authorized(req)
	if req.GetBody != nil {
		if retry.Body, err = req.GetBody(); err != nil {
			return nil, fmt.Errorf("req.GetBody: %w", err)
		}
	}

	return rt.next.RoundTrip(retry) //nolint:wrapcheck
}

// authorized returns a copy of req; the caller's request is never mutated.
func (rt AuthBearerRoundTripper) authorized(req *http.Request) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+rt.authenticator.BearerToken())

	return out
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}
