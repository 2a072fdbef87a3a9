package tests

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// APIClient drives the HTTP API from tests and decodes JSON bodies into
// either the success or the error destination depending on the status.
type APIClient struct {
	tb         testing.TB
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(tb testing.TB, baseURL string, httpClient *http.Client) APIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return APIClient{
		tb:         tb,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Bearer builds an Authorization header. An empty token yields no header,
// which is how anonymous viewers call the feed.
func Bearer(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}

	return h
}

func (a APIClient) Get(
	ctx context.Context,
	endpoint string,
	headers http.Header,
	dest any,
	errDest any,
) (*http.Response, error) {
	return a.do(ctx, http.MethodGet, endpoint, headers, http.NoBody, dest, errDest)
}

func (a APIClient) Post(
	ctx context.Context,
	endpoint string,
	headers http.Header,
	request any,
	dest any,
	errDest any,
) (*http.Response, error) {
	b, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return a.do(ctx, http.MethodPost, endpoint, headers, bytes.NewReader(b), dest, errDest)
}

// PostJSON sends a raw body, for malformed or partial payloads.
func (a APIClient) PostJSON(
	ctx context.Context,
	endpoint string,
	headers http.Header,
	requestJSON string,
	dest any,
	errDest any,
) (*http.Response, error) {
	return a.do(ctx, http.MethodPost, endpoint, headers, strings.NewReader(requestJSON), dest, errDest)
}

func (a APIClient) do(
	ctx context.Context,
	method string,
	endpoint string,
	headers http.Header,
	payload io.Reader,
	dest any,
	errDest any,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	if method == http.MethodPost && headers.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header[k] = v
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpClient.Do: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	a.tb.Logf("%s %s -> %d %s", method, endpoint, resp.StatusCode, bytes.TrimSpace(body))

	if err = decode(resp.StatusCode, body, dest, errDest); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	return resp, nil
}

func decode(status int, body []byte, dest, errDest any) error {
	target, what := errDest, "error"
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		target, what = dest, "success"
	}

	if target == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, target); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("json.Unmarshal(%s destination): %w", what, err)
	}

	return nil
}
