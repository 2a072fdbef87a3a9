package provider

import (
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"fareglitch/internal/domain"
	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/httpx"
	"fareglitch/pkg/logx"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultLogFieldMaxLen = 4096

	errorBodyMaxLen = 512
)

// NewHTTPClient returns a client whose traffic is logged under name with
// secrets masked. A non-nil auth wraps the logging transport with bearer
// authentication.
func NewHTTPClient(name string, timeout time.Duration, logFieldMaxLen int, auth httpx.Authenticator) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var transport http.RoundTripper = httpx.NewLoggingRoundTripper(
		http.DefaultTransport,
		httpx.WithName(name),
		httpx.WithLogFieldMaxLen(logFieldMaxLen),
		httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
	)

	if auth != nil {
		transport = httpx.NewAuthBearerRoundTripper(transport, auth)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Decode reads a JSON body into dst. Non-2xx responses become
// ProviderUnavailable errors carrying a trimmed body.
func Decode(resp *http.Response, provider string, dst any) error {
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyMaxLen))
		return domain.NewError(
			errcodes.ProviderUnavailable,
			fmt.Sprintf("%s responded %d: %s", provider, resp.StatusCode, body),
		)
	}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("jsoniter.Decode: %w", err)
	}

	return nil
}
