package httpx_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"fareglitch/pkg/contextx"
	"fareglitch/pkg/httpx"
	"fareglitch/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const pricesBody = `{"success":true,"data":[{"origin":"JFK","destination":"NRT","value":412}]}`

func TestLoggingRoundTripper(t *testing.T) {
	testCases := []struct {
		name           string
		status         int
		body           string
		opts           []httpx.Option
		wantLevel      string
		wantStatus     float64
		check          func(rq *require.Assertions, req, resp string)
		checkTruncated bool
	}{
		{
			name:       "Status 200",
			status:     http.StatusOK,
			body:       pricesBody,
			opts:       []httpx.Option{httpx.WithName("travelpayouts")},
			wantLevel:  "INFO",
			wantStatus: http.StatusOK,
			check: func(rq *require.Assertions, req, resp string) {
				rq.Contains(req, "GET /v2/prices/latest?origin=JFK&token=s3cret HTTP/1.1")
				rq.Contains(resp, "HTTP/1.1 200 OK")
				rq.Contains(resp, pricesBody)
			},
		},
		{
			name:   "Status 200 (masked)",
			status: http.StatusOK,
			body:   pricesBody,
			opts: []httpx.Option{
				httpx.WithName("travelpayouts"),
				httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
			},
			wantLevel:  "INFO",
			wantStatus: http.StatusOK,
			check: func(rq *require.Assertions, req, _ string) {
				rq.Contains(req, "token=[MASKED] HTTP/1.1")
				rq.NotContains(req, "s3cret")
			},
		},
		{
			name:       "Status 503",
			status:     http.StatusServiceUnavailable,
			body:       `{"error":"upstream busy"}`,
			opts:       []httpx.Option{httpx.WithName("travelpayouts")},
			wantLevel:  "WARN",
			wantStatus: http.StatusServiceUnavailable,
			check: func(rq *require.Assertions, _, resp string) {
				rq.Contains(resp, "HTTP/1.1 503 Service Unavailable")
				rq.Contains(resp, "upstream busy")
			},
		},
		{
			name:   "Status 200 (with log field size limit)",
			status: http.StatusOK,
			body:   pricesBody,
			opts: []httpx.Option{
				httpx.WithName("travelpayouts"),
				httpx.WithLogFieldMaxLen(10),
			},
			wantLevel:  "INFO",
			wantStatus: http.StatusOK,
			check: func(rq *require.Assertions, req, resp string) {
				rq.Equal("GET /v2/pr", req)
				rq.Equal("HTTP/1.1 2", resp)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			var buf bytes.Buffer

			ctx := contextx.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
			client := &http.Client{Transport: httpx.NewLoggingRoundTripper(http.DefaultTransport, tc.opts...)}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v2/prices/latest?origin=JFK&token=s3cret", http.NoBody)
			rq.NoError(err)

			resp, err := client.Do(req)
			rq.NoError(err)

			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			rq.NoError(err)
			rq.Equal(tc.body, string(body))

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			rq.Len(lines, 2)

			var request, response map[string]any

			rq.NoError(json.Unmarshal(lines[0], &request))
			rq.NoError(json.Unmarshal(lines[1], &response))

			const xidLen = 20

			rq.Len(request[logx.FieldRequestID], xidLen)
			rq.Equal(request[logx.FieldRequestID], response[logx.FieldRequestID])
			rq.Equal("travelpayouts", response[logx.FieldProvider])
			rq.Equal(tc.wantLevel, response["level"])
			rq.InDelta(tc.wantStatus, response[logx.FieldResponseStatus], 0)

			_, ok := response[logx.FieldDurationMs].(float64)
			rq.True(ok)

			tc.check(rq, request[logx.FieldRequestBody].(string), response[logx.FieldResponseBody].(string))
		})
	}
}

type tokens struct {
	issued []string
	calls  int
}

func (a *tokens) Authenticate(context.Context) error {
	a.calls++
	a.issued = append(a.issued, "tok-"+string(rune('0'+a.calls)))

	return nil
}

func (a *tokens) BearerToken() string {
	if len(a.issued) == 0 {
		return ""
	}

	return a.issued[len(a.issued)-1]
}

func TestAuthBearerRoundTripper(t *testing.T) {
	testCases := []struct {
		name      string
		rejectOld bool
		body      io.Reader
		wantAuth  int
		wantSeen  []string
		wantCode  int
	}{
		{
			name:     "First token accepted",
			wantAuth: 1,
			wantSeen: []string{"Bearer tok-1"},
			wantCode: http.StatusOK,
		},
		{
			name:      "Expired token refreshed once",
			rejectOld: true,
			body:      bytes.NewBufferString(`{"data":{"slices":[]}}`),
			wantAuth:  2,
			wantSeen:  []string{"Bearer tok-1", "Bearer tok-2"},
			wantCode:  http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			var (
				seen   []string
				bodies []string
			)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				bodies = append(bodies, string(b))
				seen = append(seen, r.Header.Get("Authorization"))

				if tc.rejectOld && r.Header.Get("Authorization") == "Bearer tok-1" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}

				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			auth := &tokens{}
			client := &http.Client{Transport: httpx.NewAuthBearerRoundTripper(http.DefaultTransport, auth)}

			body := tc.body
			if body == nil {
				body = http.NoBody
			}

			req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL, body)
			rq.NoError(err)

			resp, err := client.Do(req)
			rq.NoError(err)
			resp.Body.Close()

			rq.Equal(tc.wantCode, resp.StatusCode)
			rq.Equal(tc.wantAuth, auth.calls)
			rq.Equal(tc.wantSeen, seen)
			rq.Empty(req.Header.Get("Authorization"))

			for _, b := range bodies[1:] {
				rq.Equal(bodies[0], b)
			}
		})
	}
}
