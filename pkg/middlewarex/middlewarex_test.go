package middlewarex_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"fareglitch/pkg/contextx"
	"fareglitch/pkg/logx"
	"fareglitch/pkg/middlewarex"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

func chain(h http.Handler, logs *bytes.Buffer) http.Handler {
	h = middlewarex.Recovery(h)
	h = middlewarex.Logging(logx.NewSensitiveDataMasker(), 4096)(h)
	h = middlewarex.RequestContext(h)

	base := slog.New(slog.NewJSONHandler(logs, nil))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r.WithContext(contextx.WithLogger(r.Context(), base)))
	})
}

func logLines(rq *require.Assertions, logs *bytes.Buffer) []map[string]any {
	var out []map[string]any

	for _, line := range bytes.Split(bytes.TrimSpace(logs.Bytes()), []byte("\n")) {
		var m map[string]any
		rq.NoError(json.Unmarshal(line, &m))
		out = append(out, m)
	}

	return out
}

func TestRequestContextTraceID(t *testing.T) {
	testCases := []struct {
		name     string
		incoming string
		reused   bool
	}{
		{name: "Generated", incoming: "", reused: false},
		{name: "Reused", incoming: "ops-replay-42", reused: true},
		{name: "Rejected", incoming: "bad id\nwith newline", reused: false},
		{name: "Too long", incoming: strings.Repeat("a", 65), reused: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			var (
				logs    bytes.Buffer
				inCtxID contextx.TraceID
			)

			h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, err := contextx.TraceIDFromContext(r.Context())
				rq.NoError(err)

				inCtxID = id

				w.WriteHeader(http.StatusNoContent)
			}), &logs)

			req := httptest.NewRequest(http.MethodGet, "/v1/deals", http.NoBody)
			if tc.incoming != "" {
				req.Header.Set(middlewarex.HeaderTraceID, tc.incoming)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			echoed := rec.Header().Get(middlewarex.HeaderTraceID)
			rq.Equal(inCtxID.String(), echoed)

			if tc.reused {
				rq.Equal(tc.incoming, echoed)
			} else {
				rq.NotEqual(tc.incoming, echoed)
				rq.Len(echoed, 20)
			}

			for _, line := range logLines(rq, &logs) {
				rq.Equal(echoed, line[logx.FieldTraceID])
				rq.Equal("/v1/deals", line[logx.FieldURL])
				rq.Equal(http.MethodGet, line[logx.FieldHTTPMethod])
			}
		})
	}
}

func TestLogging(t *testing.T) {
	testCases := []struct {
		name      string
		handler   http.HandlerFunc
		wantCode  int
		wantLevel string
		check     func(rq *require.Assertions, req, resp string)
	}{
		{
			name: "Success is masked",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"s1","email":"jane@example.com"}`))
			},
			wantCode:  http.StatusOK,
			wantLevel: "INFO",
			check: func(rq *require.Assertions, req, resp string) {
				rq.Contains(req, "Authorization: Bearer [MASKED]")
				rq.Contains(resp, `"email":"[MASKED]"`)
			},
		},
		{
			name: "Client error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusGone)
			},
			wantCode:  http.StatusGone,
			wantLevel: "WARN",
		},
		{
			name: "Panic recovered",
			handler: func(http.ResponseWriter, *http.Request) {
				panic("boom")
			},
			wantCode:  http.StatusInternalServerError,
			wantLevel: "ERROR",
			check: func(rq *require.Assertions, _, resp string) {
				rq.Contains(resp, `"code":"InternalServerError"`)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			var logs bytes.Buffer

			req := httptest.NewRequestWithContext(
				context.Background(),
				http.MethodPost,
				"/v1/admin/subscribers",
				strings.NewReader(`{"email":"jane@example.com"}`),
			)
			req.Header.Set("Authorization", "Bearer admin-secret")

			rec := httptest.NewRecorder()
			chain(tc.handler, &logs).ServeHTTP(rec, req)

			rq.Equal(tc.wantCode, rec.Code)

			lines := logLines(rq, &logs)

			var request, response map[string]any

			for _, line := range lines {
				switch line["msg"] {
				case logx.FieldHTTPRequest:
					request = line
				case logx.FieldHTTPResponse:
					response = line
				}
			}

			rq.NotNil(request)
			rq.NotNil(response)
			rq.Equal(tc.wantLevel, response["level"])
			rq.InDelta(float64(tc.wantCode), response[logx.FieldResponseStatus], 0)
			rq.NotContains(request[logx.FieldRequestBody], "admin-secret")

			if tc.check != nil {
				tc.check(rq, request[logx.FieldRequestBody].(string), response[logx.FieldResponseBody].(string))
			}
		})
	}
}
