package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/rs/xid"

	"fareglitch/pkg/logx"
)

// LoggingRoundTripper dumps outbound requests and responses through the
// context logger. Dumps are masked and truncated before they are logged.
// Non-2xx responses and transport failures are logged at warn level.
type LoggingRoundTripper struct {
	next           http.RoundTripper
	name           string
	masker         logx.SensitiveDataMaskerInterface
	logFieldMaxLen int
}

func NewLoggingRoundTripper(next http.RoundTripper, opts ...Option) LoggingRoundTripper {
	rt := LoggingRoundTripper{
		next:   next,
		masker: logx.NewNopSensitiveDataMasker(),
	}

	for _, opt := range opts {
		opt(&rt)
	}

	return rt
}

func (rt LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	log := logger(ctx).With(slog.String(logx.FieldRequestID, xid.New().String()))

	if rt.name != "" {
		log = log.With(slog.String(logx.FieldProvider, rt.name))
	}

	reqBytes, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		log.Error("httputil.DumpRequestOut", logx.Error(err))
	}

	log.Info(logx.FieldHTTPRequest, slog.String(logx.FieldRequestBody, rt.field(reqBytes)))

	start := time.Now()

	resp, err := rt.next.RoundTrip(req)
	if err != nil {
		log.Warn(logx.FieldHTTPResponse,
			slog.Int64(logx.FieldDurationMs, time.Since(start).Milliseconds()),
			logx.Error(err),
		)

		return nil, fmt.Errorf("next.RoundTrip: %w", err)
	}

	respBytes, err := httputil.DumpResponse(resp, true)
	if err != nil {
		log.Error("httputil.DumpResponse", logx.Error(err))
	}

	level := slog.LevelInfo
	if resp.StatusCode >= http.StatusBadRequest {
		level = slog.LevelWarn
	}

	log.Log(ctx, level, logx.FieldHTTPResponse,
		slog.Int(logx.FieldResponseStatus, resp.StatusCode),
		slog.String(logx.FieldResponseBody, rt.field(respBytes)),
		slog.Int64(logx.FieldDurationMs, time.Since(start).Milliseconds()),
	)

	return resp, nil
}

// field masks the dump first and truncates it after.
func (rt LoggingRoundTripper) field(dump []byte) string {
	dump = rt.masker.Mask(dump)

	if rt.logFieldMaxLen > 0 && len(dump) > rt.logFieldMaxLen {
		dump = dump[:rt.logFieldMaxLen]
	}

	return string(dump)
}
