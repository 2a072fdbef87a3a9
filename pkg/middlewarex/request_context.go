package middlewarex

import (
	"log/slog"
	"net"
	"net/http"
	"regexp"

	"github.com/rs/xid"

	"fareglitch/pkg/contextx"
	"fareglitch/pkg/logx"
)

const HeaderTraceID = "X-Trace-Id"

// validTraceID bounds what a caller may inject into our logs.
var validTraceID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`) //nolint:gochecknoglobals

// RequestContext assigns the trace id (reusing a well-formed X-Trace-Id from
// the caller), echoes it back and stores a request-scoped logger carrying the
// trace id, url, method and client ip.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(HeaderTraceID)
		if !validTraceID.MatchString(traceID) {
			traceID = xid.New().String()
		}

		w.Header().Set(HeaderTraceID, traceID)

		ctx := contextx.WithTraceID(r.Context(), contextx.TraceID(traceID))
		ctx = contextx.WithLogger(ctx, logger(ctx).With(
			slog.String(logx.FieldTraceID, traceID),
			slog.String(logx.FieldURL, r.URL.String()),
			slog.String(logx.FieldHTTPMethod, r.Method),
			slog.String(logx.FieldIP, clientIP(r)),
		))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
