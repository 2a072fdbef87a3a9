package middlewarex

import (
	"bytes"
	"cmp"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"strings"
	"time"

	"github.com/zenazn/goji/web/mutil"

	"fareglitch/pkg/logx"
)

// Logging logs the inbound request and the response it produced, both masked
// and cut to logFieldMaxLen. Server errors are logged at error level and
// client errors at warn level.
//
// The writer is wrapped with goji's mutil so optional interfaces such as
// http.Flusher survive:
// https://blog.merovius.de/posts/2017-07-30-the-trouble-with-optional-interfaces/
func Logging(masker logx.SensitiveDataMaskerInterface, logFieldMaxLen int) func(next http.Handler) http.Handler {
	field := func(b []byte) string {
		b = masker.Mask(b)
		if logFieldMaxLen > 0 && len(b) > logFieldMaxLen {
			b = b[:logFieldMaxLen]
		}

		return string(b)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()

			dumpBody := !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")

			dump, err := httputil.DumpRequest(r, dumpBody)
			if err != nil {
				logger(ctx).Error("httputil.DumpRequest", logx.Error(err))
			}

			logger(ctx).Info(logx.FieldHTTPRequest, slog.String(logx.FieldRequestBody, field(dump)))

			lw := mutil.WrapWriter(w)

			var body bytes.Buffer

			lw.Tee(&body)

			next.ServeHTTP(lw, r)

			var headers bytes.Buffer
			if err = w.Header().WriteSubset(&headers, nil); err != nil {
				logger(ctx).Error("header.WriteSubset", logx.Error(err))
			}

			// lw.Status() is 0 when the handler never called WriteHeader.
			status := cmp.Or(lw.Status(), http.StatusOK)

			level := slog.LevelInfo

			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			logger(ctx).Log(ctx, level, logx.FieldHTTPResponse,
				slog.Int(logx.FieldResponseStatus, status),
				slog.String(logx.FieldResponseHeaders, field(headers.Bytes())),
				slog.String(logx.FieldResponseBody, field(body.Bytes())),
				slog.Int64(logx.FieldDurationMs, time.Since(start).Milliseconds()),
			)
		})
	}
}
