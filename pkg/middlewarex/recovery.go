package middlewarex

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/httpx/reply"
	"fareglitch/pkg/logx"
)

// Recovery turns a handler panic into a JSON 500 carrying the support id.
// http.ErrAbortHandler is re-raised so the server aborts the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			logger(ctx).Error(
				"panic in handler",
				slog.Any(logx.FieldError, rec),
				slog.String(logx.FieldStack, string(debug.Stack())),
			)

			reply.CodeError(ctx, w, http.StatusInternalServerError, errcodes.InternalServerError, "internal error")
		}()

		next.ServeHTTP(w, r)
	})
}
