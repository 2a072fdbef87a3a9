package reply

import (
	"context"
	"log/slog"
	"net/http"

	"git.appkode.ru/pub/go/failure"
	jsoniter "github.com/json-iterator/go"

	"fareglitch/pkg/contextx"
	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// ErrorBody is the JSON shape of every error response. SupportID carries
// the trace id so a caller can quote it back.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SupportID string `json:"supportId"`
}

type kind struct {
	is          func(error) bool
	status      int
	defaultCode failure.ErrorCode
}

//nolint:gochecknoglobals
var kinds = []kind{
	{is: failure.IsInvalidArgumentError, status: http.StatusBadRequest, defaultCode: errcodes.ValidationError},
	{is: failure.IsNotFoundError, status: http.StatusNotFound, defaultCode: errcodes.NotFound},
	{is: failure.IsUnauthorizedError, status: http.StatusUnauthorized, defaultCode: errcodes.AccessTokenInvalid},
	{is: failure.IsForbiddenError, status: http.StatusForbidden, defaultCode: errcodes.Forbidden},
	{is: failure.IsConflictError, status: http.StatusConflict},
	{is: failure.IsUnprocessableEntityError, status: http.StatusUnprocessableEntity, defaultCode: errcodes.ValidationError},
}

func JSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger(ctx).Error("json.Encode", logx.Error(err))
	}
}

// CodeError writes an error body with an explicit status and code.
func CodeError(ctx context.Context, w http.ResponseWriter, statusCode int, code failure.ErrorCode, message string) {
	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	logger(ctx).Log(ctx, level, "error",
		slog.String(logx.FieldErrorCode, code.String()),
		slog.String(logx.FieldError, message),
	)

	JSON(ctx, w, statusCode, ErrorBody{
		Code:      code.String(),
		Message:   message,
		SupportID: supportID(ctx),
	})
}

// Error maps a failure kind to its status. Anything unrecognised is a 500
// whose message is withheld from the caller.
func Error(ctx context.Context, w http.ResponseWriter, err error) {
	for _, k := range kinds {
		if !k.is(err) {
			continue
		}

		code := failure.Code(err)
		if code == "" {
			code = k.defaultCode
		}

		CodeError(ctx, w, k.status, code, failure.Description(err))

		return
	}

	logger(ctx).Error("unhandled error", logx.Error(err))
	CodeError(ctx, w, http.StatusInternalServerError, errcodes.InternalServerError, "internal error")
}

func supportID(ctx context.Context) string {
	traceID, err := contextx.TraceIDFromContext(ctx)
	if err != nil {
		return "unsupported"
	}

	return traceID.String()
}
