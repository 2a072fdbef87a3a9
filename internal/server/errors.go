package server

import (
	"context"
	"net/http"

	"git.appkode.ru/pub/go/failure"

	"fareglitch/internal/domain"
	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/httpx/reply"
	"fareglitch/pkg/logx"
)

//nolint:gochecknoglobals
var codeStatus = map[failure.ErrorCode]int{
	errcodes.NotFound:           http.StatusNotFound,
	errcodes.DealNotFound:       http.StatusNotFound,
	errcodes.SubscriberNotFound: http.StatusNotFound,
	errcodes.DealExpired:        http.StatusGone,
	errcodes.DealNotVisible:     http.StatusForbidden,
	errcodes.Forbidden:          http.StatusForbidden,
	errcodes.AccessTokenInvalid: http.StatusUnauthorized,

	errcodes.ScanInProgress:           http.StatusConflict,
	errcodes.RouteAlreadyMaterialized: http.StatusConflict,
	errcodes.DuplicateDealNumber:      http.StatusConflict,
	errcodes.InvalidDealStatus:        http.StatusConflict,
	errcodes.BudgetExhausted:          http.StatusTooManyRequests,

	errcodes.ValidationError:         http.StatusBadRequest,
	errcodes.InvalidPaging:           http.StatusBadRequest,
	errcodes.InvalidDealNumber:       http.StatusBadRequest,
	errcodes.InvalidRoute:            http.StatusBadRequest,
	errcodes.InvalidAirportCode:      http.StatusBadRequest,
	errcodes.InvalidCabinClass:       http.StatusBadRequest,
	errcodes.InvalidCurrency:         http.StatusBadRequest,
	errcodes.InvalidPrice:            http.StatusBadRequest,
	errcodes.InvalidSubscriptionType: http.StatusBadRequest,

	errcodes.ProviderUnavailable: http.StatusBadGateway,
}

// writeError maps domain codes to statuses and leaves everything else to
// reply.Error.
// Only the AppError message reaches the caller; wrapped causes are logged.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code, ok := domain.GetCode(err)
	if !ok {
		reply.Error(ctx, w, err)
		return
	}

	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logger(ctx).Error("request failed", logx.Error(err))
	}

	reply.CodeError(ctx, w, status, code, domain.MessageOf(err, "internal error"))
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			writeError(r.Context(), w, err)
		}
	}
}
