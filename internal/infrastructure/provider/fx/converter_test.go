package fx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/value"
	"fareglitch/internal/infrastructure/provider/fx"
	"fareglitch/pkg/errcodes"
)

func newServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		switch r.URL.Path {
		case "/v4/latest/EUR":
			_, _ = w.Write([]byte(`{"base":"EUR","rates":{"EUR":1,"USD":1.1,"GBP":0.85}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":"error"}`))
		}
	}))
}

func TestConverter_Convert(t *testing.T) {
	var calls atomic.Int32

	srv := newServer(t, &calls)
	defer srv.Close()

	converter := fx.NewConverter(fx.Config{BaseURL: srv.URL})

	cases := []struct {
		name     string
		amount   decimal.Decimal
		from     value.Currency
		to       value.Currency
		expected decimal.Decimal
		code     string
	}{
		{name: "same currency", amount: decimal.NewFromInt(100), from: value.USD, to: value.USD, expected: decimal.NewFromInt(100)},
		{name: "eur to usd", amount: decimal.NewFromInt(200), from: value.EUR, to: value.USD, expected: decimal.NewFromInt(220)},
		{name: "eur to gbp", amount: decimal.RequireFromString("10.01"), from: value.EUR, to: value.GBP, expected: decimal.RequireFromString("8.51")},
		{name: "unknown target", amount: decimal.NewFromInt(1), from: value.EUR, to: value.JPY, code: string(errcodes.CurrencyConversionFailed)},
		{name: "unknown base", amount: decimal.NewFromInt(1), from: "XXX", to: value.USD, code: string(errcodes.CurrencyConversionFailed)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			got, err := converter.Convert(context.Background(), tc.amount, tc.from, tc.to)
			if tc.code != "" {
				rq.Error(err)

				code, ok := domain.GetCode(err)
				rq.True(ok)
				rq.Equal(tc.code, string(code))

				return
			}

			rq.NoError(err)
			rq.True(tc.expected.Equal(got), "got %s", got)
		})
	}

	// EUR table fetched once, XXX attempted once.
	require.Equal(t, int32(2), calls.Load())
}
