package value_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/errcodes"
)

func TestNewRoute(t *testing.T) {
	rq := require.New(t)

	testCases := []struct {
		name        string
		origin      string
		destination string
		want        string
		code        string
	}{
		{name: "Valid", origin: "JFK", destination: "NRT", want: "JFK-NRT"},
		{name: "Lowercase normalized", origin: "lax", destination: " cdg ", want: "LAX-CDG"},
		{name: "Too long", origin: "JFKX", destination: "NRT", code: errcodes.InvalidAirportCode.String()},
		{name: "Digits", origin: "J1K", destination: "NRT", code: errcodes.InvalidAirportCode.String()},
		{name: "Same airport", origin: "JFK", destination: "jfk", code: errcodes.InvalidRoute.String()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			route, err := value.NewRoute(tc.origin, tc.destination)
			if tc.code != "" {
				code, ok := domain.GetCode(err)
				rq.True(ok)
				rq.Equal(tc.code, code.String())

				return
			}

			rq.NoError(err)
			rq.Equal(tc.want, route.String())
		})
	}
}

func TestParseRoute(t *testing.T) {
	rq := require.New(t)

	route, err := value.ParseRoute("jfk-nrt")
	rq.NoError(err)
	rq.Equal(value.Route{Origin: "JFK", Destination: "NRT"}, route)
	rq.Equal("JFK → NRT", route.Description())

	_, err = value.ParseRoute("JFKNRT")
	rq.Error(err)
}

func TestDealStatusTransitions(t *testing.T) {
	rq := require.New(t)

	rq.True(value.DealStatusDetected.CanTransitionTo(value.DealStatusValidated))
	rq.True(value.DealStatusValidated.CanTransitionTo(value.DealStatusPublished))
	rq.True(value.DealStatusPublished.CanTransitionTo(value.DealStatusExpired))
	rq.True(value.DealStatusPublished.CanTransitionTo(value.DealStatusCanceled))

	rq.False(value.DealStatusDetected.CanTransitionTo(value.DealStatusPublished))
	rq.False(value.DealStatusPublished.CanTransitionTo(value.DealStatusValidated))
	rq.False(value.DealStatusCanceled.CanTransitionTo(value.DealStatusPublished))
	rq.False(value.DealStatusExpired.CanTransitionTo(value.DealStatusCanceled))
}

func TestCabinMultipliers(t *testing.T) {
	rq := require.New(t)

	m := value.DefaultCabinMultipliers()

	rq.True(decimal.NewFromFloat(3.5).Equal(m.For(value.CabinBusiness)))
	rq.True(decimal.NewFromInt(5).Equal(m.For(value.CabinFirst)))
	rq.True(decimal.NewFromInt(1).Equal(m.For(value.CabinClass("unknown"))))

	cabin, err := value.ParseCabinClass("")
	rq.NoError(err)
	rq.Equal(value.CabinEconomy, cabin)

	_, err = value.ParseCabinClass("steerage")
	rq.Error(err)
}

func TestCurrencyForAirport(t *testing.T) {
	rq := require.New(t)

	rq.Equal(value.USD, value.CurrencyForAirport("JFK"))
	rq.Equal(value.GBP, value.CurrencyForAirport("lhr"))
	rq.Equal(value.EUR, value.CurrencyForAirport("CDG"))
	rq.Equal(value.JPY, value.CurrencyForAirport("NRT"))
	rq.Equal(value.Currency("KRW"), value.CurrencyForAirport("ICN"))
}

func TestTier(t *testing.T) {
	rq := require.New(t)

	rq.Equal("MF", value.TierMistakeFare.DealNumberPrefix())
	rq.Equal("VD", value.TierGoodDeal.DealNumberPrefix())
	rq.False(value.TierNone.IsDeal())
	rq.True(value.TierGoodDeal.IsDeal())
}

func TestParseDealNumber(t *testing.T) {
	rq := require.New(t)

	testCases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "MF001", want: "MF001"},
		{in: " vd1024 ", want: "VD1024"},
		{in: "MF01", wantErr: true},
		{in: "XX001", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(*testing.T) {
			got, err := value.ParseDealNumber(tc.in)
			if tc.wantErr {
				rq.Error(err)
				return
			}

			rq.NoError(err)
			rq.Equal(tc.want, got)
		})
	}
}
