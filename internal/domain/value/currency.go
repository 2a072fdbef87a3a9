package value

import (
	"strings"

	"fareglitch/internal/domain"
	"fareglitch/pkg/errcodes"
)

type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
)

func ParseCurrency(s string) (Currency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 { //nolint:mnd
		return "", domain.Errorf(errcodes.InvalidCurrency, "invalid currency %q", s)
	}

	return Currency(s), nil
}

func (c Currency) String() string {
	return string(c)
}

//nolint:gochecknoglobals
var airportCurrency = map[string]Currency{
	// United Kingdom.
	"LHR": GBP, "LGW": GBP, "STN": GBP, "LTN": GBP, "MAN": GBP, "EDI": GBP, "BHX": GBP, "GLA": GBP,
	// Euro area.
	"CDG": EUR, "ORY": EUR, "NCE": EUR, "FRA": EUR, "MUC": EUR, "BER": EUR, "DUS": EUR, "HAM": EUR,
	"AMS": EUR, "MAD": EUR, "BCN": EUR, "FCO": EUR, "MXP": EUR, "VCE": EUR, "LIS": EUR, "OPO": EUR,
	"DUB": EUR, "BRU": EUR, "VIE": EUR, "ATH": EUR, "HEL": EUR,
	// Asia-Pacific.
	"NRT": JPY, "HND": JPY, "KIX": JPY,
	"ICN": "KRW", "GMP": "KRW",
	"HKG": "HKD",
	"SIN": "SGD",
	"SYD": "AUD", "MEL": "AUD", "BNE": "AUD",
	"AKL": "NZD",
	"BKK": "THB",
	"DXB": "AED",
	// Americas.
	"YYZ": "CAD", "YVR": "CAD", "YUL": "CAD",
	"MEX": "MXN", "CUN": "MXN",
	"GRU": "BRL",
	// Europe outside the euro area.
	"ZRH": "CHF", "GVA": "CHF",
	"CPH": "DKK", "ARN": "SEK", "OSL": "NOK",
}

// CurrencyForAirport returns the natural pricing currency of an origin
// airport. Unknown airports price in USD.
func CurrencyForAirport(iata string) Currency {
	if c, ok := airportCurrency[strings.ToUpper(iata)]; ok {
		return c
	}

	return USD
}
