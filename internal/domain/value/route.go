package value

import (
	"strings"

	"fareglitch/internal/domain"
	"fareglitch/pkg/errcodes"
)

const iataCodeLen = 3

// Route is an origin/destination IATA pair. It is a grouping key only.
type Route struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

func NewRoute(origin, destination string) (Route, error) {
	o, err := ParseAirportCode(origin)
	if err != nil {
		return Route{}, err
	}

	d, err := ParseAirportCode(destination)
	if err != nil {
		return Route{}, err
	}

	if o == d {
		return Route{}, domain.NewError(errcodes.InvalidRoute, "origin and destination must differ")
	}

	return Route{Origin: o, Destination: d}, nil
}

// ParseRoute accepts "JFK-NRT".
func ParseRoute(s string) (Route, error) {
	origin, destination, ok := strings.Cut(s, "-")
	if !ok {
		return Route{}, domain.Errorf(errcodes.InvalidRoute, "invalid route %q", s)
	}

	return NewRoute(origin, destination)
}

func (r Route) String() string {
	return r.Origin + "-" + r.Destination
}

func (r Route) Description() string {
	return r.Origin + " → " + r.Destination
}

func ParseAirportCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	if len(code) != iataCodeLen {
		return "", domain.Errorf(errcodes.InvalidAirportCode, "invalid airport code %q", code)
	}

	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return "", domain.Errorf(errcodes.InvalidAirportCode, "invalid airport code %q", code)
		}
	}

	return code, nil
}
