package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"fareglitch/internal/domain/value"
)

// PriceQuote is the single shape every pricing provider adapter produces.
type PriceQuote struct {
	Route         value.Route
	Cabin         value.CabinClass
	DepartureDate *time.Time
	ReturnDate    *time.Time
	Price         decimal.Decimal
	Currency      value.Currency
	Source        string
	ObservedAt    time.Time
}

func (q PriceQuote) Observation() PriceObservation {
	return PriceObservation{
		Route:      q.Route,
		Cabin:      q.Cabin,
		Price:      q.Price,
		Currency:   q.Currency,
		Source:     q.Source,
		ObservedAt: q.ObservedAt,
	}
}

// PriceObservation is an append-only history row used for baselines.
type PriceObservation struct {
	ID         int64
	Route      value.Route
	Cabin      value.CabinClass
	Price      decimal.Decimal
	Currency   value.Currency
	Source     string
	ObservedAt time.Time
}
