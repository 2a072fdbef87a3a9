package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"fareglitch/internal/domain/value"
)

// Classification is the outcome of comparing a price with its baseline.
type Classification struct {
	SavingsAmount decimal.Decimal
	SavingsPct    decimal.Decimal
	Tier          value.Tier
	// Qualifies is true when both the percentage and the absolute savings
	// thresholds pass.
	Qualifies bool
}

// Candidate lives for one scan pass and is never persisted on its own.
type Candidate struct {
	Quote          PriceQuote
	BaselinePrice  decimal.Decimal
	Classification Classification
}

type LiveOffer struct {
	OfferID       string
	Price         decimal.Decimal
	Currency      value.Currency
	Airline       string
	Cabin         value.CabinClass
	DepartureDate time.Time
	ReturnDate    *time.Time
	Source        string
}

// VerifiedCandidate is a candidate whose live price still qualifies.
type VerifiedCandidate struct {
	Candidate Candidate
	Offer     LiveOffer
	Live      Classification
}

// LiveQuery asks a live provider for bookable offers.
type LiveQuery struct {
	Route         value.Route
	Cabin         value.CabinClass
	DepartureDate time.Time
	ReturnDate    *time.Time
	Adults        int
}
