package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/errcodes"
)

type Deal struct {
	DealNumber    string
	ScanID        string
	Route         value.Route
	Cabin         value.CabinClass
	Airline       string
	Tier          value.Tier
	NormalPrice   decimal.Decimal
	MistakePrice  decimal.Decimal
	SavingsAmount decimal.Decimal
	SavingsPct    decimal.Decimal
	Currency      value.Currency
	Status        value.DealStatus
	DepartureDate *time.Time
	ReturnDate    *time.Time
	DetectedAt    time.Time
	ValidatedAt   *time.Time
	PublishedAt   *time.Time
	ExpiresAt     *time.Time
	BookingLink   string
	UnlockFee     decimal.Decimal
	TotalUnlocks  int
	TotalRevenue  decimal.Decimal
}

func (d Deal) IsExpired(now time.Time) bool {
	return d.ExpiresAt != nil && now.After(*d.ExpiresAt)
}

// EffectiveStatus derives EXPIRED at read time for published deals past
// their expiry.
func (d Deal) EffectiveStatus(now time.Time) value.DealStatus {
	if d.Status == value.DealStatusPublished && d.IsExpired(now) {
		return value.DealStatusExpired
	}

	return d.Status
}

// IsLive reports whether the deal belongs in the feed at all.
func (d Deal) IsLive(now time.Time) bool {
	return d.EffectiveStatus(now) == value.DealStatusPublished && d.PublishedAt != nil
}

func (d *Deal) Validate(now time.Time, ttl time.Duration) error {
	if err := d.transition(value.DealStatusValidated); err != nil {
		return err
	}

	expiresAt := now.Add(ttl)

	d.ValidatedAt = &now
	d.ExpiresAt = &expiresAt

	return nil
}

// Publish releases the deal to the feed. The expiry window restarts at
// publication so that expires_at is always after published_at. A deal whose
// validation window has already passed cannot be published.
func (d *Deal) Publish(now time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return domain.NewError(errcodes.InvalidDealStatus, "publish requires a positive expiry window")
	}

	if d.IsExpired(now) {
		return domain.Errorf(errcodes.DealExpired, "deal %s expired before publication", d.DealNumber)
	}

	if err := d.transition(value.DealStatusPublished); err != nil {
		return err
	}

	expiresAt := now.Add(ttl)

	d.PublishedAt = &now
	d.ExpiresAt = &expiresAt

	return nil
}

func (d *Deal) Cancel(now time.Time) error {
	if d.IsExpired(now) {
		return domain.Errorf(errcodes.DealExpired, "deal %s already expired", d.DealNumber)
	}

	return d.transition(value.DealStatusCanceled)
}

func (d *Deal) RecordUnlock() {
	d.TotalUnlocks++
	d.TotalRevenue = d.TotalRevenue.Add(d.UnlockFee)
}

func (d *Deal) transition(next value.DealStatus) error {
	if !d.Status.CanTransitionTo(next) {
		return domain.NewError(
			errcodes.InvalidDealStatus,
			fmt.Sprintf("deal %s cannot move from %s to %s", d.DealNumber, d.Status, next),
		)
	}

	d.Status = next

	return nil
}

func (d Deal) TeaserHeadline() string {
	return fmt.Sprintf("%s: %s", d.Tier.Label(), d.Route.Description())
}

// SavingsPercent is the savings share expressed in percent, rounded to one
// decimal place.
func (d Deal) SavingsPercent() decimal.Decimal {
	return d.SavingsPct.Mul(decimal.NewFromInt(100)).Round(1) //nolint:mnd
}

// DealSummary is what a scan trigger reports for each materialized deal.
type DealSummary struct {
	DealNumber    string
	Route         value.Route
	Tier          value.Tier
	Status        value.DealStatus
	NormalPrice   decimal.Decimal
	MistakePrice  decimal.Decimal
	SavingsAmount decimal.Decimal
	SavingsPct    decimal.Decimal
	Currency      value.Currency
	ExpiresAt     *time.Time
}

func (d Deal) Summary() DealSummary {
	return DealSummary{
		DealNumber:    d.DealNumber,
		Route:         d.Route,
		Tier:          d.Tier,
		Status:        d.Status,
		NormalPrice:   d.NormalPrice,
		MistakePrice:  d.MistakePrice,
		SavingsAmount: d.SavingsAmount,
		SavingsPct:    d.SavingsPct,
		Currency:      d.Currency,
		ExpiresAt:     d.ExpiresAt,
	}
}

// DealTeaser is the feed view of a deal. Prices and the booking link stay
// behind the lookup.
type DealTeaser struct {
	DealNumber       string
	Route            value.Route
	RouteDescription string
	Headline         string
	Tier             value.Tier
	Cabin            value.CabinClass
	SavingsPercent   decimal.Decimal
	Currency         value.Currency
	PublishedAt      *time.Time
	ExpiresAt        *time.Time
	UnlockFee        decimal.Decimal
}

func (d Deal) Teaser() DealTeaser {
	return DealTeaser{
		DealNumber:       d.DealNumber,
		Route:            d.Route,
		RouteDescription: d.Route.Description(),
		Headline:         d.TeaserHeadline(),
		Tier:             d.Tier,
		Cabin:            d.Cabin,
		SavingsPercent:   d.SavingsPercent(),
		Currency:         d.Currency,
		PublishedAt:      d.PublishedAt,
		ExpiresAt:        d.ExpiresAt,
		UnlockFee:        d.UnlockFee,
	}
}
