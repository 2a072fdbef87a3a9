package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/contextx"
	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// LiveProvider queries bookable inventory.
type LiveProvider interface {
	Name() string
	LiveOffers(ctx context.Context, query entity.LiveQuery) ([]entity.LiveOffer, error)
}

// Limiter spaces successive live calls.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Converter turns a live offer into the currency a deal was priced in.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to value.Currency) (decimal.Decimal, error)
}

type Verifier struct {
	provider  LiveProvider
	limiter   Limiter
	converter Converter
	tolerance decimal.Decimal
}

func NewVerifier(provider LiveProvider, limiter Limiter) *Verifier {
	return &Verifier{
		provider:  provider,
		limiter:   limiter,
		tolerance: decimal.NewFromFloat(0.15),
	}
}

func (v *Verifier) WithTolerance(tolerance decimal.Decimal) *Verifier {
	v.tolerance = tolerance
	return v
}

func (v *Verifier) WithConverter(converter Converter) *Verifier {
	v.converter = converter
	return v
}

// Verify returns the cheapest live offer, or nil when nothing is bookable.
func (v *Verifier) Verify(ctx context.Context, query entity.LiveQuery) (*entity.LiveOffer, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	offers, err := v.provider.LiveOffers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s.LiveOffers: %w", v.provider.Name(), err)
	}

	offer := Cheapest(offers)
	if offer == nil {
		logger(ctx).Debug("no live offers",
			slog.String(logx.FieldRoute, query.Route.String()),
			slog.String(logx.FieldProvider, v.provider.Name()),
		)
	}

	return offer, nil
}

// SamplePrice prices one forward date for baseline bootstrapping.
func (v *Verifier) SamplePrice(
	ctx context.Context,
	route value.Route,
	cabin value.CabinClass,
	departure time.Time,
	ret time.Time,
) (*entity.PriceQuote, error) {
	offer, err := v.Verify(ctx, entity.LiveQuery{
		Route:         route,
		Cabin:         cabin,
		DepartureDate: departure,
		ReturnDate:    &ret,
	})
	if err != nil || offer == nil {
		return nil, err
	}

	return &entity.PriceQuote{
		Route:         route,
		Cabin:         offer.Cabin,
		DepartureDate: &offer.DepartureDate,
		ReturnDate:    offer.ReturnDate,
		Price:         offer.Price,
		Currency:      offer.Currency,
		Source:        offer.Source,
		ObservedAt:    time.Now(),
	}, nil
}

// StillHolds reports whether live is within the tolerance band around
// expected.
func (v *Verifier) StillHolds(expected, live decimal.Decimal) bool {
	if !expected.IsPositive() {
		return false
	}

	band := expected.Mul(v.tolerance)

	return live.GreaterThanOrEqual(expected.Sub(band)) && live.LessThanOrEqual(expected.Add(band))
}

// RecheckResult describes whether a published deal is still bookable.
type RecheckResult struct {
	Holds bool
	Offer *entity.LiveOffer
}

// Recheck re-queries a deal's route and compares against its mistake price.
// Offers in another currency are converted first; a failed conversion is an
// error rather than a verdict. The deal itself is not modified.
func (v *Verifier) Recheck(ctx context.Context, deal entity.Deal) (RecheckResult, error) {
	departure := time.Now().Add(14 * 24 * time.Hour) //nolint:mnd
	if deal.DepartureDate != nil {
		departure = *deal.DepartureDate
	}

	offer, err := v.Verify(ctx, entity.LiveQuery{
		Route:         deal.Route,
		Cabin:         deal.Cabin,
		DepartureDate: departure,
		ReturnDate:    deal.ReturnDate,
	})
	if err != nil {
		return RecheckResult{}, err
	}

	if offer == nil {
		return RecheckResult{}, nil
	}

	if offer.Currency != deal.Currency {
		price, err := v.convert(ctx, offer.Price, offer.Currency, deal.Currency)
		if err != nil {
			return RecheckResult{Offer: offer}, err
		}

		offer.Price = price
		offer.Currency = deal.Currency
	}

	return RecheckResult{Holds: v.StillHolds(deal.MistakePrice, offer.Price), Offer: offer}, nil
}

func (v *Verifier) convert(ctx context.Context, amount decimal.Decimal, from, to value.Currency) (decimal.Decimal, error) {
	if v.converter == nil {
		return amount, domain.NewError(
			errcodes.CurrencyConversionFailed,
			fmt.Sprintf("no converter for %s to %s", from, to),
		)
	}

	converted, err := v.converter.Convert(ctx, amount, from, to)
	if err != nil {
		return amount, domain.WrapError(err, errcodes.CurrencyConversionFailed, fmt.Sprintf("convert %s to %s", from, to))
	}

	return converted.Round(2), nil //nolint:mnd
}

func Cheapest(offers []entity.LiveOffer) *entity.LiveOffer {
	var best *entity.LiveOffer

	for i := range offers {
		if !offers[i].Price.IsPositive() {
			continue
		}

		if best == nil || offers[i].Price.LessThan(best.Price) {
			best = &offers[i]
		}
	}

	return best
}
