package dealfactory

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/errcodes"
)

const DefaultBookingLinkBase = "https://www.google.com/travel/flights"

type Sequence interface {
	NextDealSequence(ctx context.Context) (int64, error)
}

// ExpiryPolicy yields the expiry window of a tier.
type ExpiryPolicy interface {
	ExpiryFor(tier value.Tier) (time.Duration, bool)
}

type Factory struct {
	seq         Sequence
	expiry      ExpiryPolicy
	unlockFee   decimal.Decimal
	bookingBase string
	now         func() time.Time
}

func NewFactory(seq Sequence, expiry ExpiryPolicy) *Factory {
	return &Factory{
		seq:         seq,
		expiry:      expiry,
		unlockFee:   decimal.Zero,
		bookingBase: DefaultBookingLinkBase,
		now:         time.Now,
	}
}

func (f *Factory) WithUnlockFee(fee decimal.Decimal) *Factory {
	f.unlockFee = fee
	return f
}

func (f *Factory) WithBookingLinkBase(base string) *Factory {
	if base != "" {
		f.bookingBase = base
	}

	return f
}

func (f *Factory) WithClock(now func() time.Time) *Factory {
	f.now = now
	return f
}

// Batch remembers the routes materialized during one scan pass.
type Batch struct {
	mu   sync.Mutex
	seen map[batchKey]string
}

type batchKey struct {
	route value.Route
	cabin value.CabinClass
}

func NewBatch() *Batch {
	return &Batch{seen: make(map[batchKey]string)}
}

func (b *Batch) claim(route value.Route, cabin value.CabinClass) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := batchKey{route: route, cabin: cabin}
	if existing, ok := b.seen[k]; ok {
		return existing, false
	}

	b.seen[k] = ""

	return "", true
}

func (b *Batch) assign(route value.Route, cabin value.CabinClass, number string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seen[batchKey{route: route, cabin: cabin}] = number
}

func (b *Batch) release(route value.Route, cabin value.CabinClass) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.seen, batchKey{route: route, cabin: cabin})
}

func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.seen)
}

// Materialize turns a verified candidate into a validated deal, and a
// published one when publish is set. A route already materialized in the
// batch yields RouteAlreadyMaterialized.
func (f *Factory) Materialize(
	ctx context.Context,
	batch *Batch,
	scanID string,
	vc entity.VerifiedCandidate,
	publish bool,
) (entity.Deal, error) {
	route := vc.Candidate.Quote.Route
	cabin := vc.Offer.Cabin

	if cabin == "" {
		cabin = vc.Candidate.Quote.Cabin
	}

	if existing, ok := batch.claim(route, cabin); !ok {
		return entity.Deal{}, domain.NewError(
			errcodes.RouteAlreadyMaterialized,
			fmt.Sprintf("route %s already materialized as %s", route, existing),
		)
	}

	live := vc.Live
	if !live.Qualifies || live.SavingsAmount.IsNegative() {
		batch.release(route, cabin)
		return entity.Deal{}, domain.Errorf(errcodes.InvalidPrice, "route %s does not qualify", route)
	}

	ttl, ok := f.expiry.ExpiryFor(live.Tier)
	if !ok {
		batch.release(route, cabin)
		return entity.Deal{}, domain.Errorf(errcodes.InvalidDealStatus, "no expiry for tier %s", live.Tier)
	}

	seq, err := f.seq.NextDealSequence(ctx)
	if err != nil {
		batch.release(route, cabin)
		return entity.Deal{}, fmt.Errorf("seq.NextDealSequence: %w", err)
	}

	now := f.now()
	departure := vc.Offer.DepartureDate

	deal := entity.Deal{
		DealNumber:    FormatDealNumber(live.Tier, seq),
		ScanID:        scanID,
		Route:         route,
		Cabin:         cabin,
		Airline:       vc.Offer.Airline,
		Tier:          live.Tier,
		NormalPrice:   vc.Candidate.BaselinePrice,
		MistakePrice:  vc.Offer.Price,
		SavingsAmount: live.SavingsAmount,
		SavingsPct:    live.SavingsPct,
		Currency:      vc.Offer.Currency,
		Status:        value.DealStatusDetected,
		DetectedAt:    now,
		ReturnDate:    vc.Offer.ReturnDate,
		UnlockFee:     f.unlockFee,
		TotalRevenue:  decimal.Zero,
	}

	if !departure.IsZero() {
		deal.DepartureDate = &departure
	}

	deal.BookingLink = f.BookingLink(route, deal.DepartureDate, deal.ReturnDate)

	if err := deal.Validate(now, ttl); err != nil {
		batch.release(route, cabin)
		return entity.Deal{}, err
	}

	if publish {
		if err := deal.Publish(now, ttl); err != nil {
			batch.release(route, cabin)
			return entity.Deal{}, err
		}
	}

	batch.assign(route, cabin, deal.DealNumber)

	return deal, nil
}

// BookingLink builds a flight search link for the route and optional dates.
func (f *Factory) BookingLink(route value.Route, departure, ret *time.Time) string {
	q := fmt.Sprintf("%s to %s", route.Origin, route.Destination)

	if departure != nil {
		q += " on " + departure.Format(time.DateOnly)
	}

	if ret != nil {
		q += " through " + ret.Format(time.DateOnly)
	}

	return f.bookingBase + "?q=" + url.PathEscape(q)
}

func FormatDealNumber(tier value.Tier, seq int64) string {
	return fmt.Sprintf("%s%03d", tier.DealNumberPrefix(), seq)
}
