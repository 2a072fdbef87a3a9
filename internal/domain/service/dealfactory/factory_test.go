package dealfactory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/dealfactory"
	"fareglitch/internal/domain/service/scoring"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/errcodes"
)

type sequence struct {
	next int64
	err  error
}

func (s *sequence) NextDealSequence(context.Context) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}

	s.next++

	return s.next, nil
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func verified(route value.Route, baseline, price string) entity.VerifiedCandidate {
	scorer := scoring.NewScorer()
	departure := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	return entity.VerifiedCandidate{
		Candidate: entity.Candidate{
			Quote:         entity.PriceQuote{Route: route, Cabin: value.CabinEconomy, Price: d(price), Currency: value.USD},
			BaselinePrice: d(baseline),
		},
		Offer: entity.LiveOffer{
			OfferID:       "off_1",
			Price:         d(price),
			Currency:      value.USD,
			Airline:       "NH",
			Cabin:         value.CabinEconomy,
			DepartureDate: departure,
			Source:        "fake",
		},
		Live: scorer.Classify(d(price), d(baseline)),
	}
}

func TestMaterializeMistakeFare(t *testing.T) {
	rq := require.New(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	route := value.Route{Origin: "JFK", Destination: "NRT"}

	f := dealfactory.NewFactory(&sequence{}, scoring.NewScorer()).
		WithUnlockFee(d("4.99")).
		WithClock(func() time.Time { return now })

	deal, err := f.Materialize(context.Background(), dealfactory.NewBatch(), "scan-1", verified(route, "2000", "450"), true)
	rq.NoError(err)

	rq.Equal("MF001", deal.DealNumber)
	rq.Equal(value.TierMistakeFare, deal.Tier)
	rq.Equal(value.DealStatusPublished, deal.Status)
	rq.True(d("1550").Equal(deal.SavingsAmount))
	rq.True(d("0.775").Equal(deal.SavingsPct))
	rq.True(deal.NormalPrice.Sub(deal.MistakePrice).Equal(deal.SavingsAmount))
	rq.Equal(now, *deal.PublishedAt)
	rq.Equal(deal.PublishedAt.Add(6*time.Hour), *deal.ExpiresAt)
	rq.Equal("NH", deal.Airline)
	rq.Equal("scan-1", deal.ScanID)
	rq.True(d("4.99").Equal(deal.UnlockFee))
	rq.Equal("https://www.google.com/travel/flights?q=JFK%20to%20NRT%20on%202026-04-01", deal.BookingLink)
}

func TestMaterializeGoodDealValidatedOnly(t *testing.T) {
	rq := require.New(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	f := dealfactory.NewFactory(&sequence{next: 41}, scoring.NewScorer()).
		WithClock(func() time.Time { return now })

	deal, err := f.Materialize(
		context.Background(),
		dealfactory.NewBatch(),
		"scan-1",
		verified(value.Route{Origin: "LAX", Destination: "CDG"}, "1000", "700"),
		false,
	)
	rq.NoError(err)

	rq.Equal("VD042", deal.DealNumber)
	rq.Equal(value.DealStatusValidated, deal.Status)
	rq.Nil(deal.PublishedAt)
	rq.Equal(now.Add(72*time.Hour), *deal.ExpiresAt)
}

func TestMaterializeOncePerRouteInBatch(t *testing.T) {
	rq := require.New(t)

	seq := &sequence{}
	f := dealfactory.NewFactory(seq, scoring.NewScorer())
	batch := dealfactory.NewBatch()
	route := value.Route{Origin: "JFK", Destination: "NRT"}

	_, err := f.Materialize(context.Background(), batch, "scan-1", verified(route, "2000", "450"), true)
	rq.NoError(err)

	_, err = f.Materialize(context.Background(), batch, "scan-1", verified(route, "2000", "400"), true)
	rq.True(domain.HasCode(err, errcodes.RouteAlreadyMaterialized))
	rq.EqualValues(1, seq.next)

	_, err = f.Materialize(context.Background(), dealfactory.NewBatch(), "scan-2", verified(route, "2000", "400"), true)
	rq.NoError(err)
	rq.Equal(1, batch.Len())
}

func TestMaterializeRejectsNonQualifying(t *testing.T) {
	rq := require.New(t)

	seq := &sequence{}
	batch := dealfactory.NewBatch()
	route := value.Route{Origin: "JFK", Destination: "NRT"}

	_, err := dealfactory.NewFactory(seq, scoring.NewScorer()).
		Materialize(context.Background(), batch, "scan-1", verified(route, "1000", "950"), true)
	rq.Error(err)
	rq.Zero(seq.next)
	rq.Zero(batch.Len())
}

func TestMaterializeSequenceFailureReleasesRoute(t *testing.T) {
	rq := require.New(t)

	seq := &sequence{err: errors.New("connection refused")}
	batch := dealfactory.NewBatch()
	f := dealfactory.NewFactory(seq, scoring.NewScorer())
	route := value.Route{Origin: "JFK", Destination: "NRT"}

	_, err := f.Materialize(context.Background(), batch, "scan-1", verified(route, "2000", "450"), true)
	rq.Error(err)
	rq.Zero(batch.Len())

	seq.err = nil

	deal, err := f.Materialize(context.Background(), batch, "scan-1", verified(route, "2000", "450"), true)
	rq.NoError(err)
	rq.Equal("MF001", deal.DealNumber)
}

func TestFormatDealNumber(t *testing.T) {
	rq := require.New(t)

	rq.Equal("MF007", dealfactory.FormatDealNumber(value.TierMistakeFare, 7))
	rq.Equal("VD120", dealfactory.FormatDealNumber(value.TierGoodDeal, 120))
	rq.Equal("MF1234", dealfactory.FormatDealNumber(value.TierMistakeFare, 1234))
}

func TestBookingLink(t *testing.T) {
	rq := require.New(t)

	f := dealfactory.NewFactory(&sequence{}, scoring.NewScorer())
	route := value.Route{Origin: "SFO", Destination: "LHR"}

	rq.Equal("https://www.google.com/travel/flights?q=SFO%20to%20LHR", f.BookingLink(route, nil, nil))

	dep := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	ret := dep.Add(7 * 24 * time.Hour)
	rq.Equal(
		"https://www.google.com/travel/flights?q=SFO%20to%20LHR%20on%202026-05-02%20through%202026-05-09",
		f.BookingLink(route, &dep, &ret),
	)
}
