package feed_test

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/feed"
	"fareglitch/internal/domain/service/visibility"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/errcodes"
)

type dealRepo struct {
	deals     []entity.Deal
	lastLimit int
}

func (r *dealRepo) ListPublished(
	_ context.Context,
	now time.Time,
	publishedBefore *time.Time,
	limit int,
) ([]entity.Deal, error) {
	r.lastLimit = limit

	var out []entity.Deal

	for _, d := range r.deals {
		if d.Status != value.DealStatusPublished || d.PublishedAt == nil || d.IsExpired(now) {
			continue
		}

		if publishedBefore != nil && d.PublishedAt.After(*publishedBefore) {
			continue
		}

		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(*out[j].PublishedAt) })

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *dealRepo) GetByNumber(_ context.Context, number string) (entity.Deal, error) {
	for _, d := range r.deals {
		if d.DealNumber == number {
			return d, nil
		}
	}

	return entity.Deal{}, domain.NewError(errcodes.DealNotFound, "deal not found")
}

type subscriberRepo map[string]entity.Subscriber

func (r subscriberRepo) GetByAccessToken(_ context.Context, token string) (entity.Subscriber, error) {
	s, ok := r[token]
	if !ok {
		return entity.Subscriber{}, domain.NewError(errcodes.SubscriberNotFound, "subscriber not found")
	}

	return s, nil
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) //nolint:gochecknoglobals

func deal(n int, status value.DealStatus, publishedAgo, ttl time.Duration) entity.Deal {
	publishedAt := now.Add(-publishedAgo)
	expiresAt := publishedAt.Add(ttl)

	return entity.Deal{
		DealNumber:    fmt.Sprintf("MF%03d", n),
		Route:         value.Route{Origin: "JFK", Destination: "NRT"},
		Tier:          value.TierMistakeFare,
		Status:        status,
		NormalPrice:   decimal.NewFromInt(2000),
		MistakePrice:  decimal.NewFromInt(450),
		SavingsAmount: decimal.NewFromInt(1550),
		SavingsPct:    decimal.RequireFromString("0.775"),
		Currency:      value.USD,
		PublishedAt:   &publishedAt,
		ExpiresAt:     &expiresAt,
		BookingLink:   "https://www.google.com/travel/flights?q=JFK%20to%20NRT",
	}
}

func newService() (*feed.Service, *dealRepo) {
	future := now.Add(30 * 24 * time.Hour)

	repo := &dealRepo{deals: []entity.Deal{
		deal(1, value.DealStatusPublished, 5*time.Minute, 6*time.Hour),
		deal(2, value.DealStatusPublished, 2*time.Hour, 6*time.Hour),
		deal(3, value.DealStatusPublished, 3*time.Hour, 6*time.Hour),
		deal(4, value.DealStatusPublished, 10*time.Hour, 6*time.Hour),
		deal(5, value.DealStatusCanceled, 90*time.Minute, 6*time.Hour),
		deal(6, value.DealStatusValidated, 0, 6*time.Hour),
	}}

	subs := subscriberRepo{
		"premium-token": {ID: "s1", Type: value.SubscriptionSMSMonthly, IsActive: true, ExpiresAt: &future},
		"free-token":    {ID: "s2", Type: value.SubscriptionFree, IsActive: true},
	}

	svc := feed.NewService(repo, subs, visibility.NewGate(time.Hour)).
		WithClock(func() time.Time { return now })

	return svc, repo
}

func numbers(teasers []entity.DealTeaser) []string {
	out := make([]string, 0, len(teasers))
	for _, t := range teasers {
		out = append(out, t.DealNumber)
	}

	return out
}

func TestFeed(t *testing.T) {
	rq := require.New(t)

	svc, _ := newService()
	ctx := context.Background()

	premium, err := svc.Viewer(ctx, "premium-token")
	rq.NoError(err)

	free, err := svc.Viewer(ctx, "free-token")
	rq.NoError(err)

	anonymous, err := svc.Viewer(ctx, "")
	rq.NoError(err)
	rq.Nil(anonymous)

	got, err := svc.Feed(ctx, premium, 0)
	rq.NoError(err)
	rq.Equal([]string{"MF001", "MF002", "MF003"}, numbers(got))

	got, err = svc.Feed(ctx, free, 0)
	rq.NoError(err)
	rq.Equal([]string{"MF002", "MF003"}, numbers(got))

	got, err = svc.Feed(ctx, anonymous, 1)
	rq.NoError(err)
	rq.Equal([]string{"MF002"}, numbers(got))

	rq.Equal("MISTAKE FARE: JFK → NRT", got[0].Headline)
	rq.True(decimal.RequireFromString("77.5").Equal(got[0].SavingsPercent))
}

func TestFeedLimit(t *testing.T) {
	rq := require.New(t)

	svc, repo := newService()

	_, err := svc.Feed(context.Background(), nil, 500)
	rq.NoError(err)
	rq.Equal(feed.MaxLimit, repo.lastLimit)

	_, err = svc.Feed(context.Background(), nil, -1)
	rq.True(domain.HasCode(err, errcodes.InvalidPaging))
}

func TestViewerUnknownToken(t *testing.T) {
	rq := require.New(t)

	svc, _ := newService()

	_, err := svc.Viewer(context.Background(), "nope")
	rq.True(domain.HasCode(err, errcodes.AccessTokenInvalid))
}

func TestLookup(t *testing.T) {
	rq := require.New(t)

	svc, _ := newService()
	ctx := context.Background()

	premium, err := svc.Viewer(ctx, "premium-token")
	rq.NoError(err)

	testCases := []struct {
		name   string
		number string
		viewer *entity.Subscriber
		code   string
	}{
		{name: "Premium sees fresh", number: "MF001", viewer: premium},
		{name: "Anonymous too early", number: "MF001", code: string(errcodes.DealNotVisible)},
		{name: "Anonymous after delay", number: "mf002"},
		{name: "Expired", number: "MF004", viewer: premium, code: string(errcodes.DealExpired)},
		{name: "Canceled", number: "MF005", viewer: premium, code: string(errcodes.DealExpired)},
		{name: "Not yet published", number: "MF006", viewer: premium, code: string(errcodes.DealNotFound)},
		{name: "Unknown", number: "MF999", viewer: premium, code: string(errcodes.DealNotFound)},
		{name: "Malformed", number: "hello", code: string(errcodes.InvalidDealNumber)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			d, err := svc.Lookup(ctx, tc.number, tc.viewer)
			if tc.code != "" {
				code, ok := domain.GetCode(err)
				rq.True(ok)
				rq.Equal(tc.code, string(code))

				return
			}

			rq.NoError(err)
			rq.True(decimal.NewFromInt(1550).Equal(d.SavingsAmount))
			rq.NotEmpty(d.BookingLink)
		})
	}
}
