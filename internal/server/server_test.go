package server_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/budget"
	"fareglitch/internal/domain/service/pipeline"
	"fareglitch/internal/domain/service/verify"
	"fareglitch/internal/domain/value"
	"fareglitch/internal/server"
	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/rest"
	"fareglitch/pkg/tests"
)

const adminToken = "admin-secret"

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) //nolint:gochecknoglobals

func liveDeal(number string) entity.Deal {
	publishedAt := now.Add(-2 * time.Hour)
	expiresAt := publishedAt.Add(6 * time.Hour)

	return entity.Deal{
		DealNumber:    number,
		Route:         value.Route{Origin: "JFK", Destination: "NRT"},
		Cabin:         value.CabinEconomy,
		Tier:          value.TierMistakeFare,
		Status:        value.DealStatusPublished,
		NormalPrice:   decimal.NewFromInt(2000),
		MistakePrice:  decimal.NewFromInt(450),
		SavingsAmount: decimal.NewFromInt(1550),
		SavingsPct:    decimal.RequireFromString("0.775"),
		Currency:      value.USD,
		PublishedAt:   &publishedAt,
		ExpiresAt:     &expiresAt,
		BookingLink:   "https://www.google.com/travel/flights?q=JFK%20to%20NRT",
		UnlockFee:     decimal.NewFromInt(5),
	}
}

type feedService struct {
	lastLimit int
}

func (f *feedService) Viewer(_ context.Context, token string) (*entity.Subscriber, error) {
	switch token {
	case "":
		return nil, nil //nolint:nilnil
	case "premium":
		return &entity.Subscriber{ID: "s1", Type: value.SubscriptionSMSMonthly, IsActive: true}, nil
	default:
		return nil, domain.NewError(errcodes.AccessTokenInvalid, "access token is invalid")
	}
}

func (f *feedService) Feed(_ context.Context, viewer *entity.Subscriber, limit int) ([]entity.DealTeaser, error) {
	f.lastLimit = limit

	if limit < 0 {
		return nil, domain.NewError(errcodes.InvalidPaging, "limit must be positive")
	}

	teasers := []entity.DealTeaser{liveDeal("MF001").Teaser()}
	if viewer.IsPremium(now) {
		teasers = append(teasers, liveDeal("MF002").Teaser())
	}

	return teasers, nil
}

func (f *feedService) Lookup(_ context.Context, number string, viewer *entity.Subscriber) (entity.Deal, error) {
	number, err := value.ParseDealNumber(number)
	if err != nil {
		return entity.Deal{}, err
	}

	switch number {
	case "MF001":
		return liveDeal(number), nil
	case "MF002":
		if viewer.IsPremium(now) {
			return liveDeal(number), nil
		}
		return entity.Deal{}, domain.NewError(errcodes.DealNotVisible, "not yet visible")
	case "MF003":
		return entity.Deal{}, domain.NewError(errcodes.DealExpired, "expired")
	default:
		return entity.Deal{}, domain.NewError(errcodes.DealNotFound, "not found")
	}
}

type scheduler struct {
	err error
}

func (s *scheduler) TryScan(_ context.Context, origins []string) (pipeline.ScanResult, error) {
	if s.err != nil {
		return pipeline.ScanResult{}, s.err
	}

	return pipeline.ScanResult{
		ScanID:         "scan-1",
		Origins:        origins,
		StartedAt:      now,
		CompletedAt:    now.Add(time.Minute),
		RoutesChecked:  3,
		AnomaliesFound: 1,
		DealsValidated: 1,
		DealsPublished: 1,
		Deals:          []entity.DealSummary{liveDeal("MF001").Summary()},
	}, nil
}

type enqueuer struct{}

func (enqueuer) EnqueueScan(context.Context, []string) (string, error) {
	return "task-1", nil
}

type scanLogs struct{}

func (scanLogs) ListScans(context.Context, int) ([]entity.ScanLog, error) {
	return []entity.ScanLog{{ID: "scan-1", Origins: []string{"JFK"}, StartedAt: now, Status: entity.ScanStatusCompleted}}, nil
}

type lifecycle struct{}

func (lifecycle) PublishDeal(_ context.Context, number string) (entity.Deal, error) {
	return liveDeal(number), nil
}

func (lifecycle) CancelDeal(_ context.Context, number string) (entity.Deal, error) {
	if number == "MF003" {
		return entity.Deal{}, domain.NewError(errcodes.DealExpired, "already canceled")
	}

	d := liveDeal(number)
	d.Status = value.DealStatusCanceled

	return d, nil
}

func (lifecycle) RecordUnlock(_ context.Context, number string) (entity.Deal, error) {
	d := liveDeal(number)
	d.RecordUnlock()

	return d, nil
}

func (lifecycle) RecheckDeal(_ context.Context, number string) (entity.Deal, verify.RecheckResult, error) {
	d := liveDeal(number)
	if number == "MF002" {
		d.Status = value.DealStatusCanceled
		offer := entity.LiveOffer{Price: decimal.NewFromInt(900), Currency: value.USD, Airline: "NH"}

		return d, verify.RecheckResult{Offer: &offer}, nil
	}

	return d, verify.RecheckResult{Holds: true}, nil
}

type subscribers struct {
	created []entity.Subscriber
}

func (s *subscribers) Create(_ context.Context, sub entity.Subscriber) error {
	s.created = append(s.created, sub)
	return nil
}

type fixture struct {
	client      tests.APIClient
	feed        *feedService
	scheduler   *scheduler
	subscribers *subscribers
}

func newFixture(t *testing.T, withQueue bool) *fixture {
	t.Helper()

	f := &fixture{
		feed:        &feedService{},
		scheduler:   &scheduler{},
		subscribers: &subscribers{},
	}

	tracker := budget.NewTracker(budget.Limits{Daily: 100, Monthly: 1000}).
		WithClock(func() time.Time { return now })
	tracker.RecordUsage(context.Background(), 7)

	scanServer := server.NewScanServer(f.scheduler, scanLogs{}, tracker)
	if withQueue {
		scanServer = scanServer.WithEnqueuer(enqueuer{})
	}

	srv := server.NewServer(
		server.NewDealServer(f.feed),
		scanServer,
		server.NewAdminServer(lifecycle{}, f.subscribers),
	)

	ts := httptest.NewServer(server.NewRouter(srv, server.RouterOptions{
		AdminToken:     adminToken,
		CORSOrigins:    []string{"https://example.com"},
		LogFieldMaxLen: 4096,
	}))
	t.Cleanup(ts.Close)

	f.client = tests.NewAPIClient(t, ts.URL, ts.Client())

	return f
}

func TestGetV1Deals(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		token    string
		status   int
		count    int
		code     string
		limitArg int
	}{
		{name: "anonymous", status: http.StatusOK, count: 1},
		{name: "premium", token: "premium", status: http.StatusOK, count: 2},
		{name: "limit passed through", query: "?limit=25", status: http.StatusOK, count: 1, limitArg: 25},
		{name: "unknown token", token: "stolen", status: http.StatusUnauthorized, code: string(errcodes.AccessTokenInvalid)},
		{name: "non-numeric limit", query: "?limit=ten", status: http.StatusBadRequest, code: string(errcodes.InvalidPaging)},
		{name: "negative limit", query: "?limit=-1", status: http.StatusBadRequest, code: string(errcodes.InvalidPaging)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)
			f := newFixture(t, false)

			var (
				feed   rest.DealFeed
				errRes rest.Error
			)

			resp, err := f.client.Get(context.Background(), "/v1/deals"+tc.query, tests.Bearer(tc.token), &feed, &errRes)
			rq.NoError(err)
			rq.Equal(tc.status, resp.StatusCode)

			if tc.code != "" {
				rq.Equal(tc.code, string(errRes.Code))
				return
			}

			rq.Len(feed.Deals, tc.count)
			rq.Equal("MISTAKE FARE: JFK → NRT", feed.Deals[0].Headline)
			rq.True(decimal.RequireFromString("77.5").Equal(feed.Deals[0].SavingsPercent))
			rq.Equal(tc.limitArg, f.feed.lastLimit)
		})
	}
}

func TestGetV1Deal(t *testing.T) {
	cases := []struct {
		number string
		token  string
		status int
		code   string
	}{
		{number: "MF001", status: http.StatusOK},
		{number: "mf002", token: "premium", status: http.StatusOK},
		{number: "MF002", status: http.StatusForbidden, code: string(errcodes.DealNotVisible)},
		{number: "MF003", status: http.StatusGone, code: string(errcodes.DealExpired)},
		{number: "MF999", status: http.StatusNotFound, code: string(errcodes.DealNotFound)},
		{number: "XX1", status: http.StatusBadRequest, code: string(errcodes.InvalidDealNumber)},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_%d", tc.number, tc.status), func(t *testing.T) {
			rq := require.New(t)
			f := newFixture(t, false)

			var (
				deal   rest.Deal
				errRes rest.Error
			)

			resp, err := f.client.Get(context.Background(), "/v1/deals/"+tc.number, tests.Bearer(tc.token), &deal, &errRes)
			rq.NoError(err)
			rq.Equal(tc.status, resp.StatusCode)

			if tc.code != "" {
				rq.Equal(tc.code, string(errRes.Code))
				rq.NotEmpty(errRes.SupportID)
				return
			}

			rq.True(decimal.NewFromInt(450).Equal(deal.MistakePrice))
			rq.NotEmpty(deal.BookingLink)
		})
	}
}

func TestPostV1Scans(t *testing.T) {
	cases := []struct {
		name      string
		token     string
		body      string
		withQueue bool
		schedErr  error
		status    int
		code      string
	}{
		{name: "requires admin", body: `{"origins":["JFK"]}`, status: http.StatusUnauthorized, code: string(errcodes.AccessTokenInvalid)},
		{name: "wrong admin token", token: "nope", body: `{"origins":["JFK"]}`, status: http.StatusUnauthorized, code: string(errcodes.AccessTokenInvalid)},
		{name: "inline scan", token: adminToken, body: `{"origins":["JFK","LAX"]}`, status: http.StatusOK},
		{name: "malformed body", token: adminToken, body: `{"origins":`, status: http.StatusBadRequest, code: string(errcodes.ValidationError)},
		{name: "invalid origin", token: adminToken, body: `{"origins":["JFKX"]}`, status: http.StatusBadRequest, code: string(errcodes.ValidationError)},
		{
			name:     "scan in progress",
			token:    adminToken,
			body:     `{"origins":["JFK"]}`,
			schedErr: domain.NewError(errcodes.ScanInProgress, "busy"),
			status:   http.StatusConflict,
			code:     string(errcodes.ScanInProgress),
		},
		{
			name:     "budget exhausted",
			token:    adminToken,
			body:     `{"origins":["JFK"]}`,
			schedErr: domain.NewError(errcodes.BudgetExhausted, "over budget"),
			status:   http.StatusTooManyRequests,
			code:     string(errcodes.BudgetExhausted),
		},
		{name: "async without queue", token: adminToken, body: `{"origins":["JFK"],"async":true}`, status: http.StatusBadRequest, code: string(errcodes.ValidationError)},
		{name: "async", token: adminToken, body: `{"origins":["JFK"],"async":true}`, withQueue: true, status: http.StatusAccepted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)
			f := newFixture(t, tc.withQueue)
			f.scheduler.err = tc.schedErr

			var (
				result map[string]any
				errRes rest.Error
			)

			resp, err := f.client.PostJSON(context.Background(), "/v1/scans", tests.Bearer(tc.token), tc.body, &result, &errRes)
			rq.NoError(err)
			rq.Equal(tc.status, resp.StatusCode)

			if tc.code != "" {
				rq.Equal(tc.code, string(errRes.Code))
				return
			}

			if tc.withQueue {
				rq.Equal("task-1", result["taskId"])
				return
			}

			rq.Equal("scan-1", result["scanId"])
			rq.Equal("completed", result["status"])
			rq.Len(result["deals"], 1)
		})
	}
}

func TestOperatorReads(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t, false)

	var logs rest.ScanLogs

	resp, err := f.client.Get(context.Background(), "/v1/scans?limit=5", tests.Bearer(adminToken), &logs, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Len(logs.Scans, 1)
	rq.Equal("completed", logs.Scans[0].Status)

	var b rest.Budget

	resp, err = f.client.Get(context.Background(), "/v1/budget", tests.Bearer(adminToken), &b, nil)
	rq.NoError(err)
	rq.Equal(http.StatusOK, resp.StatusCode)
	rq.Equal(7, b.CallsToday)
	rq.Equal(100, b.DailyLimit)
	rq.True(b.WithinBudget)
}

func TestAdminDealLifecycle(t *testing.T) {
	cases := []struct {
		path   string
		status int
		check  func(rq *require.Assertions, d rest.Deal)
	}{
		{
			path:   "/v1/admin/deals/MF001/publish",
			status: http.StatusOK,
			check:  func(rq *require.Assertions, d rest.Deal) { rq.Equal("published", d.Status) },
		},
		{
			path:   "/v1/admin/deals/MF001/cancel",
			status: http.StatusOK,
			check:  func(rq *require.Assertions, d rest.Deal) { rq.Equal("canceled", d.Status) },
		},
		{
			path:   "/v1/admin/deals/MF001/unlocks",
			status: http.StatusOK,
			check: func(rq *require.Assertions, d rest.Deal) {
				rq.Equal(1, d.TotalUnlocks)
				rq.True(decimal.NewFromInt(5).Equal(d.TotalRevenue))
			},
		},
		{path: "/v1/admin/deals/MF003/cancel", status: http.StatusGone},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rq := require.New(t)
			f := newFixture(t, false)

			var deal rest.Deal

			resp, err := f.client.PostJSON(context.Background(), tc.path, tests.Bearer(adminToken), `{}`, &deal, nil)
			rq.NoError(err)
			rq.Equal(tc.status, resp.StatusCode)

			if tc.check != nil {
				tc.check(rq, deal)
			}
		})
	}
}

func TestPostV1AdminRecheck(t *testing.T) {
	cases := []struct {
		number    string
		holds     bool
		status    string
		livePrice string
	}{
		{number: "MF001", holds: true, status: "published"},
		{number: "MF002", holds: false, status: "canceled", livePrice: "900"},
	}

	for _, tc := range cases {
		t.Run(tc.number, func(t *testing.T) {
			rq := require.New(t)
			f := newFixture(t, false)

			var out rest.DealRecheck

			resp, err := f.client.PostJSON(
				context.Background(),
				"/v1/admin/deals/"+tc.number+"/recheck",
				tests.Bearer(adminToken),
				`{}`,
				&out,
				nil,
			)
			rq.NoError(err)
			rq.Equal(http.StatusOK, resp.StatusCode)
			rq.Equal(tc.holds, out.Holds)
			rq.Equal(tc.status, out.Deal.Status)

			if tc.livePrice == "" {
				rq.Nil(out.LivePrice)
				return
			}

			rq.NotNil(out.LivePrice)
			rq.True(decimal.RequireFromString(tc.livePrice).Equal(*out.LivePrice))
			rq.Equal("NH", out.Airline)
		})
	}
}

func TestPostV1AdminSubscribers(t *testing.T) {
	rq := require.New(t)
	f := newFixture(t, false)

	var sub rest.Subscriber

	resp, err := f.client.Post(
		context.Background(),
		"/v1/admin/subscribers",
		tests.Bearer(adminToken),
		rest.SubscriberRequest{Email: "a@example.com", Type: "sms_monthly", Days: 30},
		&sub,
		nil,
	)
	rq.NoError(err)
	rq.Equal(http.StatusCreated, resp.StatusCode)
	rq.NotEmpty(sub.AccessToken)
	rq.NotNil(sub.ExpiresAt)
	rq.True(sub.IsActive)
	rq.Len(f.subscribers.created, 1)
	rq.Equal(sub.AccessToken, f.subscribers.created[0].AccessToken)

	var errRes rest.Error

	resp, err = f.client.Post(
		context.Background(),
		"/v1/admin/subscribers",
		tests.Bearer(adminToken),
		rest.SubscriberRequest{Type: "lifetime"},
		nil,
		&errRes,
	)
	rq.NoError(err)
	rq.Equal(http.StatusBadRequest, resp.StatusCode)
	rq.Equal(string(errcodes.ValidationError), string(errRes.Code))
}
