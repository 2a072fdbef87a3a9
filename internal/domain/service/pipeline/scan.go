package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/dealfactory"
	"fareglitch/internal/domain/service/scoring"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/contextx"
	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/logx"
	"fareglitch/pkg/lox"
)

type ScanRequest struct {
	Origins []string
	// BudgetHint is the number of provider calls the scan may spend. Zero
	// derives it from the origin count.
	BudgetHint int
}

type ScanResult struct {
	ScanID         string
	Origins        []string
	StartedAt      time.Time
	CompletedAt    time.Time
	RoutesChecked  int
	AnomaliesFound int
	DealsValidated int
	DealsPublished int
	Conflicts      int
	Errors         int
	APICalls       int
	Deals          []entity.DealSummary
	Skipped        bool
	Canceled       bool
}

func (r ScanResult) Status() entity.ScanStatus {
	switch {
	case r.Skipped:
		return entity.ScanStatusSkipped
	case r.Canceled:
		return entity.ScanStatusCanceled
	case r.RoutesChecked == 0 && r.Errors > 0:
		return entity.ScanStatusFailed
	default:
		return entity.ScanStatusCompleted
	}
}

func (r ScanResult) Log() entity.ScanLog {
	log := entity.ScanLog{
		ID:             r.ScanID,
		Origins:        r.Origins,
		StartedAt:      r.StartedAt,
		RoutesChecked:  r.RoutesChecked,
		AnomaliesFound: r.AnomaliesFound,
		DealsValidated: r.DealsValidated,
		DealsPublished: r.DealsPublished,
		Errors:         r.Errors,
		APICalls:       r.APICalls,
		Status:         entity.ScanStatusRunning,
	}

	if !r.CompletedAt.IsZero() {
		completedAt := r.CompletedAt
		log.CompletedAt = &completedAt
		log.Status = r.Status()
	}

	return log
}

// NormalizeOrigins validates airport codes and drops repeats.
func NormalizeOrigins(origins []string) ([]string, error) {
	codes, err := lox.MapUniqErr(origins, value.ParseAirportCode)
	if err != nil {
		return nil, err
	}

	if len(codes) == 0 {
		return nil, domain.NewError(errcodes.ValidationError, "at least one origin is required")
	}

	return codes, nil
}

// Scan runs one detection pass over origins. Origins and candidates are
// processed one at a time; a failure in one never aborts the others. A scan
// the budget cannot cover is skipped whole and reported as BudgetExhausted
// together with the skipped result.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	origins, err := NormalizeOrigins(req.Origins)
	if err != nil {
		return ScanResult{}, err
	}

	hint := req.BudgetHint
	if hint <= 0 {
		hint = len(origins) * s.callsPerOrigin
	}

	result := ScanResult{
		ScanID:    uuid.NewString(),
		Origins:   origins,
		StartedAt: s.now(),
	}

	ctx = contextx.WithLogger(ctx, logger(ctx).With(slog.String(logx.FieldScanID, result.ScanID)))
	persistCtx := context.WithoutCancel(ctx)

	if !s.budget.CanAfford(hint) {
		result.Skipped = true
		result.CompletedAt = result.StartedAt

		state := s.budget.Snapshot()
		limits := s.budget.Limits()

		logger(ctx).Warn("scan skipped: budget exhausted",
			slog.Int("hint", hint),
			slog.Int("calls-today", state.CallsToday),
			slog.Int("daily-limit", limits.Daily),
			slog.Int("calls-this-month", state.CallsThisMonth),
			slog.Int("monthly-limit", limits.Monthly),
		)

		s.createLog(persistCtx, result.Log())
		scansTotal.WithLabelValues(string(entity.ScanStatusSkipped)).Inc()

		return result, domain.Errorf(errcodes.BudgetExhausted, "budget cannot cover %d calls", hint)
	}

	logger(ctx).Info("scan started", slog.Any("origins", origins), slog.Int("hint", hint))
	s.createLog(persistCtx, result.Log())

	batch := dealfactory.NewBatch()

	for _, origin := range origins {
		if ctx.Err() != nil {
			result.Canceled = true
			break
		}

		s.scanOrigin(ctx, batch, origin, &result)
	}

	if ctx.Err() != nil {
		result.Canceled = true
	}

	result.CompletedAt = s.now()

	s.updateLog(persistCtx, result.Log())
	scansTotal.WithLabelValues(string(result.Status())).Inc()
	scanDuration.Observe(result.CompletedAt.Sub(result.StartedAt).Seconds())

	logger(ctx).Info("scan finished",
		slog.String("status", string(result.Status())),
		slog.Int("routes", result.RoutesChecked),
		slog.Int("anomalies", result.AnomaliesFound),
		slog.Int("validated", result.DealsValidated),
		slog.Int("published", result.DealsPublished),
		slog.Int("conflicts", result.Conflicts),
		slog.Int("errors", result.Errors),
		slog.Int("api-calls", result.APICalls),
	)

	return result, nil
}

func (s *Service) scanOrigin(ctx context.Context, batch *dealfactory.Batch, origin string, result *ScanResult) {
	ctx = contextx.WithLogger(ctx, logger(ctx).With(slog.String(logx.FieldOrigin, origin)))
	calls := 0

	defer func() {
		if r := recover(); r != nil {
			result.Errors++
			logger(ctx).Error("origin scan panicked", slog.Any("panic", r))
		}

		result.APICalls += calls
		s.budget.RecordUsage(context.WithoutCancel(ctx), calls)
	}()

	quotes, hit, err := s.discover(ctx, origin)
	if !hit {
		calls++
	}

	if err != nil {
		result.Errors++
		stageErrorsTotal.WithLabelValues(stageDiscover).Inc()
		logger(ctx).Warn("discover failed", slog.String(logx.FieldProvider, s.source.Name()), logx.Error(err))

		return
	}

	currency := value.CurrencyForAirport(origin)

	for _, quote := range scoring.CheapestPerRoute(quotes) {
		if ctx.Err() != nil {
			return
		}

		result.RoutesChecked++

		ev, stage, err := s.evaluate(ctx, batch, result.ScanID, quote, currency)
		calls += ev.calls

		candidatesTotal.WithLabelValues(ev.outcome).Inc()

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}

			result.Errors++
			stageErrorsTotal.WithLabelValues(stage).Inc()
			logger(ctx).Warn("candidate dropped",
				slog.String(logx.FieldRoute, quote.Route.String()),
				slog.String("stage", stage),
				logx.Error(err),
			)

			continue
		}

		if ev.anomaly {
			result.AnomaliesFound++
		}

		if ev.outcome == outcomeDuplicate {
			result.Conflicts++
		}

		if ev.deal == nil {
			continue
		}

		result.DealsValidated++
		result.Deals = append(result.Deals, ev.deal.Summary())
		dealsTotal.WithLabelValues(string(ev.deal.Tier), string(ev.deal.Status)).Inc()

		if ev.deal.Status == value.DealStatusPublished {
			result.DealsPublished++
			s.notify(ctx, *ev.deal)
		}
	}
}

type evaluation struct {
	outcome string
	anomaly bool
	deal    *entity.Deal
	calls   int
}

// evaluate walks one quote through baseline, scoring, live verification and
// materialization. The observation is appended whatever the outcome.
func (s *Service) discover(ctx context.Context, origin string) ([]entity.PriceQuote, bool, error) {
	if cached, ok := s.source.(CachedSource); ok {
		return cached.DiscoverCached(ctx, origin)
	}

	quotes, err := s.source.Discover(ctx, origin)

	return quotes, false, err
}

func (s *Service) evaluate(
	ctx context.Context,
	batch *dealfactory.Batch,
	scanID string,
	quote entity.PriceQuote,
	currency value.Currency,
) (evaluation, string, error) {
	ev := evaluation{outcome: outcomeFailed}
	now := s.now()

	if quote.Cabin == "" {
		quote.Cabin = value.CabinEconomy
	}

	if quote.ObservedAt.IsZero() {
		quote.ObservedAt = now
	}

	// History is kept in the origin's currency only; an unconvertible quote
	// is not recorded.
	quote, err := s.toCurrency(ctx, quote, currency)
	if err != nil {
		return ev, stageConvert, err
	}

	defer s.appendObservation(ctx, quote.Observation())

	basePrice, ok, calls, err := s.baselineFor(ctx, quote.Route, quote.Cabin, currency, now)
	ev.calls += calls

	if err != nil {
		return ev, stageBaseline, err
	}

	if !ok {
		ev.outcome = outcomeNoBaseline
		return ev, "", nil
	}

	cls := s.scorer.Classify(quote.Price, basePrice)
	if !cls.Qualifies {
		ev.outcome = outcomeNotAnomalous
		return ev, "", nil
	}

	ev.anomaly = true

	logger(ctx).Info("anomaly detected",
		slog.String(logx.FieldRoute, quote.Route.String()),
		slog.String(logx.FieldPrice, quote.Price.String()),
		slog.String(logx.FieldBaseline, basePrice.String()),
		slog.String(logx.FieldTier, string(cls.Tier)),
	)

	active, err := s.deals.HasActive(ctx, quote.Route, quote.Cabin, now)
	if err != nil {
		return ev, stagePersist, fmt.Errorf("deals.HasActive: %w", err)
	}

	if active {
		ev.outcome = outcomeDuplicate
		return ev, "", nil
	}

	offer, err := s.verifier.Verify(ctx, s.liveQuery(quote, now))
	ev.calls++

	if err != nil {
		return ev, stageVerify, err
	}

	if offer == nil {
		ev.outcome = outcomeNoLiveOffer
		return ev, "", nil
	}

	live, err := s.offerToCurrency(ctx, *offer, currency)
	if err != nil {
		return ev, stageConvert, err
	}

	if live.Cabin == "" {
		live.Cabin = quote.Cabin
	}

	liveCls := s.scorer.Classify(live.Price, basePrice)
	if !liveCls.Qualifies {
		ev.outcome = outcomeMismatch

		logger(ctx).Debug("live price no longer qualifies",
			slog.String(logx.FieldRoute, quote.Route.String()),
			slog.String(logx.FieldPrice, live.Price.String()),
		)

		return ev, "", nil
	}

	vc := entity.VerifiedCandidate{
		Candidate: entity.Candidate{Quote: quote, BaselinePrice: basePrice, Classification: cls},
		Offer:     live,
		Live:      liveCls,
	}

	deal, err := s.factory.Materialize(ctx, batch, scanID, vc, s.autoPublish)
	if err != nil {
		if domain.HasCode(err, errcodes.RouteAlreadyMaterialized) {
			ev.outcome = outcomeDuplicate
			return ev, "", nil
		}

		return ev, stagePersist, err
	}

	if err := s.deals.Create(ctx, deal); err != nil {
		if domain.HasCode(err, errcodes.DuplicateDealNumber) {
			ev.outcome = outcomeDuplicate
			return ev, "", nil
		}

		return ev, stagePersist, fmt.Errorf("deals.Create: %w", err)
	}

	logger(ctx).Info("deal materialized",
		slog.String(logx.FieldDealNumber, deal.DealNumber),
		slog.String(logx.FieldRoute, deal.Route.String()),
		slog.String(logx.FieldTier, string(deal.Tier)),
		slog.String(logx.FieldPrice, deal.MistakePrice.String()),
	)

	ev.outcome = outcomeMaterialized
	ev.deal = &deal

	return ev, "", nil
}

// baselineFor estimates the cabin baseline, falling back to a scaled
// economy baseline for premium cabins.
func (s *Service) baselineFor(
	ctx context.Context,
	route value.Route,
	cabin value.CabinClass,
	currency value.Currency,
	now time.Time,
) (decimal.Decimal, bool, int, error) {
	calls := 0

	est, ok, err := s.estimator.Estimate(ctx, route, cabin, currency, now)
	calls += est.Calls

	if err != nil || ok || cabin == value.CabinEconomy {
		return est.Price, ok, calls, err
	}

	est, ok, err = s.estimator.Estimate(ctx, route, value.CabinEconomy, currency, now)
	calls += est.Calls

	if err != nil || !ok {
		return est.Price, ok, calls, err
	}

	return s.scorer.ScaleBaseline(est.Price, cabin), true, calls, nil
}

func (s *Service) liveQuery(quote entity.PriceQuote, now time.Time) entity.LiveQuery {
	departure := now.Add(defaultLeadTime).Truncate(24 * time.Hour)
	if quote.DepartureDate != nil {
		departure = *quote.DepartureDate
	}

	ret := quote.ReturnDate
	if ret == nil && quote.DepartureDate == nil {
		r := departure.Add(defaultStay)
		ret = &r
	}

	return entity.LiveQuery{
		Route:         quote.Route,
		Cabin:         quote.Cabin,
		DepartureDate: departure,
		ReturnDate:    ret,
		Adults:        1,
	}
}

func (s *Service) toCurrency(ctx context.Context, quote entity.PriceQuote, currency value.Currency) (entity.PriceQuote, error) {
	if quote.Currency == currency {
		return quote, nil
	}

	price, err := s.convert(ctx, quote.Price, quote.Currency, currency)
	if err != nil {
		return quote, err
	}

	quote.Price = price
	quote.Currency = currency

	return quote, nil
}

func (s *Service) offerToCurrency(ctx context.Context, offer entity.LiveOffer, currency value.Currency) (entity.LiveOffer, error) {
	if offer.Currency == currency {
		return offer, nil
	}

	price, err := s.convert(ctx, offer.Price, offer.Currency, currency)
	if err != nil {
		return offer, err
	}

	offer.Price = price
	offer.Currency = currency

	return offer, nil
}

func (s *Service) convert(ctx context.Context, amount decimal.Decimal, from, to value.Currency) (decimal.Decimal, error) {
	if s.converter == nil {
		return amount, domain.NewError(
			errcodes.CurrencyConversionFailed,
			fmt.Sprintf("no converter for %s to %s", from, to),
		)
	}

	converted, err := s.converter.Convert(ctx, amount, from, to)
	if err != nil {
		return amount, domain.WrapError(err, errcodes.CurrencyConversionFailed, fmt.Sprintf("convert %s to %s", from, to))
	}

	return converted.Round(2), nil //nolint:mnd
}

func (s *Service) appendObservation(ctx context.Context, obs entity.PriceObservation) {
	if err := s.observations.Append(context.WithoutCancel(ctx), obs); err != nil {
		stageErrorsTotal.WithLabelValues(stagePersist).Inc()
		logger(ctx).Error("append observation failed", slog.String(logx.FieldRoute, obs.Route.String()), logx.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, deal entity.Deal) {
	if s.notifier == nil {
		return
	}

	s.notifier.Notify(context.WithoutCancel(ctx), deal)
}

func (s *Service) createLog(ctx context.Context, log entity.ScanLog) {
	if err := s.scanLogs.Create(ctx, log); err != nil {
		logger(ctx).Error("create scan log failed", logx.Error(err))
	}
}

func (s *Service) updateLog(ctx context.Context, log entity.ScanLog) {
	if err := s.scanLogs.Update(ctx, log); err != nil {
		logger(ctx).Error("update scan log failed", logx.Error(err))
	}
}
