package pipeline

import (
	"context"
	"time"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/baseline"
	"fareglitch/internal/domain/service/budget"
	"fareglitch/internal/domain/service/dealfactory"
	"fareglitch/internal/domain/service/scoring"
	"fareglitch/internal/domain/service/verify"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/contextx"
)

const (
	// DefaultCallsPerOrigin estimates provider calls for one origin when a
	// scan arrives without a budget hint.
	DefaultCallsPerOrigin = 10
	defaultLeadTime       = 14 * 24 * time.Hour
	defaultStay           = 7 * 24 * time.Hour
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// CandidateSource lists cheap cached fares departing from an origin.
type CandidateSource interface {
	Name() string
	Discover(ctx context.Context, origin string) ([]entity.PriceQuote, error)
}

// CachedSource is implemented by candidate sources that can tell whether a
// discovery was answered from their cache. Cache hits are not charged to the
// budget.
type CachedSource interface {
	DiscoverCached(ctx context.Context, origin string) ([]entity.PriceQuote, bool, error)
}

type Estimator interface {
	Estimate(
		ctx context.Context,
		route value.Route,
		cabin value.CabinClass,
		currency value.Currency,
		now time.Time,
	) (baseline.Estimate, bool, error)
}

type Verifier interface {
	Verify(ctx context.Context, query entity.LiveQuery) (*entity.LiveOffer, error)
}

// Rechecker is implemented by verifiers that can re-price a published deal.
type Rechecker interface {
	Recheck(ctx context.Context, deal entity.Deal) (verify.RecheckResult, error)
}

type ObservationRepository interface {
	Append(ctx context.Context, obs entity.PriceObservation) error
}

type DealRepository interface {
	Create(ctx context.Context, deal entity.Deal) error
	GetByNumber(ctx context.Context, dealNumber string) (entity.Deal, error)
	HasActive(ctx context.Context, route value.Route, cabin value.CabinClass, now time.Time) (bool, error)
	Update(ctx context.Context, dealNumber string, fn func(deal *entity.Deal) error) (entity.Deal, error)
}

type ScanLogRepository interface {
	Create(ctx context.Context, log entity.ScanLog) error
	Update(ctx context.Context, log entity.ScanLog) error
	ListRecent(ctx context.Context, limit int) ([]entity.ScanLog, error)
}

// Notifier receives deals once they are published. It must not block.
type Notifier interface {
	Notify(ctx context.Context, deal entity.Deal)
}

type Service struct {
	source       CandidateSource
	estimator    Estimator
	scorer       *scoring.Scorer
	verifier     Verifier
	factory      *dealfactory.Factory
	observations ObservationRepository
	deals        DealRepository
	scanLogs     ScanLogRepository
	budget       *budget.Tracker
	converter    baseline.Converter
	notifier     Notifier

	autoPublish    bool
	callsPerOrigin int
	now            func() time.Time
}

func NewService(
	source CandidateSource,
	estimator Estimator,
	scorer *scoring.Scorer,
	verifier Verifier,
	factory *dealfactory.Factory,
	observations ObservationRepository,
	deals DealRepository,
	scanLogs ScanLogRepository,
	tracker *budget.Tracker,
) *Service {
	return &Service{
		source:         source,
		estimator:      estimator,
		scorer:         scorer,
		verifier:       verifier,
		factory:        factory,
		observations:   observations,
		deals:          deals,
		scanLogs:       scanLogs,
		budget:         tracker,
		autoPublish:    true,
		callsPerOrigin: DefaultCallsPerOrigin,
		now:            time.Now,
	}
}

// WithConverter enables cross-currency quotes. Without it quotes not in
// the route currency are dropped.
func (s *Service) WithConverter(c baseline.Converter) *Service {
	s.converter = c
	return s
}

func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithAutoPublish controls whether validated deals are released to the
// feed immediately or wait for an operator.
func (s *Service) WithAutoPublish(enabled bool) *Service {
	s.autoPublish = enabled
	return s
}

func (s *Service) WithCallsPerOrigin(n int) *Service {
	if n > 0 {
		s.callsPerOrigin = n
	}

	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Budget() *budget.Tracker {
	return s.budget
}
