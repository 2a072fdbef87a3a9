package baseline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/contextx"
	"fareglitch/pkg/logx"
)

const (
	defaultWindow     = 30 * 24 * time.Hour
	defaultMinSamples = 3
	defaultStay       = 7 * 24 * time.Hour
	day               = 24 * time.Hour
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type HistoryReader interface {
	ListPrices(
		ctx context.Context,
		route value.Route,
		cabin value.CabinClass,
		currency value.Currency,
		since time.Time,
	) ([]decimal.Decimal, error)
}

// Sampler prices a route for one forward departure date.
type Sampler interface {
	SamplePrice(
		ctx context.Context,
		route value.Route,
		cabin value.CabinClass,
		departure time.Time,
		ret time.Time,
	) (*entity.PriceQuote, error)
}

type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to value.Currency) (decimal.Decimal, error)
}

type Source string

const (
	SourceHistory        Source = "history"
	SourceForwardSamples Source = "forward_samples"
)

type Estimate struct {
	Price   decimal.Decimal
	Source  Source
	Samples int
	// Calls is the number of external calls spent producing the estimate.
	Calls int
}

type Estimator struct {
	history    HistoryReader
	sampler    Sampler
	converter  Converter
	window     time.Duration
	minSamples int
	offsets    []time.Duration
	stay       time.Duration
}

func NewEstimator(history HistoryReader) *Estimator {
	return &Estimator{
		history:    history,
		window:     defaultWindow,
		minSamples: defaultMinSamples,
		offsets:    []time.Duration{30 * day, 45 * day, 60 * day, 75 * day, 90 * day},
		stay:       defaultStay,
	}
}

// WithSampler enables forward-date bootstrapping for routes without history.
func (e *Estimator) WithSampler(sampler Sampler, converter Converter) *Estimator {
	e.sampler = sampler
	e.converter = converter
	return e
}

func (e *Estimator) WithWindow(window time.Duration) *Estimator {
	e.window = window
	return e
}

func (e *Estimator) WithMinSamples(n int) *Estimator {
	e.minSamples = max(n, 1)
	return e
}

func (e *Estimator) WithForwardOffsets(offsets ...time.Duration) *Estimator {
	e.offsets = offsets
	return e
}

func (e *Estimator) WithStay(stay time.Duration) *Estimator {
	e.stay = stay
	return e
}

// FromHistory returns the trailing-window mean when enough observations
// exist.
func (e *Estimator) FromHistory(
	ctx context.Context,
	route value.Route,
	cabin value.CabinClass,
	currency value.Currency,
	now time.Time,
) (decimal.Decimal, int, bool, error) {
	prices, err := e.history.ListPrices(ctx, route, cabin, currency, now.Add(-e.window))
	if err != nil {
		return decimal.Zero, 0, false, fmt.Errorf("history.ListPrices: %w", err)
	}

	if len(prices) < e.minSamples {
		return decimal.Zero, len(prices), false, nil
	}

	return Mean(prices), len(prices), true, nil
}

// FromSamples returns the median of forward samples when enough exist.
func (e *Estimator) FromSamples(prices []decimal.Decimal) (decimal.Decimal, bool) {
	if len(prices) < e.minSamples {
		return decimal.Zero, false
	}

	return Median(prices), true
}

// Estimate uses history first and falls back to forward sampling. The
// boolean is false when no reliable baseline exists.
func (e *Estimator) Estimate(
	ctx context.Context,
	route value.Route,
	cabin value.CabinClass,
	currency value.Currency,
	now time.Time,
) (Estimate, bool, error) {
	price, n, ok, err := e.FromHistory(ctx, route, cabin, currency, now)
	if err != nil {
		return Estimate{}, false, err
	}

	if ok {
		return Estimate{Price: price, Source: SourceHistory, Samples: n}, true, nil
	}

	if e.sampler == nil {
		return Estimate{Samples: n}, false, nil
	}

	samples, calls, err := e.sample(ctx, route, cabin, currency, now)
	if err != nil {
		return Estimate{Calls: calls}, false, err
	}

	median, ok := e.FromSamples(samples)
	if !ok {
		logger(ctx).Debug("not enough forward samples",
			slog.String(logx.FieldRoute, route.String()),
			slog.Int("samples", len(samples)),
		)

		return Estimate{Samples: len(samples), Calls: calls}, false, nil
	}

	return Estimate{
		Price:   median,
		Source:  SourceForwardSamples,
		Samples: len(samples),
		Calls:   calls,
	}, true, nil
}

// sample queries every forward offset. Failed samples are skipped; only
// cancellation aborts.
func (e *Estimator) sample(
	ctx context.Context,
	route value.Route,
	cabin value.CabinClass,
	currency value.Currency,
	now time.Time,
) ([]decimal.Decimal, int, error) {
	prices := make([]decimal.Decimal, 0, len(e.offsets))
	calls := 0

	for _, offset := range e.offsets {
		if err := ctx.Err(); err != nil {
			return prices, calls, err
		}

		departure := now.Add(offset).Truncate(day)
		calls++

		quote, err := e.sampler.SamplePrice(ctx, route, cabin, departure, departure.Add(e.stay))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return prices, calls, err
			}

			logger(ctx).Warn("forward sample failed",
				slog.String(logx.FieldRoute, route.String()),
				slog.Time("departure", departure),
				logx.Error(err),
			)

			continue
		}

		if quote == nil || !quote.Price.IsPositive() {
			continue
		}

		price, err := e.convert(ctx, quote.Price, quote.Currency, currency)
		if err != nil {
			logger(ctx).Warn("forward sample conversion failed",
				slog.String(logx.FieldRoute, route.String()),
				logx.Error(err),
			)

			continue
		}

		prices = append(prices, price)
	}

	return prices, calls, nil
}

func (e *Estimator) convert(ctx context.Context, amount decimal.Decimal, from, to value.Currency) (decimal.Decimal, error) {
	if from == to || from == "" {
		return amount, nil
	}

	if e.converter == nil {
		return decimal.Zero, fmt.Errorf("no converter for %s to %s", from, to)
	}

	return e.converter.Convert(ctx, amount, from, to)
}

func Mean(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}

	return decimal.Sum(decimal.Zero, prices...).
		Div(decimal.NewFromInt(int64(len(prices)))).
		Round(2) //nolint:mnd
}

// Median of an even count is the mean of the two middle values.
func Median(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}

	sorted := slices.Clone(prices)
	slices.SortFunc(sorted, func(a, b decimal.Decimal) int {
		return a.Cmp(b)
	})

	mid := len(sorted) / 2 //nolint:mnd

	if len(sorted)%2 == 1 {
		return sorted[mid]
	}

	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2)) //nolint:mnd
}
