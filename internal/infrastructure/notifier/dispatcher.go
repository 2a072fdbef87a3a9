package notifier

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fareglitch/internal/domain/entity"
	"fareglitch/pkg/logx"
)

const defaultQueueSize = 64

//nolint:gochecknoglobals
var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fareglitch",
	Subsystem: "notifier",
	Name:      "notifications_total",
	Help:      "Deal notifications by sink and result.",
}, []string{"sink", "result"})

// Sink is a delivery channel for published deals.
type Sink interface {
	Name() string
	Send(ctx context.Context, deal entity.Deal) error
}

type Deduplicator interface {
	Claim(ctx context.Context, key string) (bool, error)
}

// Dispatcher fans published deals out to every sink, once per deal number.
// Delivery failures are logged and never reach the pipeline.
type Dispatcher struct {
	queue chan entity.Deal
	sinks []Sink
	dedup Deduplicator
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		queue: make(chan entity.Deal, defaultQueueSize),
		sinks: sinks,
	}
}

func (d *Dispatcher) WithDeduplicator(dedup Deduplicator) *Dispatcher {
	d.dedup = dedup
	return d
}

func (d *Dispatcher) WithQueueSize(n int) *Dispatcher {
	if n > 0 {
		d.queue = make(chan entity.Deal, n)
	}

	return d
}

// Notify enqueues a deal without blocking. A full queue drops the deal.
func (d *Dispatcher) Notify(ctx context.Context, deal entity.Deal) {
	select {
	case d.queue <- deal:
	default:
		notificationsTotal.WithLabelValues("queue", "dropped").Inc()
		logger(ctx).Warn("notification queue full, deal dropped", slog.String(logx.FieldDealNumber, deal.DealNumber))
	}
}

// Run delivers queued deals until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case deal := <-d.queue:
			d.Deliver(ctx, deal)
		}
	}
}

func (d *Dispatcher) Deliver(ctx context.Context, deal entity.Deal) {
	if d.dedup != nil {
		first, err := d.dedup.Claim(ctx, deal.DealNumber)
		if err != nil {
			logger(ctx).Warn("dedup claim failed, delivering anyway",
				slog.String(logx.FieldDealNumber, deal.DealNumber),
				logx.Error(err),
			)
		} else if !first {
			notificationsTotal.WithLabelValues("dedup", "skipped").Inc()
			return
		}
	}

	for _, sink := range d.sinks {
		if err := sink.Send(ctx, deal); err != nil {
			notificationsTotal.WithLabelValues(sink.Name(), "failed").Inc()
			logger(ctx).Error("failed to send deal",
				slog.String("sink", sink.Name()),
				slog.String(logx.FieldDealNumber, deal.DealNumber),
				logx.Error(err),
			)

			continue
		}

		notificationsTotal.WithLabelValues(sink.Name(), "sent").Inc()
	}
}
