package budget

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fareglitch/pkg/contextx"
	"fareglitch/pkg/logx"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

//nolint:gochecknoglobals
var (
	callsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fareglitch",
		Subsystem: "budget",
		Name:      "calls",
		Help:      "External provider calls spent in the current period.",
	}, []string{"period"})
)

// Limits are the daily and monthly caps. Zero disables a cap.
type Limits struct {
	Daily   int
	Monthly int
}

// State is the budget counter value object. Its methods never mutate the
// receiver.
type State struct {
	CallsToday     int    `json:"callsToday"`
	DayMarker      string `json:"dayMarker"`
	CallsThisMonth int    `json:"callsThisMonth"`
	MonthMarker    string `json:"monthMarker"`
}

// Rollover resets counters whose marker no longer matches now.
func (s State) Rollover(now time.Time) State {
	day := now.Format(dayLayout)
	month := now.Format(monthLayout)

	if s.DayMarker != day {
		s.DayMarker = day
		s.CallsToday = 0
	}

	if s.MonthMarker != month {
		s.MonthMarker = month
		s.CallsThisMonth = 0
	}

	return s
}

func (s State) Add(calls int, now time.Time) State {
	s = s.Rollover(now)
	s.CallsToday += calls
	s.CallsThisMonth += calls

	return s
}

// CanAfford reports whether calls more calls stay within both caps.
func (s State) CanAfford(limits Limits, calls int, now time.Time) bool {
	s = s.Rollover(now)

	if limits.Daily > 0 && s.CallsToday+calls > limits.Daily {
		return false
	}

	if limits.Monthly > 0 && s.CallsThisMonth+calls > limits.Monthly {
		return false
	}

	return true
}

type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

// Tracker owns the budget state of one scheduler. All methods are safe for
// concurrent use.
type Tracker struct {
	mu     sync.Mutex
	limits Limits
	state  State
	store  Store
	now    func() time.Time
}

func NewTracker(limits Limits) *Tracker {
	return &Tracker{
		limits: limits,
		now:    time.Now,
	}
}

func (t *Tracker) WithStore(store Store) *Tracker {
	t.store = store
	return t
}

func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Load restores the counters from the store, if one is configured.
func (t *Tracker) Load(ctx context.Context) error {
	if t.store == nil {
		return nil
	}

	state, err := t.store.Load(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.state = state.Rollover(t.now())
	t.observe()
	t.mu.Unlock()

	logger(ctx).Info("budget counters loaded",
		slog.Int("calls-today", state.CallsToday),
		slog.Int("calls-this-month", state.CallsThisMonth),
	)

	return nil
}

func (t *Tracker) WithinBudget() bool {
	return t.CanAfford(1)
}

func (t *Tracker) CanAfford(calls int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state.CanAfford(t.limits, calls, t.now())
}

// RecordUsage adds calls to both counters and persists them. A failed save
// is logged; the in-memory counters stay authoritative.
func (t *Tracker) RecordUsage(ctx context.Context, calls int) State {
	if calls <= 0 {
		return t.Snapshot()
	}

	t.mu.Lock()
	t.state = t.state.Add(calls, t.now())
	state := t.state
	t.observe()
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.Save(ctx, state); err != nil {
			logger(ctx).Error("budget store save failed", logx.Error(err))
		}
	}

	return state
}

func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = t.state.Rollover(t.now())

	return t.state
}

func (t *Tracker) Limits() Limits {
	return t.limits
}

func (t *Tracker) observe() {
	callsGauge.WithLabelValues("day").Set(float64(t.state.CallsToday))
	callsGauge.WithLabelValues("month").Set(float64(t.state.CallsThisMonth))
}
