package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/service/pipeline"
	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/logx"
	"fareglitch/pkg/lox"
)

const (
	DefaultSchedule  = "@every 4h"
	DefaultBatchSize = 5
)

type Scanner interface {
	Scan(ctx context.Context, req pipeline.ScanRequest) (pipeline.ScanResult, error)
}

// ParseSchedule accepts five-field cron expressions and descriptors such as
// "@every 4h" or "@hourly".
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(strings.TrimSpace(spec))
	if err != nil {
		return nil, domain.WrapError(err, errcodes.ValidationError, fmt.Sprintf("invalid schedule %q", spec))
	}

	return schedule, nil
}

type Status struct {
	Running   bool
	Scanning  bool
	Origins   []string
	NextBatch []string
	NextRunAt *time.Time
	LastScan  *pipeline.ScanResult
}

// Scheduler runs one scan per schedule tick over a rotating batch of
// origins. At most one scan runs at a time: a manual trigger during a scan is
// rejected with ScanInProgress and a scheduled tick waits for the running
// scan to finish.
type Scheduler struct {
	scanner   Scanner
	schedule  cron.Schedule
	batchSize int
	hint      int
	now       func() time.Time

	// slot is a single-place semaphore guarding scan execution.
	slot chan struct{}

	mu         sync.Mutex
	origins    []string
	cursor     int
	nextRunAt  time.Time
	lastScan   *pipeline.ScanResult
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
}

func NewScheduler(scanner Scanner, schedule cron.Schedule) *Scheduler {
	return &Scheduler{
		scanner:   scanner,
		schedule:  schedule,
		batchSize: DefaultBatchSize,
		now:       time.Now,
		slot:      make(chan struct{}, 1),
	}
}

// WithOrigins seeds the rotation. Invalid codes are dropped.
func (w *Scheduler) WithOrigins(origins ...string) *Scheduler {
	_ = w.AddOrigins(origins...)
	return w
}

func (w *Scheduler) WithBatchSize(size int) *Scheduler {
	if size > 0 {
		w.batchSize = size
	}
	return w
}

// WithBudgetHintPerOrigin sets the provider calls reserved per origin. Zero
// leaves the estimate to the pipeline.
func (w *Scheduler) WithBudgetHintPerOrigin(calls int) *Scheduler {
	if calls > 0 {
		w.hint = calls
	}
	return w
}

func (w *Scheduler) WithClock(now func() time.Time) *Scheduler {
	w.now = now
	return w
}

func (w *Scheduler) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return errors.New("scheduler is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel
	w.isRunning = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.isRunning = false
			w.cancelFunc = nil
			w.nextRunAt = time.Time{}
			w.mu.Unlock()
		}()

		if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger(ctx).Error("scheduler stopped", logx.Error(err))
		}
	}()

	return nil
}

// Stop cancels the loop and waits for an in-flight scan to wind down.
func (w *Scheduler) Stop() {
	w.mu.Lock()

	if !w.isRunning {
		w.mu.Unlock()
		return
	}

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Scheduler) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

func (w *Scheduler) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	status := Status{
		Running:   w.isRunning,
		Scanning:  len(w.slot) > 0,
		Origins:   append([]string(nil), w.origins...),
		NextBatch: w.peekBatch(),
	}

	if !w.nextRunAt.IsZero() {
		next := w.nextRunAt
		status.NextRunAt = &next
	}

	if w.lastScan != nil {
		last := *w.lastScan
		status.LastScan = &last
	}

	return status
}

// Run blocks until ctx is done, scanning on every schedule tick.
func (w *Scheduler) Run(ctx context.Context) error {
	logger(ctx).Info("scan scheduler started")

	for {
		next := w.schedule.Next(w.now())

		w.mu.Lock()
		w.nextRunAt = next
		w.mu.Unlock()

		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			logger(ctx).Info("scan scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}

		w.tick(ctx)
	}
}

func (w *Scheduler) tick(ctx context.Context) {
	origins := w.nextBatch()
	if len(origins) == 0 {
		logger(ctx).Warn("no origins configured, scheduled scan skipped")
		return
	}

	select {
	case w.slot <- struct{}{}:
	case <-ctx.Done():
		return
	}

	result, err := w.scan(ctx, origins)
	if err != nil {
		if domain.HasCode(err, errcodes.BudgetExhausted) {
			w.rewind(origins)
		}

		logger(ctx).Warn(
			"scheduled scan did not run",
			slog.String(logx.FieldOrigin, strings.Join(origins, ",")),
			logx.Error(err),
		)
		return
	}

	logger(ctx).Info(
		"scheduled scan finished",
		slog.String(logx.FieldScanID, result.ScanID),
		slog.String("status", string(result.Status())),
		slog.Int("deals", len(result.Deals)),
	)
}

// TryScan runs a scan immediately unless another scan is in progress. Empty
// origins scan the next batch of the rotation.
func (w *Scheduler) TryScan(ctx context.Context, origins []string) (pipeline.ScanResult, error) {
	select {
	case w.slot <- struct{}{}:
	default:
		return pipeline.ScanResult{}, domain.NewError(errcodes.ScanInProgress, "a scan is already in progress")
	}

	rotated := len(origins) == 0
	if rotated {
		origins = w.nextBatch()
	}

	if len(origins) == 0 {
		<-w.slot
		return pipeline.ScanResult{}, domain.NewError(errcodes.ValidationError, "no origins configured")
	}

	result, err := w.scan(ctx, origins)
	if rotated && domain.HasCode(err, errcodes.BudgetExhausted) {
		w.rewind(origins)
	}

	return result, err
}

// scan expects the slot to be held and releases it.
func (w *Scheduler) scan(ctx context.Context, origins []string) (pipeline.ScanResult, error) {
	defer func() { <-w.slot }()

	result, err := w.scanner.Scan(ctx, pipeline.ScanRequest{
		Origins:    origins,
		BudgetHint: w.hint * len(origins),
	})

	if result.ScanID != "" {
		w.mu.Lock()
		w.lastScan = &result
		w.mu.Unlock()
	}

	return result, err
}

func (w *Scheduler) nextBatch() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	batch := w.peekBatch()
	if len(w.origins) > 0 {
		w.cursor = (w.cursor + len(batch)) % len(w.origins)
	}

	return batch
}

// rewind returns a batch the budget skipped to the front of the rotation.
func (w *Scheduler) rewind(batch []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if n := len(w.origins); n > 0 {
		w.cursor = ((w.cursor-len(batch))%n + n) % n
	}
}

// peekBatch expects mu to be held.
func (w *Scheduler) peekBatch() []string {
	return lox.Window(w.origins, w.cursor, w.batchSize)
}
