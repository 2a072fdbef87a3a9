package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/service/pipeline"
	"fareglitch/internal/worker"
	"fareglitch/pkg/errcodes"
)

type every time.Duration

func (e every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

type scanner struct {
	mu       sync.Mutex
	requests []pipeline.ScanRequest
	started  chan struct{}
	release  chan struct{}
	err      error
}

func (s *scanner) Scan(ctx context.Context, req pipeline.ScanRequest) (pipeline.ScanResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}

	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
		}
	}

	s.mu.Lock()
	err := s.err
	s.mu.Unlock()

	if err != nil {
		return pipeline.ScanResult{ScanID: "scan", Origins: req.Origins, Skipped: true}, err
	}

	return pipeline.ScanResult{ScanID: "scan", Origins: req.Origins}, nil
}

func (s *scanner) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

func (s *scanner) calls() []pipeline.ScanRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]pipeline.ScanRequest(nil), s.requests...)
}

func TestParseSchedule(t *testing.T) {
	cases := []struct {
		spec  string
		valid bool
	}{
		{spec: "@every 4h", valid: true},
		{spec: "0 */6 * * *", valid: true},
		{spec: "@hourly", valid: true},
		{spec: "every four hours"},
		{spec: ""},
	}

	for _, tc := range cases {
		t.Run(tc.spec, func(t *testing.T) {
			rq := require.New(t)

			schedule, err := worker.ParseSchedule(tc.spec)
			if !tc.valid {
				rq.True(domain.HasCode(err, errcodes.ValidationError))
				return
			}

			rq.NoError(err)
			rq.NotNil(schedule)
		})
	}
}

func TestScheduler_TryScanRotatesBatches(t *testing.T) {
	rq := require.New(t)

	s := &scanner{}
	w := worker.NewScheduler(s, every(time.Hour)).
		WithOrigins("JFK", "LAX", "SFO", "ORD", "MIA").
		WithBatchSize(2).
		WithBudgetHintPerOrigin(10)

	expected := [][]string{
		{"JFK", "LAX"},
		{"SFO", "ORD"},
		{"MIA", "JFK"},
		{"LAX", "SFO"},
	}

	for _, batch := range expected {
		rq.Equal(batch, w.Status().NextBatch)

		result, err := w.TryScan(context.Background(), nil)
		rq.NoError(err)
		rq.Equal(batch, result.Origins)
	}

	calls := s.calls()
	rq.Len(calls, len(expected))
	rq.Equal(20, calls[0].BudgetHint)

	result, err := w.TryScan(context.Background(), []string{"BOS"})
	rq.NoError(err)
	rq.Equal([]string{"BOS"}, result.Origins)
	rq.Equal(10, s.calls()[4].BudgetHint)

	last := w.Status().LastScan
	rq.NotNil(last)
	rq.Equal([]string{"BOS"}, last.Origins)
}

func TestScheduler_BudgetSkipKeepsBatch(t *testing.T) {
	rq := require.New(t)

	s := &scanner{}
	s.fail(domain.NewError(errcodes.BudgetExhausted, "budget cannot cover 20 calls"))

	w := worker.NewScheduler(s, every(time.Hour)).
		WithOrigins("JFK", "LAX", "SFO", "ORD", "MIA").
		WithBatchSize(2)

	for range 2 {
		_, err := w.TryScan(context.Background(), nil)
		rq.True(domain.HasCode(err, errcodes.BudgetExhausted))
		rq.Equal([]string{"JFK", "LAX"}, w.Status().NextBatch)
	}

	// Explicit origins never touch the rotation.
	_, err := w.TryScan(context.Background(), []string{"BOS"})
	rq.Error(err)
	rq.Equal([]string{"JFK", "LAX"}, w.Status().NextBatch)

	s.fail(nil)

	result, err := w.TryScan(context.Background(), nil)
	rq.NoError(err)
	rq.Equal([]string{"JFK", "LAX"}, result.Origins)
	rq.Equal([]string{"SFO", "ORD"}, w.Status().NextBatch)
}

func TestScheduler_ScheduledBudgetSkipRetriesBatch(t *testing.T) {
	rq := require.New(t)

	s := &scanner{}
	s.fail(domain.NewError(errcodes.BudgetExhausted, "budget cannot cover 10 calls"))

	w := worker.NewScheduler(s, every(5*time.Millisecond)).
		WithOrigins("JFK", "LAX", "SFO").
		WithBatchSize(1)

	rq.NoError(w.Start(context.Background()))

	rq.Eventually(func() bool {
		return len(s.calls()) >= 3
	}, time.Second, 5*time.Millisecond)

	w.Stop()

	for _, req := range s.calls() {
		rq.Equal([]string{"JFK"}, req.Origins)
	}
}

func TestScheduler_TryScanSingleFlight(t *testing.T) {
	rq := require.New(t)

	s := &scanner{started: make(chan struct{}), release: make(chan struct{})}
	w := worker.NewScheduler(s, every(time.Hour)).WithOrigins("JFK")

	done := make(chan error, 1)
	go func() {
		_, err := w.TryScan(context.Background(), nil)
		done <- err
	}()

	<-s.started
	rq.True(w.Status().Scanning)

	_, err := w.TryScan(context.Background(), nil)
	rq.True(domain.HasCode(err, errcodes.ScanInProgress))

	close(s.release)
	rq.NoError(<-done)
	rq.False(w.Status().Scanning)

	s.started = nil
	_, err = w.TryScan(context.Background(), nil)
	rq.NoError(err)
}

func TestScheduler_TryScanWithoutOrigins(t *testing.T) {
	rq := require.New(t)

	w := worker.NewScheduler(&scanner{}, every(time.Hour))

	_, err := w.TryScan(context.Background(), nil)
	rq.True(domain.HasCode(err, errcodes.ValidationError))
	rq.False(w.Status().Scanning)
}

func TestScheduler_StartStop(t *testing.T) {
	rq := require.New(t)

	s := &scanner{}
	w := worker.NewScheduler(s, every(5*time.Millisecond)).WithOrigins("JFK", "LAX")

	rq.NoError(w.Start(context.Background()))
	rq.Error(w.Start(context.Background()))
	rq.True(w.IsRunning())

	rq.Eventually(func() bool {
		return len(s.calls()) >= 2
	}, time.Second, 5*time.Millisecond)

	w.Stop()
	rq.False(w.IsRunning())
	rq.Nil(w.Status().NextRunAt)

	// Stopping twice is a no-op.
	w.Stop()
}

func TestScheduler_Origins(t *testing.T) {
	rq := require.New(t)

	w := worker.NewScheduler(&scanner{}, every(time.Hour)).WithBatchSize(1)

	err := w.AddOrigins("jfk", "LAX", "TOOLONG", "JFK")
	rq.Error(err)
	rq.Equal([]string{"JFK", "LAX"}, w.Origins())
	rq.True(w.HasOrigin("lax"))
	rq.False(w.HasOrigin("SFO"))

	// Advance the rotation to LAX, then remove JFK before it.
	_, err = w.TryScan(context.Background(), nil)
	rq.NoError(err)
	rq.Equal([]string{"LAX"}, w.Status().NextBatch)

	rq.True(w.RemoveOrigin("JFK"))
	rq.False(w.RemoveOrigin("JFK"))
	rq.Equal([]string{"LAX"}, w.Status().NextBatch)

	rq.NoError(w.SetOrigins([]string{"NRT", "HND"}))
	rq.Equal([]string{"NRT", "HND"}, w.Origins())
	rq.Equal([]string{"NRT"}, w.Status().NextBatch)

	w.ClearOrigins()
	rq.Empty(w.Origins())
	rq.Empty(w.Status().NextBatch)
}
