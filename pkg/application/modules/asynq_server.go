package modules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"fareglitch/pkg/logx"
)

type AsynqQueues map[string]int

type AsynqHandler struct {
	Pattern string
	Handle  func(context.Context, *asynq.Task) error
}

type AsynqServer struct {
	RedisUsername string
	RedisPassword string
	RedisAddress  string
	RedisDB       int
	Concurrency   int
}

// RedisClientOpt returns the broker connection for producers sharing the
// server's redis.
func (s AsynqServer) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     s.RedisAddress,
		Username: s.RedisUsername,
		Password: s.RedisPassword,
		DB:       s.RedisDB,
	}
}

// asynqLogger routes asynq's internal logs through slog.
type asynqLogger struct {
	ctx context.Context //nolint:containedctx
}

func (l asynqLogger) Debug(args ...any) { logger(l.ctx).Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { logger(l.ctx).Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { logger(l.ctx).Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...any) { logger(l.ctx).Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...any) { logger(l.ctx).Error(fmt.Sprint(args...)) }

func (s AsynqServer) Run(
	ctx context.Context,
	g *errgroup.Group,
	queues AsynqQueues,
	handlers ...AsynqHandler,
) {
	g.Go(func() error {
		worker := asynq.NewServer(s.RedisClientOpt(), asynq.Config{
			BaseContext:  func() context.Context { return ctx },
			Queues:       queues,
			Concurrency:  s.Concurrency,
			Logger:       asynqLogger{ctx: ctx},
			ErrorHandler: asynq.ErrorHandlerFunc(logTaskError),
		})

		mux := asynq.NewServeMux()

		for _, h := range handlers {
			mux.HandleFunc(h.Pattern, h.Handle)
		}

		if err := worker.Start(mux); err != nil {
			return fmt.Errorf("asynqServer.Start: %w", err)
		}

		attrs := []any{slog.String("redis-address", s.RedisAddress), slog.Int("redis-db", s.RedisDB)}

		logger(ctx).Info("asynq server started", attrs...)

		<-ctx.Done()
		worker.Shutdown()

		logger(ctx).Info("asynq server stopped", attrs...)

		return nil
	})
}

func logTaskError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	logger(ctx).Warn("asynq task failed",
		slog.String("task-type", task.Type()),
		slog.Int("retried", retried),
		slog.Int("max-retry", maxRetry),
		logx.Error(err),
	)
}
