package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fareglitch/internal/config"
	"fareglitch/internal/domain/service/baseline"
	"fareglitch/internal/domain/service/budget"
	"fareglitch/internal/domain/service/dealfactory"
	"fareglitch/internal/domain/service/feed"
	"fareglitch/internal/domain/service/pipeline"
	"fareglitch/internal/domain/service/scoring"
	"fareglitch/internal/domain/service/verify"
	"fareglitch/internal/domain/service/visibility"
	"fareglitch/internal/domain/value"
	"fareglitch/internal/infrastructure/notifier"
	"fareglitch/internal/infrastructure/persistence"
	"fareglitch/internal/infrastructure/redisstore"
	"fareglitch/internal/server"
	"fareglitch/internal/transport/bot"
	"fareglitch/internal/transport/bot/handler"
	"fareglitch/internal/transport/queue"
	"fareglitch/internal/worker"
	"fareglitch/pkg/application/connectors"
	"fareglitch/pkg/application/modules"
	"fareglitch/pkg/contextx"
	"fareglitch/pkg/limiter"
	"fareglitch/pkg/logx"
	"fareglitch/pkg/probe"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// App holds the wired services. Commands that only need a slice of it
// (dealctl) build the same graph and leave the servers off.
type App struct {
	cfg config.Config

	postgres *connectors.Postgres
	redis    *connectors.Redis
	asynq    *asynq.Client

	Budget      *budget.Tracker
	Pipeline    *pipeline.Service
	Feed        *feed.Service
	Scheduler   *worker.Scheduler
	Subscribers *persistence.SubscriberRepository
	Dispatcher  *notifier.Dispatcher
	// Producer is nil unless the job queue is enabled.
	Producer *queue.Producer
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{
		cfg: cfg,
		postgres: &connectors.Postgres{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		},
		redis: &connectors.Redis{
			Username:           cfg.Redis.Username,
			Password:           cfg.Redis.Password,
			Address:            cfg.Redis.Address,
			DatabaseNumber:     cfg.Redis.DatabaseNumber,
			PoolSize:           cfg.Redis.PoolSize,
			MinIdleConnections: cfg.Redis.MinIdleConnections,
			MaxIdleConnections: cfg.Redis.MaxIdleConnections,
		},
	}

	db := a.postgres.Client(ctx)
	rdb := a.redis.Client(ctx)

	deals := persistence.NewDealRepository(db)
	observations := persistence.NewObservationRepository(db)
	scanLogs := persistence.NewScanLogRepository(db)
	a.Subscribers = persistence.NewSubscriberRepository(db)

	a.Budget = budget.NewTracker(budget.Limits{
		Daily:   cfg.Budget.Daily,
		Monthly: cfg.Budget.Monthly,
	}).WithStore(redisstore.NewBudgetStore(rdb, cfg.Redis.KeyPrefix+":budget"))

	if err := a.Budget.Load(ctx); err != nil {
		return nil, fmt.Errorf("budget.Load: %w", err)
	}

	providers, err := newProviders(cfg.Providers, cfg.HTTP.LogFieldMaxLen)
	if err != nil {
		return nil, err
	}

	verifier := verify.NewVerifier(providers.live, limiter.NewMinInterval(cfg.Scanner.VerifyMinInterval)).
		WithTolerance(cfg.Scanner.VerifyTolerance).
		WithConverter(providers.fx)

	estimator := baseline.NewEstimator(observations).
		WithSampler(verifier, providers.fx).
		WithWindow(cfg.Baseline.Window).
		WithMinSamples(cfg.Baseline.MinSamples).
		WithForwardOffsets(cfg.Baseline.ForwardOffsets...).
		WithStay(cfg.Baseline.Stay)

	scorer := scoring.NewScorer(
		scoring.Threshold{MinPct: cfg.Scorer.MistakePct, Tier: value.TierMistakeFare, Expiry: cfg.Scorer.MistakeExpiry},
		scoring.Threshold{MinPct: cfg.Scorer.GoodPct, Tier: value.TierGoodDeal, Expiry: cfg.Scorer.GoodExpiry},
	).
		WithMinSavings(cfg.Scorer.MinSavings).
		WithCabinMultipliers(value.CabinMultipliers{
			value.CabinEconomy:        decimal.NewFromInt(1),
			value.CabinPremiumEconomy: cfg.Scorer.PremiumEconomyMult,
			value.CabinBusiness:       cfg.Scorer.BusinessMult,
			value.CabinFirst:          cfg.Scorer.FirstMult,
		})

	factory := dealfactory.NewFactory(deals, scorer).
		WithUnlockFee(cfg.Deals.UnlockFee).
		WithBookingLinkBase(cfg.Deals.BookingLinkBase)

	a.Dispatcher = notifier.NewDispatcher(a.sinks(ctx, rdb)...).
		WithDeduplicator(redisstore.NewDeduplicator(rdb, cfg.Redis.KeyPrefix+":alerted", cfg.Deals.AlertDedupTTL))

	a.Pipeline = pipeline.NewService(
		providers.candidates,
		estimator,
		scorer,
		verifier,
		factory,
		observations,
		deals,
		scanLogs,
		a.Budget,
	).
		WithConverter(providers.fx).
		WithNotifier(a.Dispatcher).
		WithAutoPublish(cfg.Scanner.AutoPublish).
		WithCallsPerOrigin(cfg.Scanner.BudgetHintPerOrigin)

	a.Feed = feed.NewService(deals, a.Subscribers, visibility.NewGate(cfg.Visibility.FreeDelay))

	schedule, err := worker.ParseSchedule(cfg.Scanner.Schedule)
	if err != nil {
		return nil, fmt.Errorf("worker.ParseSchedule: %w", err)
	}

	a.Scheduler = worker.NewScheduler(a.Pipeline, schedule).
		WithOrigins(cfg.Scanner.Origins...).
		WithBatchSize(cfg.Scanner.BatchSize).
		WithBudgetHintPerOrigin(cfg.Scanner.BudgetHintPerOrigin)

	if cfg.Queue.Enabled {
		a.asynq = asynq.NewClient(a.asynqServer().RedisClientOpt())
		a.Producer = queue.NewProducer(a.asynq)
	}

	return a, nil
}

func (a *App) sinks(ctx context.Context, rdb redis.Cmdable) []notifier.Sink {
	sinks := []notifier.Sink{redisstore.NewStreamPublisher(rdb, a.cfg.Deals.AlertStream)}

	if a.cfg.Bot.Enabled() && a.cfg.Bot.ChatID != 0 {
		tg, err := notifier.NewTelegramBot(a.cfg.Bot.Token, a.cfg.Bot.ChatID)
		if err != nil {
			logger(ctx).Warn("telegram alerts disabled", logx.Error(err))
		} else {
			sinks = append(sinks, tg)
		}
	}

	return sinks
}

func (a *App) asynqServer() modules.AsynqServer {
	return modules.AsynqServer{
		RedisUsername: a.cfg.Redis.Username,
		RedisPassword: a.cfg.Redis.Password,
		RedisAddress:  a.cfg.Redis.Address,
		RedisDB:       a.cfg.Redis.DatabaseNumber,
		Concurrency:   a.cfg.Queue.Concurrency,
	}
}

// Run starts every long-running module and blocks until ctx is done or one
// of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	modules.ProbeServer{
		Name:          a.cfg.App.Name,
		Version:       a.cfg.App.Version,
		ListenAddress: a.cfg.Probe.ListenAddress,
		CheckTimeout:  a.cfg.Probe.CheckTimeout,
		Checks: map[string]probe.Check{
			"postgres": a.postgres.Ping,
			"redis":    a.redis.Ping,
		},
	}.Run(ctx, g)

	modules.MetricServer{
		ListenAddress: a.cfg.Metrics.ListenAddress,
		Namespace:     "fareglitch",
		Name:          a.cfg.App.Name,
		Version:       a.cfg.App.Version,
	}.Run(ctx, g)

	scanServer := server.NewScanServer(a.Scheduler, a.Pipeline, a.Budget)
	if a.Producer != nil {
		scanServer = scanServer.WithEnqueuer(a.Producer)
	}

	router := server.NewRouter(
		server.NewServer(
			server.NewDealServer(a.Feed),
			scanServer,
			server.NewAdminServer(a.Pipeline, a.Subscribers),
		),
		server.RouterOptions{
			AdminToken:     a.cfg.HTTP.AdminToken,
			CORSOrigins:    a.cfg.HTTP.CORSOrigins,
			LogFieldMaxLen: a.cfg.HTTP.LogFieldMaxLen,
		},
	)

	modules.HTTPServer{
		ListenAddress:   a.cfg.HTTP.ListenAddress,
		Handler:         router,
		ShutdownTimeout: a.cfg.HTTP.ShutdownTimeout,
	}.Run(ctx, g)

	if a.cfg.Queue.Enabled {
		a.asynqServer().Run(
			ctx,
			g,
			modules.AsynqQueues{queue.QueueScans: 1},
			queue.NewHandler(a.Scheduler).Handlers()...,
		)
	}

	g.Go(func() error {
		return a.Dispatcher.Run(ctx)
	})

	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("scheduler.Start: %w", err)
	}

	g.Go(func() error {
		<-ctx.Done()
		a.Scheduler.Stop()

		return nil
	})

	if a.cfg.Bot.Enabled() && a.cfg.Bot.AdminID != 0 {
		adminBot, err := bot.New(
			a.cfg.Bot.Token,
			a.cfg.Bot.AdminID,
			handler.New(ctx, a.Scheduler, a.Pipeline, a.Budget),
		)
		if err != nil {
			return fmt.Errorf("bot.New: %w", err)
		}

		g.Go(func() error {
			return adminBot.Run(ctx)
		})
	}

	logger(ctx).Info("application started",
		slog.String("candidate-provider", a.cfg.Providers.Candidate),
		slog.String("live-provider", a.cfg.Providers.Live),
		slog.Any("origins", a.Scheduler.Origins()),
	)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("errgroup.Wait: %w", err)
	}

	return nil
}

func (a *App) Close(ctx context.Context) {
	if a.asynq != nil {
		if err := a.asynq.Close(); err != nil {
			logger(ctx).Warn("asynq.Close", logx.Error(err))
		}
	}

	a.redis.Close(ctx)
	a.postgres.Close(ctx)
}
