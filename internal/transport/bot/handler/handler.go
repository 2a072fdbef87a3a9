package handler

import (
	"context"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/budget"
	"fareglitch/internal/domain/service/pipeline"
	"fareglitch/internal/domain/service/verify"
	"fareglitch/internal/worker"
	"fareglitch/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Scheduler interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
	Status() worker.Status
	TryScan(ctx context.Context, origins []string) (pipeline.ScanResult, error)

	AddOrigins(codes ...string) error
	RemoveOrigin(code string) bool
	SetOrigins(codes []string) error
	ClearOrigins()
	Origins() []string
}

type Deals interface {
	PublishDeal(ctx context.Context, dealNumber string) (entity.Deal, error)
	CancelDeal(ctx context.Context, dealNumber string) (entity.Deal, error)
	RecheckDeal(ctx context.Context, dealNumber string) (entity.Deal, verify.RecheckResult, error)
	ListScans(ctx context.Context, limit int) ([]entity.ScanLog, error)
}

type Budget interface {
	Snapshot() budget.State
	Limits() budget.Limits
}

type Handler struct {
	scheduler Scheduler
	deals     Deals
	budget    Budget

	// baseCtx outlives individual updates; background scans run on it.
	baseCtx context.Context //nolint:containedctx
}

func New(ctx context.Context, scheduler Scheduler, deals Deals, budget Budget) *Handler {
	return &Handler{
		scheduler: scheduler,
		deals:     deals,
		budget:    budget,
		baseCtx:   ctx,
	}
}
