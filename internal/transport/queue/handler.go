package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/service/pipeline"
	"fareglitch/pkg/application/modules"
	"fareglitch/pkg/contextx"
	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Scheduler interface {
	TryScan(ctx context.Context, origins []string) (pipeline.ScanResult, error)
}

type Handler struct {
	scheduler Scheduler
}

func NewHandler(scheduler Scheduler) *Handler {
	return &Handler{scheduler: scheduler}
}

func (h *Handler) Handlers() []modules.AsynqHandler {
	return []modules.AsynqHandler{
		{Pattern: TypeScanOrigins, Handle: h.HandleScanOrigins},
	}
}

// HandleScanOrigins runs a queued scan. A busy scheduler is retried later;
// invalid payloads and an exhausted budget are not retried.
func (h *Handler) HandleScanOrigins(ctx context.Context, task *asynq.Task) error {
	var payload ScanOriginsPayload
	if err := jsoniter.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("jsoniter.Unmarshal: %v: %w", err, asynq.SkipRetry)
	}

	result, err := h.scheduler.TryScan(ctx, payload.Origins)

	code, _ := domain.GetCode(err)

	switch {
	case err == nil:
		logger(ctx).Info(
			"queued scan finished",
			slog.String(logx.FieldScanID, result.ScanID),
			slog.String(logx.FieldOrigin, strings.Join(result.Origins, ",")),
			slog.Int("deals", len(result.Deals)),
		)
		return nil
	case code == errcodes.ScanInProgress:
		return err
	case code == errcodes.BudgetExhausted,
		code == errcodes.ValidationError,
		code == errcodes.InvalidAirportCode:
		logger(ctx).Warn("queued scan dropped", logx.Error(err))
		return errors.Join(err, asynq.SkipRetry)
	default:
		return fmt.Errorf("scheduler.TryScan: %w", err)
	}
}
