package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"git.appkode.ru/pub/go/failure"
	"github.com/samber/lo"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/budget"
	"fareglitch/internal/domain/service/pipeline"
	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/httpx/reply"
	"fareglitch/pkg/httpx/req"
	"fareglitch/pkg/rest"
)

type scanScheduler interface {
	TryScan(ctx context.Context, origins []string) (pipeline.ScanResult, error)
}

type scanEnqueuer interface {
	EnqueueScan(ctx context.Context, origins []string) (string, error)
}

type scanLogReader interface {
	ListScans(ctx context.Context, limit int) ([]entity.ScanLog, error)
}

type budgetReader interface {
	Snapshot() budget.State
	Limits() budget.Limits
	WithinBudget() bool
}

type ScanServer struct {
	scheduler scanScheduler
	enqueuer  scanEnqueuer
	scanLogs  scanLogReader
	budget    budgetReader
}

func NewScanServer(scheduler scanScheduler, scanLogs scanLogReader, budget budgetReader) ScanServer {
	return ScanServer{
		scheduler: scheduler,
		scanLogs:  scanLogs,
		budget:    budget,
	}
}

// WithEnqueuer enables asynchronous scans through the job queue.
func (s ScanServer) WithEnqueuer(enqueuer scanEnqueuer) ScanServer {
	s.enqueuer = enqueuer
	return s
}

func (s ScanServer) postV1Scans(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.ScanRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	if request.Async {
		if s.enqueuer == nil {
			return failure.NewInvalidArgumentError(
				"async scans are disabled",
				failure.WithCode(errcodes.ValidationError),
				failure.WithDescription("the job queue is not configured"),
			)
		}

		taskID, err := s.enqueuer.EnqueueScan(ctx, request.Origins)
		if err != nil {
			return fmt.Errorf("enqueuer.EnqueueScan: %w", err)
		}

		reply.JSON(ctx, w, http.StatusAccepted, rest.ScanQueued{TaskID: taskID})

		return nil
	}

	result, err := s.scheduler.TryScan(ctx, request.Origins)
	if err != nil {
		return fmt.Errorf("scheduler.TryScan: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTScanResult(result))

	return nil
}

func (s ScanServer) getV1Scans(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return failure.NewInvalidArgumentError(
				fmt.Sprintf("limit %q", raw),
				failure.WithCode(errcodes.InvalidPaging),
				failure.WithDescription("limit must be a non-negative integer"),
			)
		}

		limit = n
	}

	logs, err := s.scanLogs.ListScans(ctx, limit)
	if err != nil {
		return fmt.Errorf("scanLogs.ListScans: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, rest.ScanLogs{Scans: lo.Map(logs, newRESTScanLog)})

	return nil
}

func (s ScanServer) getV1Budget(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	reply.JSON(ctx, w, http.StatusOK, newRESTBudget(s.budget.Snapshot(), s.budget.Limits(), s.budget.WithinBudget()))

	return nil
}
