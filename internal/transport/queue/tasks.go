package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"
)

const (
	TypeScanOrigins = "scan:origins"
	QueueScans      = "scans"

	scanTaskTimeout = 30 * time.Minute
	scanMaxRetry    = 5
)

type ScanOriginsPayload struct {
	Origins    []string `json:"origins"`
	BudgetHint int      `json:"budget_hint,omitempty"`
}

func NewScanOriginsTask(origins []string) (*asynq.Task, error) {
	payload, err := jsoniter.Marshal(ScanOriginsPayload{Origins: origins})
	if err != nil {
		return nil, fmt.Errorf("jsoniter.Marshal: %w", err)
	}

	return asynq.NewTask(
		TypeScanOrigins,
		payload,
		asynq.Queue(QueueScans),
		asynq.MaxRetry(scanMaxRetry),
		asynq.Timeout(scanTaskTimeout),
	), nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Producer schedules scans for a worker process to pick up.
type Producer struct {
	client enqueuer
}

func NewProducer(client enqueuer) *Producer {
	return &Producer{client: client}
}

// EnqueueScan returns the asynq task id.
func (p *Producer) EnqueueScan(ctx context.Context, origins []string) (string, error) {
	task, err := NewScanOriginsTask(origins)
	if err != nil {
		return "", err
	}

	info, err := p.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("asynq.EnqueueContext: %w", err)
	}

	return info.ID, nil
}
