package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/entity"
	"fareglitch/pkg/errcodes"
)

type ScanLogRepository struct {
	db *sqlx.DB
}

func NewScanLogRepository(db *sqlx.DB) *ScanLogRepository {
	return &ScanLogRepository{db: db}
}

func (r *ScanLogRepository) Create(ctx context.Context, log entity.ScanLog) error {
	query := `
		INSERT INTO scan_logs (
			id, origins, started_at, completed_at, routes_checked, anomalies_found,
			deals_validated, deals_published, errors, api_calls, status
		) VALUES (
			:id, :origins, :started_at, :completed_at, :routes_checked, :anomalies_found,
			:deals_validated, :deals_published, :errors, :api_calls, :status
		)
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.NamedExecContext(ctx, query, fromScanLog(log)); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to create scan log")
	}

	return nil
}

func (r *ScanLogRepository) Update(ctx context.Context, log entity.ScanLog) error {
	query := `
		UPDATE scan_logs SET
			completed_at = :completed_at,
			routes_checked = :routes_checked,
			anomalies_found = :anomalies_found,
			deals_validated = :deals_validated,
			deals_published = :deals_published,
			errors = :errors,
			api_calls = :api_calls,
			status = :status
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, fromScanLog(log))
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to update scan log")
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.Errorf(errcodes.NotFound, "scan log %s not found", log.ID)
	}

	return nil
}

func (r *ScanLogRepository) ListRecent(ctx context.Context, limit int) ([]entity.ScanLog, error) {
	query := `
		SELECT id, origins, started_at, completed_at, routes_checked, anomalies_found,
		       deals_validated, deals_published, errors, api_calls, status
		FROM scan_logs
		ORDER BY started_at DESC
		LIMIT $1`

	var schemas []scanLogSchema
	if err := r.db.SelectContext(ctx, &schemas, query, limit); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list scan logs")
	}

	logs := make([]entity.ScanLog, 0, len(schemas))
	for _, s := range schemas {
		logs = append(logs, s.toDomain())
	}

	return logs, nil
}
