package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/errcodes"
)

const dealColumns = `
	deal_number, scan_id, origin, destination, cabin, airline, tier,
	normal_price, mistake_price, savings_amount, savings_pct, currency, status,
	departure_date, return_date, detected_at, validated_at, published_at,
	expires_at, booking_link, unlock_fee, total_unlocks, total_revenue`

type DealRepository struct {
	db *sqlx.DB
}

func NewDealRepository(db *sqlx.DB) *DealRepository {
	return &DealRepository{db: db}
}

// NextDealSequence draws the next number shared by every deal tier.
func (r *DealRepository) NextDealSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, `SELECT nextval('deal_number_seq')`); err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to draw deal number")
	}

	return seq, nil
}

// Create inserts a deal. An existing deal number is never overwritten.
func (r *DealRepository) Create(ctx context.Context, deal entity.Deal) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO deals (` + dealColumns + `) VALUES (
				:deal_number, :scan_id, :origin, :destination, :cabin, :airline, :tier,
				:normal_price, :mistake_price, :savings_amount, :savings_pct, :currency, :status,
				:departure_date, :return_date, :detected_at, :validated_at, :published_at,
				:expires_at, :booking_link, :unlock_fee, :total_unlocks, :total_revenue
			)
			ON CONFLICT (deal_number) DO NOTHING`

		res, err := tx.NamedExecContext(ctx, query, fromDeal(deal))
		if err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to create deal")
		}

		rows, _ := res.RowsAffected()
		if rows == 0 {
			return domain.Errorf(errcodes.DuplicateDealNumber, "deal %s already exists", deal.DealNumber)
		}

		return nil
	})
}

func (r *DealRepository) GetByNumber(ctx context.Context, dealNumber string) (entity.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE deal_number = $1`

	var schema dealSchema
	if err := r.db.GetContext(ctx, &schema, query, dealNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Deal{}, domain.Errorf(errcodes.DealNotFound, "deal %s not found", dealNumber)
		}

		return entity.Deal{}, domain.WrapError(err, errcodes.InternalServerError, "failed to get deal")
	}

	return schema.toDomain(), nil
}

// ListPublished returns published deals that have not expired at now,
// newest first.
func (r *DealRepository) ListPublished(
	ctx context.Context,
	now time.Time,
	publishedBefore *time.Time,
	limit int,
) ([]entity.Deal, error) {
	query := `
		SELECT ` + dealColumns + `
		FROM deals
		WHERE status = $1
		  AND published_at IS NOT NULL
		  AND (expires_at IS NULL OR expires_at >= $2)
		  AND ($3::timestamptz IS NULL OR published_at <= $3)
		ORDER BY published_at DESC, deal_number DESC
		LIMIT $4`

	var schemas []dealSchema
	if err := r.db.SelectContext(
		ctx, &schemas, query, string(value.DealStatusPublished), now, publishedBefore, limit,
	); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list deals")
	}

	return toDeals(schemas), nil
}

// ListRecent returns the most recently detected deals in any status.
func (r *DealRepository) ListRecent(ctx context.Context, limit int) ([]entity.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals ORDER BY detected_at DESC, deal_number DESC LIMIT $1`

	var schemas []dealSchema
	if err := r.db.SelectContext(ctx, &schemas, query, limit); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list deals")
	}

	return toDeals(schemas), nil
}

// HasActive reports a validated or published deal for the route and cabin
// that has not expired at now.
func (r *DealRepository) HasActive(
	ctx context.Context,
	route value.Route,
	cabin value.CabinClass,
	now time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM deals
			WHERE origin = $1 AND destination = $2 AND cabin = $3
			  AND status IN ($4, $5)
			  AND (expires_at IS NULL OR expires_at >= $6)
		)`

	var exists bool
	if err := r.db.GetContext(
		ctx, &exists, query,
		route.Origin, route.Destination, string(cabin),
		string(value.DealStatusValidated), string(value.DealStatusPublished), now,
	); err != nil {
		return false, domain.WrapError(err, errcodes.InternalServerError, "failed to check active deals")
	}

	return exists, nil
}

// Update locks the deal, applies fn and writes back the lifecycle fields.
// Nothing is written when fn fails.
func (r *DealRepository) Update(
	ctx context.Context,
	dealNumber string,
	fn func(deal *entity.Deal) error,
) (entity.Deal, error) {
	var updated entity.Deal

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `SELECT ` + dealColumns + ` FROM deals WHERE deal_number = $1 FOR UPDATE`

		var schema dealSchema
		if err := tx.GetContext(ctx, &schema, query, dealNumber); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.Errorf(errcodes.DealNotFound, "deal %s not found", dealNumber)
			}

			return domain.WrapError(err, errcodes.InternalServerError, "failed to lock deal")
		}

		deal := schema.toDomain()
		if err := fn(&deal); err != nil {
			return err
		}

		updateQuery := `
			UPDATE deals SET
				status = :status,
				validated_at = :validated_at,
				published_at = :published_at,
				expires_at = :expires_at,
				total_unlocks = :total_unlocks,
				total_revenue = :total_revenue
			WHERE deal_number = :deal_number`

		if _, err := tx.NamedExecContext(ctx, updateQuery, fromDeal(deal)); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to update deal")
		}

		updated = deal

		return nil
	})
	if err != nil {
		return entity.Deal{}, err
	}

	return updated, nil
}

func toDeals(schemas []dealSchema) []entity.Deal {
	deals := make([]entity.Deal, 0, len(schemas))
	for _, s := range schemas {
		deals = append(deals, s.toDomain())
	}

	return deals
}
