package persistence

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/errcodes"
)

// ObservationRepository is the append-only price history. Rows are never
// updated; the trailing window is applied when reading.
type ObservationRepository struct {
	db *sqlx.DB
}

func NewObservationRepository(db *sqlx.DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

func (r *ObservationRepository) Append(ctx context.Context, obs entity.PriceObservation) error {
	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now()
	}

	query := `
		INSERT INTO price_observations (origin, destination, cabin, price, currency, source, observed_at)
		VALUES (:origin, :destination, :cabin, :price, :currency, :source, :observed_at)`

	if _, err := r.db.NamedExecContext(ctx, query, fromObservation(obs)); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to append observation")
	}

	return nil
}

func (r *ObservationRepository) ListPrices(
	ctx context.Context,
	route value.Route,
	cabin value.CabinClass,
	currency value.Currency,
	since time.Time,
) ([]decimal.Decimal, error) {
	query := `
		SELECT price FROM price_observations
		WHERE origin = $1 AND destination = $2 AND cabin = $3 AND currency = $4
		  AND observed_at >= $5
		ORDER BY observed_at`

	var prices []decimal.Decimal
	if err := r.db.SelectContext(
		ctx, &prices, query, route.Origin, route.Destination, string(cabin), string(currency), since,
	); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list observations")
	}

	return prices, nil
}
