package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/entity"
	"fareglitch/pkg/errcodes"
)

const subscriberColumns = `
	id, phone_number, email, subscription_type, is_active,
	subscription_expires_at, access_token, created_at`

type SubscriberRepository struct {
	db *sqlx.DB
}

func NewSubscriberRepository(db *sqlx.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

func (r *SubscriberRepository) Create(ctx context.Context, sub entity.Subscriber) error {
	query := `
		INSERT INTO subscribers (` + subscriberColumns + `) VALUES (
			:id, :phone_number, :email, :subscription_type, :is_active,
			:subscription_expires_at, :access_token, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, fromSubscriber(sub)); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to create subscriber")
	}

	return nil
}

func (r *SubscriberRepository) GetByAccessToken(ctx context.Context, token string) (entity.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE access_token = $1`

	var schema subscriberSchema
	if err := r.db.GetContext(ctx, &schema, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Subscriber{}, domain.NewError(errcodes.SubscriberNotFound, "subscriber not found")
		}

		return entity.Subscriber{}, domain.WrapError(err, errcodes.InternalServerError, "failed to get subscriber")
	}

	return schema.toDomain(), nil
}
