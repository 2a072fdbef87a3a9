package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"fareglitch/internal/domain/value"
)

type Subscriber struct {
	ID          string
	PhoneNumber string
	Email       string
	Type        value.SubscriptionType
	IsActive    bool
	ExpiresAt   *time.Time
	AccessToken string
	CreatedAt   time.Time
}

// IsPremium reports an active monthly subscription that has not lapsed.
func (s *Subscriber) IsPremium(now time.Time) bool {
	if s == nil || !s.IsActive || s.Type != value.SubscriptionSMSMonthly {
		return false
	}

	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// NewSubscriber issues a subscriber with a fresh access token. A positive
// period sets the subscription expiry.
func NewSubscriber(
	email, phone string,
	typ value.SubscriptionType,
	period time.Duration,
	now time.Time,
) Subscriber {
	sub := Subscriber{
		ID:          xid.New().String(),
		PhoneNumber: phone,
		Email:       email,
		Type:        typ,
		IsActive:    true,
		AccessToken: uuid.NewString(),
		CreatedAt:   now,
	}

	if period > 0 {
		expiresAt := now.Add(period)
		sub.ExpiresAt = &expiresAt
	}

	return sub
}
