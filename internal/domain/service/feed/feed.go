package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/visibility"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/errcodes"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

type DealReader interface {
	// ListPublished returns published, unexpired deals newest first. When
	// publishedBefore is set only deals published at or before it are
	// returned.
	ListPublished(ctx context.Context, now time.Time, publishedBefore *time.Time, limit int) ([]entity.Deal, error)
	GetByNumber(ctx context.Context, dealNumber string) (entity.Deal, error)
}

type SubscriberReader interface {
	GetByAccessToken(ctx context.Context, token string) (entity.Subscriber, error)
}

type Service struct {
	deals       DealReader
	subscribers SubscriberReader
	gate        visibility.Gate
	now         func() time.Time
}

func NewService(deals DealReader, subscribers SubscriberReader, gate visibility.Gate) *Service {
	return &Service{
		deals:       deals,
		subscribers: subscribers,
		gate:        gate,
		now:         time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Viewer resolves an access token. An empty token is an anonymous viewer.
func (s *Service) Viewer(ctx context.Context, token string) (*entity.Subscriber, error) {
	if token == "" {
		return nil, nil //nolint:nilnil
	}

	sub, err := s.subscribers.GetByAccessToken(ctx, token)
	if err != nil {
		if domain.HasCode(err, errcodes.SubscriberNotFound) {
			return nil, domain.WrapError(err, errcodes.AccessTokenInvalid, "access token is invalid")
		}

		return nil, fmt.Errorf("subscribers.GetByAccessToken: %w", err)
	}

	return &sub, nil
}

// Feed lists the deals the viewer may currently see, newest first.
func (s *Service) Feed(ctx context.Context, viewer *entity.Subscriber, limit int) ([]entity.DealTeaser, error) {
	limit, err := NormalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	now := s.now()

	var before *time.Time
	if !viewer.IsPremium(now) {
		cutoff := now.Add(-s.gate.Delay())
		before = &cutoff
	}

	deals, err := s.deals.ListPublished(ctx, now, before, limit)
	if err != nil {
		return nil, fmt.Errorf("deals.ListPublished: %w", err)
	}

	teasers := make([]entity.DealTeaser, 0, len(deals))

	for _, deal := range deals {
		if !s.gate.CanSee(deal, viewer, now) {
			continue
		}

		teasers = append(teasers, deal.Teaser())
	}

	return teasers, nil
}

// Lookup returns the full deal once the viewer is allowed to see it.
func (s *Service) Lookup(ctx context.Context, dealNumber string, viewer *entity.Subscriber) (entity.Deal, error) {
	number, err := value.ParseDealNumber(dealNumber)
	if err != nil {
		return entity.Deal{}, err
	}

	deal, err := s.deals.GetByNumber(ctx, number)
	if err != nil {
		if domain.HasCode(err, errcodes.DealNotFound) {
			return entity.Deal{}, err
		}

		return entity.Deal{}, fmt.Errorf("deals.GetByNumber: %w", err)
	}

	now := s.now()

	switch status := deal.EffectiveStatus(now); status {
	case value.DealStatusExpired, value.DealStatusCanceled:
		return entity.Deal{}, domain.Errorf(errcodes.DealExpired, "deal %s is %s", number, status)
	case value.DealStatusPublished:
	default:
		return entity.Deal{}, domain.Errorf(errcodes.DealNotFound, "deal %s not found", number)
	}

	if !s.gate.CanSee(deal, viewer, now) {
		return entity.Deal{}, domain.NewError(
			errcodes.DealNotVisible,
			fmt.Sprintf("deal %s is visible from %s", number, s.gate.VisibleFrom(deal).Format(time.RFC3339)),
		)
	}

	deal.Status = deal.EffectiveStatus(now)

	return deal, nil
}

var errLimit = errors.New("limit must be positive")

func NormalizeLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return DefaultLimit, nil
	case limit < 0:
		return 0, domain.WrapError(errLimit, errcodes.InvalidPaging, fmt.Sprintf("invalid limit %d", limit))
	case limit > MaxLimit:
		return MaxLimit, nil
	default:
		return limit, nil
	}
}
