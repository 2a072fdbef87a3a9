package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"fareglitch/internal/domain"
	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/verify"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/logx"
)

const defaultScanLogLimit = 20

// PublishDeal releases a validated deal to the feed.
func (s *Service) PublishDeal(ctx context.Context, dealNumber string) (entity.Deal, error) {
	now := s.now()

	deal, err := s.mutate(ctx, dealNumber, func(d *entity.Deal) error {
		ttl, ok := s.scorer.ExpiryFor(d.Tier)
		if !ok {
			return domain.Errorf(errcodes.InvalidDealStatus, "tier %s has no expiry", d.Tier)
		}

		return d.Publish(now, ttl)
	})
	if err != nil {
		return entity.Deal{}, err
	}

	dealsTotal.WithLabelValues(string(deal.Tier), string(deal.Status)).Inc()
	logger(ctx).Info("deal published", slog.String(logx.FieldDealNumber, deal.DealNumber))

	s.notify(ctx, deal)

	return deal, nil
}

// CancelDeal withdraws a published deal after an airline correction.
func (s *Service) CancelDeal(ctx context.Context, dealNumber string) (entity.Deal, error) {
	now := s.now()

	deal, err := s.mutate(ctx, dealNumber, func(d *entity.Deal) error {
		return d.Cancel(now)
	})
	if err != nil {
		return entity.Deal{}, err
	}

	dealsTotal.WithLabelValues(string(deal.Tier), string(deal.Status)).Inc()
	logger(ctx).Info("deal canceled", slog.String(logx.FieldDealNumber, deal.DealNumber))

	return deal, nil
}

// RecheckDeal re-prices a live deal and cancels it once the fare is gone.
func (s *Service) RecheckDeal(ctx context.Context, dealNumber string) (entity.Deal, verify.RecheckResult, error) {
	rechecker, ok := s.verifier.(Rechecker)
	if !ok {
		return entity.Deal{}, verify.RecheckResult{}, domain.NewError(errcodes.InvalidDealStatus, "live recheck is not supported")
	}

	number, err := value.ParseDealNumber(dealNumber)
	if err != nil {
		return entity.Deal{}, verify.RecheckResult{}, err
	}

	deal, err := s.deals.GetByNumber(ctx, number)
	if err != nil {
		if domain.IsAppError(err) {
			return entity.Deal{}, verify.RecheckResult{}, err
		}

		return entity.Deal{}, verify.RecheckResult{}, fmt.Errorf("deals.GetByNumber: %w", err)
	}

	if !deal.IsLive(s.now()) {
		return entity.Deal{}, verify.RecheckResult{}, domain.Errorf(
			errcodes.InvalidDealStatus,
			"deal %s is %s", deal.DealNumber, deal.EffectiveStatus(s.now()),
		)
	}

	if !s.budget.CanAfford(1) {
		return entity.Deal{}, verify.RecheckResult{}, domain.NewError(errcodes.BudgetExhausted, "no budget left for a live recheck")
	}

	result, err := rechecker.Recheck(ctx, deal)
	s.budget.RecordUsage(context.WithoutCancel(ctx), 1)

	if err != nil {
		return entity.Deal{}, verify.RecheckResult{}, fmt.Errorf("verifier.Recheck: %w", err)
	}

	logger(ctx).Info("deal rechecked",
		slog.String(logx.FieldDealNumber, deal.DealNumber),
		slog.Bool("holds", result.Holds),
	)

	if result.Holds {
		return deal, result, nil
	}

	deal, err = s.CancelDeal(ctx, deal.DealNumber)
	if err != nil {
		return entity.Deal{}, verify.RecheckResult{}, err
	}

	return deal, result, nil
}

// RecordUnlock books one paid unlock against a live deal.
func (s *Service) RecordUnlock(ctx context.Context, dealNumber string) (entity.Deal, error) {
	now := s.now()

	return s.mutate(ctx, dealNumber, func(d *entity.Deal) error {
		switch status := d.EffectiveStatus(now); {
		case status.IsTerminal():
			return domain.Errorf(errcodes.DealExpired, "deal %s is %s", d.DealNumber, status)
		case !d.IsLive(now):
			return domain.Errorf(errcodes.InvalidDealStatus, "deal %s is %s", d.DealNumber, status)
		}

		d.RecordUnlock()

		return nil
	})
}

func (s *Service) ListScans(ctx context.Context, limit int) ([]entity.ScanLog, error) {
	if limit <= 0 {
		limit = defaultScanLogLimit
	}

	logs, err := s.scanLogs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("scanLogs.ListRecent: %w", err)
	}

	return logs, nil
}

func (s *Service) mutate(ctx context.Context, dealNumber string, fn func(d *entity.Deal) error) (entity.Deal, error) {
	number, err := value.ParseDealNumber(dealNumber)
	if err != nil {
		return entity.Deal{}, err
	}

	deal, err := s.deals.Update(ctx, number, fn)
	if err != nil {
		if domain.IsAppError(err) {
			return entity.Deal{}, err
		}

		return entity.Deal{}, fmt.Errorf("deals.Update: %w", err)
	}

	return deal, nil
}
