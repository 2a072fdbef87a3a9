package redisstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"fareglitch/internal/domain/service/budget"
)

const DefaultBudgetKey = "fareglitch:budget"

const (
	fieldCallsToday     = "calls_today"
	fieldDayMarker      = "day_marker"
	fieldCallsThisMonth = "calls_this_month"
	fieldMonthMarker    = "month_marker"
)

// BudgetStore keeps the budget counters in a single redis hash so they
// survive scheduler restarts.
type BudgetStore struct {
	client redis.Cmdable
	key    string
}

func NewBudgetStore(client redis.Cmdable, key string) *BudgetStore {
	if key == "" {
		key = DefaultBudgetKey
	}

	return &BudgetStore{client: client, key: key}
}

func (s *BudgetStore) Load(ctx context.Context) (budget.State, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return budget.State{}, fmt.Errorf("redis.HGetAll: %w", err)
	}

	state := budget.State{
		DayMarker:   fields[fieldDayMarker],
		MonthMarker: fields[fieldMonthMarker],
	}

	if state.CallsToday, err = atoi(fields[fieldCallsToday]); err != nil {
		return budget.State{}, fmt.Errorf("%s: %w", fieldCallsToday, err)
	}

	if state.CallsThisMonth, err = atoi(fields[fieldCallsThisMonth]); err != nil {
		return budget.State{}, fmt.Errorf("%s: %w", fieldCallsThisMonth, err)
	}

	return state, nil
}

func (s *BudgetStore) Save(ctx context.Context, state budget.State) error {
	err := s.client.HSet(ctx, s.key,
		fieldCallsToday, state.CallsToday,
		fieldDayMarker, state.DayMarker,
		fieldCallsThisMonth, state.CallsThisMonth,
		fieldMonthMarker, state.MonthMarker,
	).Err()
	if err != nil {
		return fmt.Errorf("redis.HSet: %w", err)
	}

	return nil
}

func atoi(s string) (int, error) {
	if s == "" {
		return 0, nil
	}

	return strconv.Atoi(s)
}
