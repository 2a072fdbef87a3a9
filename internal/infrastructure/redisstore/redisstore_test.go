package redisstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/budget"
	"fareglitch/internal/domain/value"
	"fareglitch/internal/infrastructure/redisstore"
)

func connect(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR is not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestBudgetStore(t *testing.T) {
	client := connect(t)
	rq := require.New(t)
	ctx := context.Background()

	key := "test:budget:" + xid.New().String()
	t.Cleanup(func() { client.Del(ctx, key) })

	store := redisstore.NewBudgetStore(client, key)

	empty, err := store.Load(ctx)
	rq.NoError(err)
	rq.Equal(budget.State{}, empty)

	state := budget.State{CallsToday: 12, DayMarker: "2026-03-01", CallsThisMonth: 340, MonthMarker: "2026-03"}
	rq.NoError(store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	rq.NoError(err)
	rq.Equal(state, loaded)
}

func TestDeduplicator(t *testing.T) {
	client := connect(t)
	rq := require.New(t)
	ctx := context.Background()

	prefix := "test:dedup:" + xid.New().String() + ":"
	dedup := redisstore.NewDeduplicator(client, prefix, time.Minute)

	ok, err := dedup.Claim(ctx, "MF001")
	rq.NoError(err)
	rq.True(ok)

	ok, err = dedup.Claim(ctx, "MF001")
	rq.NoError(err)
	rq.False(ok)

	ok, err = dedup.Claim(ctx, "MF002")
	rq.NoError(err)
	rq.True(ok)
}

func TestStreamPublisher(t *testing.T) {
	client := connect(t)
	rq := require.New(t)
	ctx := context.Background()

	stream := "test:deals:" + xid.New().String()
	t.Cleanup(func() { client.Del(ctx, stream) })

	publishedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deal := entity.Deal{
		DealNumber:   "MF001",
		Route:        value.Route{Origin: "JFK", Destination: "NRT"},
		Tier:         value.TierMistakeFare,
		MistakePrice: decimal.NewFromInt(450),
		Currency:     value.USD,
		PublishedAt:  &publishedAt,
	}

	rq.NoError(redisstore.NewStreamPublisher(client, stream).Send(ctx, deal))

	msgs, err := client.XRange(ctx, stream, "-", "+").Result()
	rq.NoError(err)
	rq.Len(msgs, 1)
	rq.Equal("MF001", msgs[0].Values["deal_number"])

	var event map[string]any
	rq.NoError(jsoniter.UnmarshalFromString(msgs[0].Values["data"].(string), &event))
	rq.Equal("MISTAKE FARE: JFK → NRT", event["headline"])
	rq.Equal("450", event["mistakePrice"])
}
