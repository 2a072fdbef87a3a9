package limiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fareglitch/pkg/limiter"
)

func TestMinInterval(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	l := limiter.NewMinInterval(50 * time.Millisecond)

	start := time.Now()

	rq.NoError(l.Wait(ctx))
	rq.Less(time.Since(start), 40*time.Millisecond)

	rq.NoError(l.Wait(ctx))
	rq.NoError(l.Wait(ctx))
	rq.GreaterOrEqual(time.Since(start), 90*time.Millisecond)
}

func TestMinIntervalCanceled(t *testing.T) {
	rq := require.New(t)

	l := limiter.NewMinInterval(time.Hour)

	rq.NoError(l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	rq.Error(l.Wait(ctx))
}

func TestMinIntervalZero(t *testing.T) {
	rq := require.New(t)

	l := limiter.NewMinInterval(0)

	for range 5 {
		rq.NoError(l.Wait(context.Background()))
	}

	rq.NoError(limiter.Unlimited{}.Wait(context.Background()))
}
