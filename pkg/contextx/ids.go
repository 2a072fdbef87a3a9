package contextx

import (
	"context"
	"fmt"
)

// TraceID correlates one inbound request across log lines and error replies.
type TraceID string

func (t TraceID) String() string {
	return string(t)
}

// SubscriberID identifies the authenticated feed viewer.
type SubscriberID string

func (s SubscriberID) String() string {
	return string(s)
}

type (
	contextKeyTraceID      struct{}
	contextKeySubscriberID struct{}
)

func WithTraceID(ctx context.Context, traceID TraceID) context.Context {
	return context.WithValue(ctx, contextKeyTraceID{}, traceID)
}

func TraceIDFromContext(ctx context.Context) (TraceID, error) {
	return valueFromContext[TraceID](ctx, contextKeyTraceID{}, "trace id")
}

func WithSubscriberID(ctx context.Context, subscriberID SubscriberID) context.Context {
	return context.WithValue(ctx, contextKeySubscriberID{}, subscriberID)
}

func SubscriberIDFromContext(ctx context.Context) (SubscriberID, error) {
	return valueFromContext[SubscriberID](ctx, contextKeySubscriberID{}, "subscriber id")
}

func valueFromContext[T ~string](ctx context.Context, key any, name string) (T, error) {
	v, ok := ctx.Value(key).(T)
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrNoValue)
	}

	return v, nil
}
