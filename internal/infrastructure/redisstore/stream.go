package redisstore

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"fareglitch/internal/domain/entity"
)

const (
	DefaultDealStream = "deals.published"
	defaultStreamLen  = 10000
)

// StreamPublisher appends published deals to a redis stream for downstream
// delivery channels.
type StreamPublisher struct {
	client redis.Cmdable
	stream string
}

func NewStreamPublisher(client redis.Cmdable, stream string) *StreamPublisher {
	if stream == "" {
		stream = DefaultDealStream
	}

	return &StreamPublisher{client: client, stream: stream}
}

type dealEvent struct {
	DealNumber    string     `json:"dealNumber"`
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	Cabin         string     `json:"cabin"`
	Airline       string     `json:"airline"`
	Tier          string     `json:"tier"`
	Headline      string     `json:"headline"`
	NormalPrice   string     `json:"normalPrice"`
	MistakePrice  string     `json:"mistakePrice"`
	SavingsAmount string     `json:"savingsAmount"`
	SavingsPct    string     `json:"savingsPct"`
	Currency      string     `json:"currency"`
	PublishedAt   *time.Time `json:"publishedAt"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	BookingLink   string     `json:"bookingLink"`
}

func (p *StreamPublisher) Send(ctx context.Context, deal entity.Deal) error {
	data, err := jsoniter.Marshal(dealEvent{
		DealNumber:    deal.DealNumber,
		Origin:        deal.Route.Origin,
		Destination:   deal.Route.Destination,
		Cabin:         string(deal.Cabin),
		Airline:       deal.Airline,
		Tier:          string(deal.Tier),
		Headline:      deal.TeaserHeadline(),
		NormalPrice:   deal.NormalPrice.String(),
		MistakePrice:  deal.MistakePrice.String(),
		SavingsAmount: deal.SavingsAmount.String(),
		SavingsPct:    deal.SavingsPct.String(),
		Currency:      string(deal.Currency),
		PublishedAt:   deal.PublishedAt,
		ExpiresAt:     deal.ExpiresAt,
		BookingLink:   deal.BookingLink,
	})
	if err != nil {
		return fmt.Errorf("jsoniter.Marshal: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: defaultStreamLen,
		Approx: true,
		Values: map[string]any{
			"data":        string(data),
			"deal_number": deal.DealNumber,
			"tier":        string(deal.Tier),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis.XAdd: %w", err)
	}

	return nil
}

func (p *StreamPublisher) Name() string {
	return "redis-stream"
}
