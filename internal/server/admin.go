package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/verify"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/httpx/reply"
	"fareglitch/pkg/httpx/req"
	"fareglitch/pkg/rest"
)

type dealLifecycle interface {
	PublishDeal(ctx context.Context, dealNumber string) (entity.Deal, error)
	CancelDeal(ctx context.Context, dealNumber string) (entity.Deal, error)
	RecordUnlock(ctx context.Context, dealNumber string) (entity.Deal, error)
	RecheckDeal(ctx context.Context, dealNumber string) (entity.Deal, verify.RecheckResult, error)
}

type subscriberWriter interface {
	Create(ctx context.Context, sub entity.Subscriber) error
}

type AdminServer struct {
	deals       dealLifecycle
	subscribers subscriberWriter
	now         func() time.Time
}

func NewAdminServer(deals dealLifecycle, subscribers subscriberWriter) AdminServer {
	return AdminServer{
		deals:       deals,
		subscribers: subscribers,
		now:         time.Now,
	}
}

func (s AdminServer) postV1AdminPublish(w http.ResponseWriter, r *http.Request) error {
	return s.mutateDeal(w, r, s.deals.PublishDeal)
}

func (s AdminServer) postV1AdminCancel(w http.ResponseWriter, r *http.Request) error {
	return s.mutateDeal(w, r, s.deals.CancelDeal)
}

func (s AdminServer) postV1AdminUnlock(w http.ResponseWriter, r *http.Request) error {
	return s.mutateDeal(w, r, s.deals.RecordUnlock)
}

func (s AdminServer) postV1AdminRecheck(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	deal, result, err := s.deals.RecheckDeal(ctx, r.PathValue("dealNumber"))
	if err != nil {
		return err
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDealRecheck(deal, result))

	return nil
}

func (s AdminServer) mutateDeal(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, string) (entity.Deal, error),
) error {
	ctx := r.Context()

	deal, err := fn(ctx, r.PathValue("dealNumber"))
	if err != nil {
		return err
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDeal(deal))

	return nil
}

func (s AdminServer) postV1AdminSubscribers(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.SubscriberRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	typ, err := value.ParseSubscriptionType(request.Type)
	if err != nil {
		return err
	}

	sub := entity.NewSubscriber(
		request.Email,
		request.Phone,
		typ,
		time.Duration(request.Days)*24*time.Hour,
		s.now(),
	)

	if err = s.subscribers.Create(ctx, sub); err != nil {
		return fmt.Errorf("subscribers.Create: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTSubscriber(sub))

	return nil
}
