package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"git.appkode.ru/pub/go/failure"
	"github.com/samber/lo"

	"fareglitch/internal/domain/entity"
	"fareglitch/pkg/contextx"
	"fareglitch/pkg/errcodes"
	"fareglitch/pkg/httpx/reply"
	"fareglitch/pkg/logx"
	"fareglitch/pkg/rest"
)

type feedService interface {
	Viewer(ctx context.Context, token string) (*entity.Subscriber, error)
	Feed(ctx context.Context, viewer *entity.Subscriber, limit int) ([]entity.DealTeaser, error)
	Lookup(ctx context.Context, dealNumber string, viewer *entity.Subscriber) (entity.Deal, error)
}

type DealServer struct {
	feedService feedService
}

func NewDealServer(feedService feedService) DealServer {
	return DealServer{
		feedService: feedService,
	}
}

func (s DealServer) getV1Deals(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return failure.NewInvalidArgumentError(
				fmt.Sprintf("limit %q", raw),
				failure.WithCode(errcodes.InvalidPaging),
				failure.WithDescription("limit must be an integer"),
			)
		}

		limit = n
	}

	viewer, err := s.feedService.Viewer(ctx, bearerToken(r))
	if err != nil {
		return fmt.Errorf("feedService.Viewer: %w", err)
	}

	ctx = withViewer(ctx, viewer)

	teasers, err := s.feedService.Feed(ctx, viewer, limit)
	if err != nil {
		return fmt.Errorf("feedService.Feed: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, rest.DealFeed{Deals: lo.Map(teasers, newRESTDealTeaser)})

	return nil
}

func (s DealServer) getV1Deal(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	viewer, err := s.feedService.Viewer(ctx, bearerToken(r))
	if err != nil {
		return fmt.Errorf("feedService.Viewer: %w", err)
	}

	ctx = withViewer(ctx, viewer)

	deal, err := s.feedService.Lookup(ctx, r.PathValue("dealNumber"), viewer)
	if err != nil {
		return fmt.Errorf("feedService.Lookup: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTDeal(deal))

	return nil
}

// withViewer tags the request context and its logger with the subscriber.
func withViewer(ctx context.Context, viewer *entity.Subscriber) context.Context {
	if viewer == nil {
		return ctx
	}

	ctx = contextx.WithSubscriberID(ctx, contextx.SubscriberID(viewer.ID))

	return contextx.WithLogger(ctx, logger(ctx).With(slog.String(logx.FieldSubscriberID, viewer.ID)))
}
