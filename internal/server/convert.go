package server

import (
	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/service/budget"
	"fareglitch/internal/domain/service/pipeline"
	"fareglitch/internal/domain/service/verify"
	"fareglitch/internal/domain/value"
	"fareglitch/pkg/rest"
)

func newRESTRoute(route value.Route) rest.Route {
	return rest.Route{
		Origin:      route.Origin,
		Destination: route.Destination,
	}
}

func newRESTDealTeaser(t entity.DealTeaser, _ int) rest.DealTeaser {
	return rest.DealTeaser{
		DealNumber:       t.DealNumber,
		Route:            newRESTRoute(t.Route),
		RouteDescription: t.RouteDescription,
		Headline:         t.Headline,
		Tier:             string(t.Tier),
		Cabin:            string(t.Cabin),
		SavingsPercent:   t.SavingsPercent,
		Currency:         t.Currency.String(),
		PublishedAt:      t.PublishedAt,
		ExpiresAt:        t.ExpiresAt,
		UnlockFee:        t.UnlockFee,
	}
}

func newRESTDeal(d entity.Deal) rest.Deal {
	return rest.Deal{
		DealNumber:     d.DealNumber,
		Route:          newRESTRoute(d.Route),
		Headline:       d.TeaserHeadline(),
		Tier:           string(d.Tier),
		Status:         string(d.Status),
		Cabin:          string(d.Cabin),
		Airline:        d.Airline,
		NormalPrice:    d.NormalPrice,
		MistakePrice:   d.MistakePrice,
		SavingsAmount:  d.SavingsAmount,
		SavingsPercent: d.SavingsPercent(),
		Currency:       d.Currency.String(),
		DepartureDate:  d.DepartureDate,
		ReturnDate:     d.ReturnDate,
		DetectedAt:     d.DetectedAt,
		PublishedAt:    d.PublishedAt,
		ExpiresAt:      d.ExpiresAt,
		BookingLink:    d.BookingLink,
		UnlockFee:      d.UnlockFee,
		TotalUnlocks:   d.TotalUnlocks,
		TotalRevenue:   d.TotalRevenue,
	}
}

func newRESTDealRecheck(d entity.Deal, result verify.RecheckResult) rest.DealRecheck {
	out := rest.DealRecheck{
		Deal:  newRESTDeal(d),
		Holds: result.Holds,
	}

	if result.Offer != nil {
		out.LivePrice = &result.Offer.Price
		out.Airline = result.Offer.Airline
	}

	return out
}

func newRESTDealSummary(d entity.DealSummary, _ int) rest.DealSummary {
	return rest.DealSummary{
		DealNumber:     d.DealNumber,
		Route:          newRESTRoute(d.Route),
		Tier:           string(d.Tier),
		Status:         string(d.Status),
		NormalPrice:    d.NormalPrice,
		MistakePrice:   d.MistakePrice,
		SavingsAmount:  d.SavingsAmount,
		SavingsPercent: d.SavingsPct.Shift(2).Round(1), //nolint:mnd
		Currency:       d.Currency.String(),
		ExpiresAt:      d.ExpiresAt,
	}
}

func newRESTScanResult(r pipeline.ScanResult) rest.ScanResult {
	deals := make([]rest.DealSummary, 0, len(r.Deals))
	for i, d := range r.Deals {
		deals = append(deals, newRESTDealSummary(d, i))
	}

	return rest.ScanResult{
		ScanID:         r.ScanID,
		Status:         string(r.Status()),
		Origins:        r.Origins,
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
		RoutesChecked:  r.RoutesChecked,
		AnomaliesFound: r.AnomaliesFound,
		DealsValidated: r.DealsValidated,
		DealsPublished: r.DealsPublished,
		Conflicts:      r.Conflicts,
		Errors:         r.Errors,
		APICalls:       r.APICalls,
		Deals:          deals,
	}
}

func newRESTScanLog(l entity.ScanLog, _ int) rest.ScanLog {
	return rest.ScanLog{
		ID:             l.ID,
		Status:         string(l.Status),
		Origins:        l.Origins,
		StartedAt:      l.StartedAt,
		CompletedAt:    l.CompletedAt,
		RoutesChecked:  l.RoutesChecked,
		AnomaliesFound: l.AnomaliesFound,
		DealsValidated: l.DealsValidated,
		DealsPublished: l.DealsPublished,
		Errors:         l.Errors,
		APICalls:       l.APICalls,
	}
}

func newRESTBudget(state budget.State, limits budget.Limits, within bool) rest.Budget {
	return rest.Budget{
		CallsToday:     state.CallsToday,
		DailyLimit:     limits.Daily,
		Day:            state.DayMarker,
		CallsThisMonth: state.CallsThisMonth,
		MonthlyLimit:   limits.Monthly,
		Month:          state.MonthMarker,
		WithinBudget:   within,
	}
}

func newRESTSubscriber(s entity.Subscriber) rest.Subscriber {
	return rest.Subscriber{
		ID:          s.ID,
		Email:       s.Email,
		Phone:       s.PhoneNumber,
		Type:        string(s.Type),
		IsActive:    s.IsActive,
		ExpiresAt:   s.ExpiresAt,
		AccessToken: s.AccessToken,
	}
}
