package persistence

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/value"
)

// dealSchema maps a row of the deals table.
type dealSchema struct {
	DealNumber    string          `db:"deal_number"`
	ScanID        string          `db:"scan_id"`
	Origin        string          `db:"origin"`
	Destination   string          `db:"destination"`
	Cabin         string          `db:"cabin"`
	Airline       string          `db:"airline"`
	Tier          string          `db:"tier"`
	NormalPrice   decimal.Decimal `db:"normal_price"`
	MistakePrice  decimal.Decimal `db:"mistake_price"`
	SavingsAmount decimal.Decimal `db:"savings_amount"`
	SavingsPct    decimal.Decimal `db:"savings_pct"`
	Currency      string          `db:"currency"`
	Status        string          `db:"status"`
	DepartureDate *time.Time      `db:"departure_date"`
	ReturnDate    *time.Time      `db:"return_date"`
	DetectedAt    time.Time       `db:"detected_at"`
	ValidatedAt   *time.Time      `db:"validated_at"`
	PublishedAt   *time.Time      `db:"published_at"`
	ExpiresAt     *time.Time      `db:"expires_at"`
	BookingLink   string          `db:"booking_link"`
	UnlockFee     decimal.Decimal `db:"unlock_fee"`
	TotalUnlocks  int             `db:"total_unlocks"`
	TotalRevenue  decimal.Decimal `db:"total_revenue"`
}

func fromDeal(d entity.Deal) dealSchema {
	return dealSchema{
		DealNumber:    d.DealNumber,
		ScanID:        d.ScanID,
		Origin:        d.Route.Origin,
		Destination:   d.Route.Destination,
		Cabin:         string(d.Cabin),
		Airline:       d.Airline,
		Tier:          string(d.Tier),
		NormalPrice:   d.NormalPrice,
		MistakePrice:  d.MistakePrice,
		SavingsAmount: d.SavingsAmount,
		SavingsPct:    d.SavingsPct,
		Currency:      string(d.Currency),
		Status:        string(d.Status),
		DepartureDate: d.DepartureDate,
		ReturnDate:    d.ReturnDate,
		DetectedAt:    d.DetectedAt,
		ValidatedAt:   d.ValidatedAt,
		PublishedAt:   d.PublishedAt,
		ExpiresAt:     d.ExpiresAt,
		BookingLink:   d.BookingLink,
		UnlockFee:     d.UnlockFee,
		TotalUnlocks:  d.TotalUnlocks,
		TotalRevenue:  d.TotalRevenue,
	}
}

func (s dealSchema) toDomain() entity.Deal {
	return entity.Deal{
		DealNumber:    s.DealNumber,
		ScanID:        s.ScanID,
		Route:         value.Route{Origin: strings.TrimSpace(s.Origin), Destination: strings.TrimSpace(s.Destination)},
		Cabin:         value.CabinClass(s.Cabin),
		Airline:       s.Airline,
		Tier:          value.Tier(s.Tier),
		NormalPrice:   s.NormalPrice,
		MistakePrice:  s.MistakePrice,
		SavingsAmount: s.SavingsAmount,
		SavingsPct:    s.SavingsPct,
		Currency:      value.Currency(strings.TrimSpace(s.Currency)),
		Status:        value.DealStatus(s.Status),
		DepartureDate: s.DepartureDate,
		ReturnDate:    s.ReturnDate,
		DetectedAt:    s.DetectedAt,
		ValidatedAt:   s.ValidatedAt,
		PublishedAt:   s.PublishedAt,
		ExpiresAt:     s.ExpiresAt,
		BookingLink:   s.BookingLink,
		UnlockFee:     s.UnlockFee,
		TotalUnlocks:  s.TotalUnlocks,
		TotalRevenue:  s.TotalRevenue,
	}
}

type observationSchema struct {
	ID          int64           `db:"id"`
	Origin      string          `db:"origin"`
	Destination string          `db:"destination"`
	Cabin       string          `db:"cabin"`
	Price       decimal.Decimal `db:"price"`
	Currency    string          `db:"currency"`
	Source      string          `db:"source"`
	ObservedAt  time.Time       `db:"observed_at"`
}

func fromObservation(o entity.PriceObservation) observationSchema {
	return observationSchema{
		ID:          o.ID,
		Origin:      o.Route.Origin,
		Destination: o.Route.Destination,
		Cabin:       string(o.Cabin),
		Price:       o.Price,
		Currency:    string(o.Currency),
		Source:      o.Source,
		ObservedAt:  o.ObservedAt,
	}
}

type scanLogSchema struct {
	ID             string     `db:"id"`
	Origins        string     `db:"origins"`
	StartedAt      time.Time  `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
	RoutesChecked  int        `db:"routes_checked"`
	AnomaliesFound int        `db:"anomalies_found"`
	DealsValidated int        `db:"deals_validated"`
	DealsPublished int        `db:"deals_published"`
	Errors         int        `db:"errors"`
	APICalls       int        `db:"api_calls"`
	Status         string     `db:"status"`
}

func fromScanLog(l entity.ScanLog) scanLogSchema {
	return scanLogSchema{
		ID:             l.ID,
		Origins:        strings.Join(l.Origins, ","),
		StartedAt:      l.StartedAt,
		CompletedAt:    l.CompletedAt,
		RoutesChecked:  l.RoutesChecked,
		AnomaliesFound: l.AnomaliesFound,
		DealsValidated: l.DealsValidated,
		DealsPublished: l.DealsPublished,
		Errors:         l.Errors,
		APICalls:       l.APICalls,
		Status:         string(l.Status),
	}
}

func (s scanLogSchema) toDomain() entity.ScanLog {
	var origins []string
	if s.Origins != "" {
		origins = strings.Split(s.Origins, ",")
	}

	return entity.ScanLog{
		ID:             s.ID,
		Origins:        origins,
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
		RoutesChecked:  s.RoutesChecked,
		AnomaliesFound: s.AnomaliesFound,
		DealsValidated: s.DealsValidated,
		DealsPublished: s.DealsPublished,
		Errors:         s.Errors,
		APICalls:       s.APICalls,
		Status:         entity.ScanStatus(s.Status),
	}
}

type subscriberSchema struct {
	ID          string     `db:"id"`
	PhoneNumber string     `db:"phone_number"`
	Email       string     `db:"email"`
	Type        string     `db:"subscription_type"`
	IsActive    bool       `db:"is_active"`
	ExpiresAt   *time.Time `db:"subscription_expires_at"`
	AccessToken string     `db:"access_token"`
	CreatedAt   time.Time  `db:"created_at"`
}

func fromSubscriber(s entity.Subscriber) subscriberSchema {
	return subscriberSchema{
		ID:          s.ID,
		PhoneNumber: s.PhoneNumber,
		Email:       s.Email,
		Type:        string(s.Type),
		IsActive:    s.IsActive,
		ExpiresAt:   s.ExpiresAt,
		AccessToken: s.AccessToken,
		CreatedAt:   s.CreatedAt,
	}
}

func (s subscriberSchema) toDomain() entity.Subscriber {
	return entity.Subscriber{
		ID:          s.ID,
		PhoneNumber: s.PhoneNumber,
		Email:       s.Email,
		Type:        value.SubscriptionType(s.Type),
		IsActive:    s.IsActive,
		ExpiresAt:   s.ExpiresAt,
		AccessToken: s.AccessToken,
		CreatedAt:   s.CreatedAt,
	}
}
