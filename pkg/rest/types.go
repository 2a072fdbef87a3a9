package rest

import (
	"time"

	"github.com/shopspring/decimal"
)

// Error is the error response body.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	SupportID string    `json:"supportId"`
}

type ErrorCode string

type Route struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// DealTeaser is a feed row. Prices and the booking link are only returned by
// the deal lookup.
type DealTeaser struct {
	DealNumber       string          `json:"dealNumber"`
	Route            Route           `json:"route"`
	RouteDescription string          `json:"routeDescription"`
	Headline         string          `json:"headline"`
	Tier             string          `json:"tier"`
	Cabin            string          `json:"cabin"`
	SavingsPercent   decimal.Decimal `json:"savingsPercent"`
	Currency         string          `json:"currency"`
	PublishedAt      *time.Time      `json:"publishedAt"`
	ExpiresAt        *time.Time      `json:"expiresAt"`
	UnlockFee        decimal.Decimal `json:"unlockFee"`
}

type DealFeed struct {
	Deals []DealTeaser `json:"deals"`
}

type Deal struct {
	DealNumber     string          `json:"dealNumber"`
	Route          Route           `json:"route"`
	Headline       string          `json:"headline"`
	Tier           string          `json:"tier"`
	Status         string          `json:"status"`
	Cabin          string          `json:"cabin"`
	Airline        string          `json:"airline,omitempty"`
	NormalPrice    decimal.Decimal `json:"normalPrice"`
	MistakePrice   decimal.Decimal `json:"mistakePrice"`
	SavingsAmount  decimal.Decimal `json:"savingsAmount"`
	SavingsPercent decimal.Decimal `json:"savingsPercent"`
	Currency       string          `json:"currency"`
	DepartureDate  *time.Time      `json:"departureDate,omitempty"`
	ReturnDate     *time.Time      `json:"returnDate,omitempty"`
	DetectedAt     time.Time       `json:"detectedAt"`
	PublishedAt    *time.Time      `json:"publishedAt,omitempty"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"`
	BookingLink    string          `json:"bookingLink"`
	UnlockFee      decimal.Decimal `json:"unlockFee"`
	TotalUnlocks   int             `json:"totalUnlocks"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
}

type DealRecheck struct {
	Deal      Deal             `json:"deal"`
	Holds     bool             `json:"holds"`
	LivePrice *decimal.Decimal `json:"livePrice,omitempty"`
	Airline   string           `json:"airline,omitempty"`
}

type ScanRequest struct {
	Origins []string `json:"origins" validate:"max=50,dive,len=3,alpha"`
	// Async enqueues the scan for a worker instead of running it inline.
	Async bool `json:"async"`
}

type ScanQueued struct {
	TaskID string `json:"taskId"`
}

type DealSummary struct {
	DealNumber     string          `json:"dealNumber"`
	Route          Route           `json:"route"`
	Tier           string          `json:"tier"`
	Status         string          `json:"status"`
	NormalPrice    decimal.Decimal `json:"normalPrice"`
	MistakePrice   decimal.Decimal `json:"mistakePrice"`
	SavingsAmount  decimal.Decimal `json:"savingsAmount"`
	SavingsPercent decimal.Decimal `json:"savingsPercent"`
	Currency       string          `json:"currency"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"`
}

type ScanResult struct {
	ScanID         string        `json:"scanId"`
	Status         string        `json:"status"`
	Origins        []string      `json:"origins"`
	StartedAt      time.Time     `json:"startedAt"`
	CompletedAt    time.Time     `json:"completedAt"`
	RoutesChecked  int           `json:"routesChecked"`
	AnomaliesFound int           `json:"anomaliesFound"`
	DealsValidated int           `json:"dealsValidated"`
	DealsPublished int           `json:"dealsPublished"`
	Conflicts      int           `json:"conflicts"`
	Errors         int           `json:"errors"`
	APICalls       int           `json:"apiCalls"`
	Deals          []DealSummary `json:"deals"`
}

type ScanLog struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	Origins        []string   `json:"origins"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	RoutesChecked  int        `json:"routesChecked"`
	AnomaliesFound int        `json:"anomaliesFound"`
	DealsValidated int        `json:"dealsValidated"`
	DealsPublished int        `json:"dealsPublished"`
	Errors         int        `json:"errors"`
	APICalls       int        `json:"apiCalls"`
}

type ScanLogs struct {
	Scans []ScanLog `json:"scans"`
}

type Budget struct {
	CallsToday     int    `json:"callsToday"`
	DailyLimit     int    `json:"dailyLimit"`
	Day            string `json:"day"`
	CallsThisMonth int    `json:"callsThisMonth"`
	MonthlyLimit   int    `json:"monthlyLimit"`
	Month          string `json:"month"`
	WithinBudget   bool   `json:"withinBudget"`
}

type SubscriberRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,e164"`
	Type  string `json:"type" validate:"required,oneof=free sms_monthly pay_per_alert"`
	Days  int    `json:"days" validate:"gte=0,lte=3660"`
}

type Subscriber struct {
	ID          string     `json:"id"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Type        string     `json:"type"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	AccessToken string     `json:"accessToken"`
}
