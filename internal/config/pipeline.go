package config

import (
	"time"

	"github.com/shopspring/decimal"
)

type Scanner struct {
	Schedule            string          `env:"SCAN_SCHEDULE" envDefault:"@every 4h"`
	Origins             []string        `env:"SCAN_ORIGINS" envSeparator:"," envDefault:"JFK,LAX,ORD,LHR,CDG"`
	BatchSize           int             `env:"SCAN_BATCH_SIZE" envDefault:"5"`
	AutoPublish         bool            `env:"SCAN_AUTO_PUBLISH" envDefault:"true"`
	BudgetHintPerOrigin int             `env:"SCAN_BUDGET_HINT_PER_ORIGIN" envDefault:"10"`
	VerifyMinInterval   time.Duration   `env:"VERIFY_MIN_INTERVAL" envDefault:"2s"`
	VerifyTolerance     decimal.Decimal `env:"VERIFY_TOLERANCE" envDefault:"0.15"`
}

// Scorer holds the two tier thresholds as savings shares.
type Scorer struct {
	MistakePct         decimal.Decimal `env:"SCORER_MISTAKE_PCT" envDefault:"0.50"`
	MistakeExpiry      time.Duration   `env:"SCORER_MISTAKE_EXPIRY" envDefault:"6h"`
	GoodPct            decimal.Decimal `env:"SCORER_GOOD_PCT" envDefault:"0.20"`
	GoodExpiry         time.Duration   `env:"SCORER_GOOD_EXPIRY" envDefault:"72h"`
	MinSavings         decimal.Decimal `env:"SCORER_MIN_SAVINGS" envDefault:"0"`
	PremiumEconomyMult decimal.Decimal `env:"CABIN_MULT_PREMIUM_ECONOMY" envDefault:"1.5"`
	BusinessMult       decimal.Decimal `env:"CABIN_MULT_BUSINESS" envDefault:"3.5"`
	FirstMult          decimal.Decimal `env:"CABIN_MULT_FIRST" envDefault:"5"`
}

type Baseline struct {
	Window         time.Duration   `env:"BASELINE_WINDOW" envDefault:"720h"`
	MinSamples     int             `env:"BASELINE_MIN_SAMPLES" envDefault:"3"`
	ForwardOffsets []time.Duration `env:"BASELINE_FORWARD_OFFSETS" envSeparator:"," envDefault:"720h,1080h,1440h,1800h,2160h"`
	Stay           time.Duration   `env:"BASELINE_STAY" envDefault:"24h"`
}

// Budget caps external provider calls. Zero disables a cap.
type Budget struct {
	Daily   int `env:"BUDGET_DAILY" envDefault:"500"`
	Monthly int `env:"BUDGET_MONTHLY" envDefault:"10000"`
}

type Visibility struct {
	FreeDelay time.Duration `env:"FREE_DELAY" envDefault:"1h"`
}

type Deals struct {
	UnlockFee       decimal.Decimal `env:"DEAL_UNLOCK_FEE" envDefault:"5"`
	BookingLinkBase string          `env:"DEAL_BOOKING_LINK_BASE" envDefault:"https://www.google.com/travel/flights"`
	AlertDedupTTL   time.Duration   `env:"DEAL_ALERT_DEDUP_TTL" envDefault:"24h"`
	AlertStream     string          `env:"DEAL_ALERT_STREAM" envDefault:"deals.published"`
}
