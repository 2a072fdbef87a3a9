package scoring

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fareglitch/internal/domain/entity"
	"fareglitch/internal/domain/value"
)

// Threshold maps a minimum savings share to a tier and its expiry window.
type Threshold struct {
	MinPct decimal.Decimal
	Tier   value.Tier
	Expiry time.Duration
}

func DefaultThresholds() []Threshold {
	return []Threshold{
		{MinPct: decimal.NewFromFloat(0.50), Tier: value.TierMistakeFare, Expiry: 6 * time.Hour},
		{MinPct: decimal.NewFromFloat(0.20), Tier: value.TierGoodDeal, Expiry: 72 * time.Hour},
	}
}

type Scorer struct {
	thresholds  []Threshold
	minSavings  decimal.Decimal
	multipliers value.CabinMultipliers
}

// NewScorer evaluates thresholds from the highest share down. With no
// thresholds the defaults apply.
func NewScorer(thresholds ...Threshold) *Scorer {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds()
	}

	sorted := slices.Clone(thresholds)
	slices.SortFunc(sorted, func(a, b Threshold) int {
		return b.MinPct.Cmp(a.MinPct)
	})

	return &Scorer{
		thresholds:  sorted,
		minSavings:  decimal.Zero,
		multipliers: value.DefaultCabinMultipliers(),
	}
}

func (s *Scorer) WithMinSavings(amount decimal.Decimal) *Scorer {
	s.minSavings = amount
	return s
}

func (s *Scorer) WithCabinMultipliers(m value.CabinMultipliers) *Scorer {
	s.multipliers = m
	return s
}

func (s *Scorer) Thresholds() []Threshold {
	return slices.Clone(s.thresholds)
}

// Classify compares price against baseline. A non-positive baseline is no
// signal.
func (s *Scorer) Classify(price, baseline decimal.Decimal) entity.Classification {
	if !baseline.IsPositive() {
		return entity.Classification{Tier: value.TierNone}
	}

	savings := baseline.Sub(price)
	pct := savings.Div(baseline)

	result := entity.Classification{
		SavingsAmount: savings,
		SavingsPct:    pct,
		Tier:          value.TierNone,
	}

	for _, th := range s.thresholds {
		if pct.GreaterThanOrEqual(th.MinPct) {
			result.Tier = th.Tier
			break
		}
	}

	result.Qualifies = result.Tier.IsDeal() && savings.GreaterThanOrEqual(s.minSavings)

	return result
}

// ClassifyCabin scales an economy baseline to the cabin before comparing.
func (s *Scorer) ClassifyCabin(price, economyBaseline decimal.Decimal, cabin value.CabinClass) entity.Classification {
	return s.Classify(price, s.ScaleBaseline(economyBaseline, cabin))
}

func (s *Scorer) ScaleBaseline(economyBaseline decimal.Decimal, cabin value.CabinClass) decimal.Decimal {
	return economyBaseline.Mul(s.multipliers.For(cabin))
}

// ExpiryFor returns the expiry window of tier.
func (s *Scorer) ExpiryFor(tier value.Tier) (time.Duration, bool) {
	for _, th := range s.thresholds {
		if th.Tier == tier {
			return th.Expiry, true
		}
	}

	return 0, false
}

// CheapestPerRoute keeps the lowest-priced quote per route and cabin,
// preserving first-seen order.
func CheapestPerRoute(quotes []entity.PriceQuote) []entity.PriceQuote {
	type key struct {
		route value.Route
		cabin value.CabinClass
	}

	index := make(map[key]int, len(quotes))
	result := make([]entity.PriceQuote, 0, len(quotes))

	for _, q := range quotes {
		k := key{route: q.Route, cabin: q.Cabin}

		i, ok := index[k]
		if !ok {
			index[k] = len(result)
			result = append(result, q)

			continue
		}

		if q.Price.LessThan(result[i].Price) {
			result[i] = q
		}
	}

	return result
}
