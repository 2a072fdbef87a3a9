package tests

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

type Randomizer struct {
	Float64 func() float64
	Bool    func() bool
}

func NewRandomizer() Randomizer {
	random := rand.New(rand.NewSource(time.Now().Unix())) //nolint:gosec // for tests

	return Randomizer{
		Float64: random.Float64,
		Bool:    func() bool { return random.Intn(2) == 0 }, //nolint:mnd // skip
	}
}

// Fare returns a price uniformly spread within ±spread of center, rounded to
// cents. spread is a fraction of center.
func (r Randomizer) Fare(center decimal.Decimal, spread float64) decimal.Decimal {
	offset := (r.Float64()*2 - 1) * spread //nolint:mnd // skip

	return center.Mul(decimal.NewFromFloat(1 + offset)).Round(2) //nolint:mnd // skip
}

func (r Randomizer) Fares(n int, center decimal.Decimal, spread float64) []decimal.Decimal {
	fares := make([]decimal.Decimal, 0, n)
	for range n {
		fares = append(fares, r.Fare(center, spread))
	}

	return fares
}
