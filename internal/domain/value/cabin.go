package value

import (
	"strings"

	"github.com/shopspring/decimal"

	"fareglitch/internal/domain"
	"fareglitch/pkg/errcodes"
)

type CabinClass string

const (
	CabinEconomy        CabinClass = "economy"
	CabinPremiumEconomy CabinClass = "premium_economy"
	CabinBusiness       CabinClass = "business"
	CabinFirst          CabinClass = "first"
)

func ParseCabinClass(s string) (CabinClass, error) {
	switch c := CabinClass(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CabinEconomy, nil
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
		return c, nil
	default:
		return "", domain.Errorf(errcodes.InvalidCabinClass, "invalid cabin class %q", s)
	}
}

func (c CabinClass) String() string {
	return string(c)
}

// CabinMultipliers scale an economy baseline to another cabin.
type CabinMultipliers map[CabinClass]decimal.Decimal

func DefaultCabinMultipliers() CabinMultipliers {
	return CabinMultipliers{
		CabinEconomy:        decimal.NewFromInt(1),
		CabinPremiumEconomy: decimal.NewFromFloat(1.5),
		CabinBusiness:       decimal.NewFromFloat(3.5),
		CabinFirst:          decimal.NewFromInt(5),
	}
}

func (m CabinMultipliers) For(c CabinClass) decimal.Decimal {
	if v, ok := m[c]; ok {
		return v
	}

	return decimal.NewFromInt(1)
}
