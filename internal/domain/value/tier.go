package value

type Tier string

const (
	TierNone        Tier = "none"
	TierGoodDeal    Tier = "good_deal"
	TierMistakeFare Tier = "mistake_fare"
)

// DealNumberPrefix is the human-readable prefix of deal numbers in this tier.
func (t Tier) DealNumberPrefix() string {
	if t == TierMistakeFare {
		return "MF"
	}

	return "VD"
}

func (t Tier) Label() string {
	switch t {
	case TierMistakeFare:
		return "MISTAKE FARE"
	case TierGoodDeal:
		return "GOOD DEAL"
	default:
		return ""
	}
}

func (t Tier) IsDeal() bool {
	return t == TierGoodDeal || t == TierMistakeFare
}
