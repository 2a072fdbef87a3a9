package value

import (

	"fareglitch/internal/domain"
	"fareglitch/pkg/errcodes"
)

type SubscriptionType string

const (
	SubscriptionFree        SubscriptionType = "free"
	SubscriptionSMSMonthly  SubscriptionType = "sms_monthly"
	SubscriptionPayPerAlert SubscriptionType = "pay_per_alert"
)

func ParseSubscriptionType(s string) (SubscriptionType, error) {
	switch t := SubscriptionType(s); t {
	case SubscriptionFree, SubscriptionSMSMonthly, SubscriptionPayPerAlert:
		return t, nil
	default:
		return "", domain.Errorf(errcodes.InvalidSubscriptionType, "invalid subscription type %q", s)
	}
}
