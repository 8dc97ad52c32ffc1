package value

import "fmt"

// Tier is the account subscription level.
type Tier string

const (
	TierFree  Tier = "free"
	TierPro   Tier = "pro"
	TierEvent Tier = "event"
)

func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierFree, TierPro, TierEvent:
		return Tier(s), nil
	default:
		return "", fmt.Errorf("unknown tier %q", s)
	}
}

func (t Tier) String() string {
	return string(t)
}

// SubscriptionStatus is the internal subscription state, reconciled from
// payment provider events.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusExpired  SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// StatusFromProvider maps a payment provider subscription status onto the
// internal state set.
func StatusFromProvider(providerStatus string) SubscriptionStatus {
	switch providerStatus {
	case "canceled", "incomplete_expired":
		return StatusCanceled
	case "past_due":
		return StatusPastDue
	case "unpaid":
		return StatusExpired
	default:
		return StatusActive
	}
}
