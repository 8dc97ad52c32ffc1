package entity

import (
	"time"

	"bidscreen/internal/domain/value"
)

// Account is the billing profile behind an auction owner. Tier and status are
// mutated only by the webhook reconciler and the checkout verification path.
type Account struct {
	ID                   string
	Email                string
	Tier                 value.Tier
	Status               value.SubscriptionStatus
	StripeCustomerID     string
	StripeSubscriptionID string
	ExpiresAt            *time.Time
	UpdatedAt            time.Time
}

// IsPremium reports whether the account currently qualifies for remote
// storage and realtime sync.
func (a Account) IsPremium() bool {
	if a.Status != value.StatusActive {
		return false
	}

	return a.Tier == value.TierPro || a.Tier == value.TierEvent
}
