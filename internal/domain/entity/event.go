package entity

import (
	"time"

	"bidscreen/internal/domain/value"
)

// AuctionEvent is one fundraising session with its own item list and display.
type AuctionEvent struct {
	ID                 value.EventID  `json:"id"`
	OwnerID            string         `json:"ownerId,omitempty"`
	Name               string         `json:"name"`
	Subtitle           string         `json:"subtitle,omitempty"`
	Branding           value.Branding `json:"branding,omitempty"`
	HideWatermark      bool           `json:"hideWatermark"`
	AllowPublicBidding bool           `json:"allowPublicBidding"`
	SilentMode         bool           `json:"silentMode"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}
