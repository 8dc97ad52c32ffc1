package persistence

import (
	"encoding/json"
	"time"

	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
)

// eventSchema maps a row of the events table.
type eventSchema struct {
	ID                 string    `db:"id"`
	OwnerID            string    `db:"owner_id"`
	Name               string    `db:"name"`
	Subtitle           *string   `db:"subtitle"`
	CustomColors       []byte    `db:"custom_colors"`
	LogoURL            *string   `db:"logo_url"`
	HideWatermark      bool      `db:"hide_watermark"`
	AllowPublicBidding bool      `db:"allow_public_bidding"`
	SilentMode         bool      `db:"silent_mode"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func fromEvent(e entity.AuctionEvent) (*eventSchema, error) {
	schema := &eventSchema{
		ID:                 e.ID.String(),
		OwnerID:            e.OwnerID,
		Name:               e.Name,
		HideWatermark:      e.HideWatermark,
		AllowPublicBidding: e.AllowPublicBidding,
		SilentMode:         e.SilentMode,
		UpdatedAt:          e.UpdatedAt,
	}

	if e.Subtitle != "" {
		schema.Subtitle = &e.Subtitle
	}

	if e.Branding.LogoURL != "" {
		schema.LogoURL = &e.Branding.LogoURL
	}

	if !e.Branding.IsZero() {
		colors, err := json.Marshal(e.Branding)
		if err != nil {
			return nil, err
		}
		schema.CustomColors = colors
	}

	return schema, nil
}

func (s *eventSchema) toDomain() (entity.AuctionEvent, error) {
	event := entity.AuctionEvent{
		ID:                 value.EventID(s.ID),
		OwnerID:            s.OwnerID,
		Name:               s.Name,
		HideWatermark:      s.HideWatermark,
		AllowPublicBidding: s.AllowPublicBidding,
		SilentMode:         s.SilentMode,
		UpdatedAt:          s.UpdatedAt,
	}

	if s.Subtitle != nil {
		event.Subtitle = *s.Subtitle
	}

	if len(s.CustomColors) > 0 {
		if err := json.Unmarshal(s.CustomColors, &event.Branding); err != nil {
			return entity.AuctionEvent{}, err
		}
	}

	if s.LogoURL != nil {
		event.Branding.LogoURL = *s.LogoURL
	}

	return event, nil
}

// itemSchema maps a row of the auction_items table.
type itemSchema struct {
	ID          int64     `db:"id"`
	EventID     string    `db:"event_id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	StartingBid float64   `db:"starting_bid"`
	CurrentBid  float64   `db:"current_bid"`
	IsHidden    bool      `db:"is_hidden"`
	IsRevealed  bool      `db:"is_revealed"`
	CreatedAt   time.Time `db:"created_at"`
}

func fromItem(eventID value.EventID, item entity.AuctionItem) *itemSchema {
	schema := &itemSchema{
		ID:          item.ID,
		EventID:     eventID.String(),
		Name:        item.Name,
		StartingBid: item.StartingBid,
		CurrentBid:  item.CurrentBid,
		IsHidden:    item.IsHidden,
		IsRevealed:  item.IsRevealed,
		CreatedAt:   item.CreatedAt,
	}

	if item.Description != "" {
		schema.Description = &item.Description
	}

	return schema
}

func (s *itemSchema) toDomain() entity.AuctionItem {
	item := entity.AuctionItem{
		ID:          s.ID,
		Name:        s.Name,
		StartingBid: s.StartingBid,
		CurrentBid:  s.CurrentBid,
		IsHidden:    s.IsHidden,
		IsRevealed:  s.IsRevealed,
		CreatedAt:   s.CreatedAt,
	}

	if s.Description != nil {
		item.Description = *s.Description
	}

	return item
}

// accountSchema maps a row of the profiles table.
type accountSchema struct {
	ID                   string     `db:"id"`
	Email                string     `db:"email"`
	SubscriptionTier     string     `db:"subscription_tier"`
	SubscriptionStatus   string     `db:"subscription_status"`
	StripeCustomerID     *string    `db:"stripe_customer_id"`
	StripeSubscriptionID *string    `db:"stripe_subscription_id"`
	ExpiresAt            *time.Time `db:"subscription_expires_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}

func (s *accountSchema) toDomain() entity.Account {
	account := entity.Account{
		ID:        s.ID,
		Email:     s.Email,
		Tier:      value.Tier(s.SubscriptionTier),
		Status:    value.SubscriptionStatus(s.SubscriptionStatus),
		ExpiresAt: s.ExpiresAt,
		UpdatedAt: s.UpdatedAt,
	}

	if s.StripeCustomerID != nil {
		account.StripeCustomerID = *s.StripeCustomerID
	}

	if s.StripeSubscriptionID != nil {
		account.StripeSubscriptionID = *s.StripeSubscriptionID
	}

	return account
}
