package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
)

func TestEventSchemaRoundTrip(t *testing.T) {
	rq := require.New(t)

	event := entity.AuctionEvent{
		ID:       value.EventID("abc12345"),
		OwnerID:  "user-1",
		Name:     "Gala",
		Subtitle: "Spring",
		Branding: value.Branding{
			PrimaryColor:    "#112233",
			AccentColor:     "#445566",
			BackgroundColor: "#ffffff",
			LogoURL:         "https://example.com/logo.png",
		},
		HideWatermark:      true,
		AllowPublicBidding: true,
		SilentMode:         true,
		UpdatedAt:          time.Now().UTC().Truncate(time.Millisecond),
	}

	schema, err := fromEvent(event)
	rq.NoError(err)
	rq.NotNil(schema.Subtitle)
	rq.NotNil(schema.LogoURL)
	rq.NotEmpty(schema.CustomColors)

	back, err := schema.toDomain()
	rq.NoError(err)
	rq.Equal(event, back)
}

func TestEventSchemaMinimal(t *testing.T) {
	rq := require.New(t)

	event := entity.AuctionEvent{
		ID:   value.EventID("abc12345"),
		Name: "Plain",
	}

	schema, err := fromEvent(event)
	rq.NoError(err)
	rq.Nil(schema.Subtitle)
	rq.Nil(schema.LogoURL)
	rq.Empty(schema.CustomColors)

	back, err := schema.toDomain()
	rq.NoError(err)
	rq.Equal(event, back)
}

func TestItemSchemaRoundTrip(t *testing.T) {
	rq := require.New(t)

	item := entity.AuctionItem{
		ID:          1700000000000,
		Name:        "Painting",
		Description: "Oil on canvas",
		StartingBid: 100,
		CurrentBid:  250.5,
		IsHidden:    true,
		IsRevealed:  true,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}

	schema := fromItem(value.EventID("abc12345"), item)
	rq.Equal("abc12345", schema.EventID)
	rq.Equal(item, schema.toDomain())
}

func TestAccountSchemaToDomain(t *testing.T) {
	rq := require.New(t)

	customerID := "cus_1"
	subID := "sub_1"
	expiresAt := time.Now().Add(time.Hour)

	schema := accountSchema{
		ID:                   "user-1",
		Email:                "owner@example.com",
		SubscriptionTier:     "pro",
		SubscriptionStatus:   "active",
		StripeCustomerID:     &customerID,
		StripeSubscriptionID: &subID,
		ExpiresAt:            &expiresAt,
	}

	account := schema.toDomain()
	rq.Equal(value.TierPro, account.Tier)
	rq.Equal(value.StatusActive, account.Status)
	rq.Equal("cus_1", account.StripeCustomerID)
	rq.Equal("sub_1", account.StripeSubscriptionID)
	rq.True(account.IsPremium())
}
