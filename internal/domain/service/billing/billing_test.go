package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"bidscreen/internal/domain"
	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/service/billing"
	"bidscreen/internal/domain/value"
	"bidscreen/internal/infrastructure/persistence"
	"bidscreen/internal/infrastructure/stripe"
	"bidscreen/pkg/errcodes"
)

type recordedUpdate struct {
	accountID string
	update    persistence.SubscriptionUpdate
}

type fakeAccounts struct {
	byID       map[string]entity.Account
	byCustomer map[string]entity.Account
	updates    []recordedUpdate
	swept      int64
}

func newFakeAccounts(accounts ...entity.Account) *fakeAccounts {
	f := &fakeAccounts{
		byID:       make(map[string]entity.Account),
		byCustomer: make(map[string]entity.Account),
	}

	for _, account := range accounts {
		f.byID[account.ID] = account
		if account.StripeCustomerID != "" {
			f.byCustomer[account.StripeCustomerID] = account
		}
	}

	return f
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*entity.Account, error) {
	account, ok := f.byID[id]
	if !ok {
		return nil, domain.NewError(errcodes.AccountNotFound, "account not found")
	}

	return &account, nil
}

func (f *fakeAccounts) GetByCustomerID(_ context.Context, customerID string) (*entity.Account, error) {
	account, ok := f.byCustomer[customerID]
	if !ok {
		return nil, domain.NewError(errcodes.AccountNotFound, "account not found for customer")
	}

	return &account, nil
}

func (f *fakeAccounts) UpdateSubscription(_ context.Context, accountID string, update persistence.SubscriptionUpdate) error {
	if _, ok := f.byID[accountID]; !ok {
		return domain.NewError(errcodes.AccountNotFound, "account not found")
	}

	f.updates = append(f.updates, recordedUpdate{accountID: accountID, update: update})

	return nil
}

func (f *fakeAccounts) MarkExpired(context.Context, time.Time) (int64, error) {
	return f.swept, nil
}

type fakeVerifier struct {
	session stripe.CheckoutSession
	err     error
}

func (f *fakeVerifier) GetCheckoutSession(context.Context, string) (stripe.CheckoutSession, error) {
	return f.session, f.err
}

func webhookEvent(t *testing.T, eventType string, object any) stripe.Event {
	t.Helper()

	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(object)
	require.NoError(t, err)

	event := stripe.Event{ID: "evt_1", Type: eventType}
	event.Data.Object = raw

	return event
}

func proAccount(id, customerID string) entity.Account {
	return entity.Account{
		ID:               id,
		Tier:             value.TierPro,
		Status:           value.StatusActive,
		StripeCustomerID: customerID,
	}
}

func TestHandleCheckoutCompleted(t *testing.T) {
	rq := require.New(t)

	accounts := newFakeAccounts(entity.Account{ID: "user-1", Tier: value.TierFree, Status: value.StatusActive})
	service := billing.NewService(accounts, &fakeVerifier{})

	event := webhookEvent(t, stripe.EventCheckoutCompleted, stripe.CheckoutSession{
		ID:                "cs_1",
		Mode:              "subscription",
		Customer:          "cus_1",
		Subscription:      "sub_1",
		ClientReferenceID: "user-1",
		Metadata:          map[string]string{"plan": "pro"},
	})

	rq.NoError(service.HandleWebhookEvent(context.Background(), event))

	rq.Len(accounts.updates, 1)
	applied := accounts.updates[0]
	rq.Equal("user-1", applied.accountID)
	rq.Equal(value.TierPro, *applied.update.Tier)
	rq.Equal(value.StatusActive, *applied.update.Status)
	rq.Equal("cus_1", *applied.update.CustomerID)
	rq.Equal("sub_1", *applied.update.SubscriptionID)
	rq.True(applied.update.ClearExpiresAt)
	rq.Nil(applied.update.ExpiresAt)
}

func TestHandleCheckoutCompletedEventTierGetsExpiry(t *testing.T) {
	rq := require.New(t)

	accounts := newFakeAccounts(entity.Account{ID: "user-1", Tier: value.TierFree, Status: value.StatusActive})
	service := billing.NewService(accounts, &fakeVerifier{})

	event := webhookEvent(t, stripe.EventCheckoutCompleted, stripe.CheckoutSession{
		ID:       "cs_1",
		Mode:     "payment",
		Customer: "cus_1",
		Metadata: map[string]string{"plan": "event", "user_id": "user-1"},
	})

	rq.NoError(service.HandleWebhookEvent(context.Background(), event))

	rq.Len(accounts.updates, 1)
	applied := accounts.updates[0]
	rq.Equal(value.TierEvent, *applied.update.Tier)
	rq.False(applied.update.ClearExpiresAt)
	rq.NotNil(applied.update.ExpiresAt)
	rq.WithinDuration(time.Now().Add(30*24*time.Hour), *applied.update.ExpiresAt, time.Minute)
	// one-time payments carry no subscription id
	rq.Nil(applied.update.SubscriptionID)
}

func TestHandleCheckoutWithoutAccountReferenceDropped(t *testing.T) {
	rq := require.New(t)

	accounts := newFakeAccounts()
	service := billing.NewService(accounts, &fakeVerifier{})

	event := webhookEvent(t, stripe.EventCheckoutCompleted, stripe.CheckoutSession{ID: "cs_1"})

	rq.NoError(service.HandleWebhookEvent(context.Background(), event))
	rq.Empty(accounts.updates)
}

func TestHandleSubscriptionUpdated(t *testing.T) {
	rq := require.New(t)

	accounts := newFakeAccounts(proAccount("user-1", "cus_1"))
	service := billing.NewService(accounts, &fakeVerifier{})

	event := webhookEvent(t, stripe.EventSubscriptionUpdated, stripe.Subscription{
		ID:       "sub_1",
		Customer: "cus_1",
		Status:   "past_due",
	})

	rq.NoError(service.HandleWebhookEvent(context.Background(), event))

	rq.Len(accounts.updates, 1)
	rq.Equal(value.StatusPastDue, *accounts.updates[0].update.Status)
	rq.Nil(accounts.updates[0].update.Tier, "a status change must not touch the tier")
}

func TestHandleSubscriptionUpdatedUnknownCustomerDropped(t *testing.T) {
	rq := require.New(t)

	accounts := newFakeAccounts()
	service := billing.NewService(accounts, &fakeVerifier{})

	event := webhookEvent(t, stripe.EventSubscriptionUpdated, stripe.Subscription{
		Customer: "cus_unknown",
		Status:   "past_due",
	})

	rq.NoError(service.HandleWebhookEvent(context.Background(), event), "an unknown customer is dropped, not retried")
	rq.Empty(accounts.updates)
}

func TestHandleSubscriptionDeleted(t *testing.T) {
	rq := require.New(t)

	accounts := newFakeAccounts(proAccount("user-1", "cus_1"))
	service := billing.NewService(accounts, &fakeVerifier{})

	event := webhookEvent(t, stripe.EventSubscriptionDeleted, stripe.Subscription{
		ID:       "sub_1",
		Customer: "cus_1",
		Status:   "canceled",
	})

	rq.NoError(service.HandleWebhookEvent(context.Background(), event))

	rq.Len(accounts.updates, 1)
	applied := accounts.updates[0].update
	rq.Equal(value.TierFree, *applied.Tier)
	rq.Equal(value.StatusCanceled, *applied.Status)
	rq.True(applied.ClearSubID)
	rq.True(applied.ClearExpiresAt)
}

func TestHandleInvoiceEvents(t *testing.T) {
	testCases := []struct {
		eventType string
		want      value.SubscriptionStatus
	}{
		{eventType: stripe.EventPaymentFailed, want: value.StatusPastDue},
		{eventType: stripe.EventPaymentSucceeded, want: value.StatusActive},
	}

	for _, tc := range testCases {
		t.Run(tc.eventType, func(t *testing.T) {
			rq := require.New(t)

			accounts := newFakeAccounts(proAccount("user-1", "cus_1"))
			service := billing.NewService(accounts, &fakeVerifier{})

			event := webhookEvent(t, tc.eventType, stripe.Invoice{ID: "in_1", Customer: "cus_1"})

			rq.NoError(service.HandleWebhookEvent(context.Background(), event))
			rq.Len(accounts.updates, 1)
			rq.Equal(tc.want, *accounts.updates[0].update.Status)
		})
	}
}

func TestHandleUnknownEventTypeIgnored(t *testing.T) {
	rq := require.New(t)

	accounts := newFakeAccounts()
	service := billing.NewService(accounts, &fakeVerifier{})

	event := webhookEvent(t, "charge.refunded", struct{}{})

	rq.NoError(service.HandleWebhookEvent(context.Background(), event))
	rq.Empty(accounts.updates)
}

func TestVerifyCheckout(t *testing.T) {
	rq := require.New(t)

	accounts := newFakeAccounts(entity.Account{ID: "user-1", Tier: value.TierFree, Status: value.StatusActive})
	verifier := &fakeVerifier{session: stripe.CheckoutSession{
		ID:                "cs_1",
		PaymentStatus:     "paid",
		Mode:              "subscription",
		Customer:          "cus_1",
		Subscription:      "sub_1",
		ClientReferenceID: "user-1",
		Metadata:          map[string]string{"plan": "pro"},
	}}

	upgraded := false
	service := billing.NewService(accounts, verifier).
		WithUpgradeHook(func(context.Context) { upgraded = true })

	tier, err := service.VerifyCheckout(context.Background(), "cs_1")
	rq.NoError(err)
	rq.Equal(value.TierPro, tier)
	rq.Len(accounts.updates, 1)
	rq.True(upgraded, "a verified upgrade must trigger the hook")
}

func TestVerifyCheckoutUnpaid(t *testing.T) {
	rq := require.New(t)

	accounts := newFakeAccounts(entity.Account{ID: "user-1"})
	verifier := &fakeVerifier{session: stripe.CheckoutSession{
		ID:                "cs_1",
		PaymentStatus:     "unpaid",
		ClientReferenceID: "user-1",
	}}

	service := billing.NewService(accounts, verifier)

	_, err := service.VerifyCheckout(context.Background(), "cs_1")
	rq.Error(err)

	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.PaymentNotConfirmed, code)
	rq.Empty(accounts.updates)
}

func TestVerifyCheckoutLookupFailure(t *testing.T) {
	rq := require.New(t)

	service := billing.NewService(newFakeAccounts(), &fakeVerifier{err: errors.New("stripe down")})

	_, err := service.VerifyCheckout(context.Background(), "cs_1")
	rq.Error(err)
}

func TestIsPremium(t *testing.T) {
	rq := require.New(t)

	accounts := newFakeAccounts(
		proAccount("pro-user", "cus_1"),
		entity.Account{ID: "free-user", Tier: value.TierFree, Status: value.StatusActive},
		entity.Account{ID: "lapsed-user", Tier: value.TierPro, Status: value.StatusCanceled},
	)
	service := billing.NewService(accounts, &fakeVerifier{})

	ctx := context.Background()

	premium, err := service.IsPremium(ctx, "pro-user")
	rq.NoError(err)
	rq.True(premium)

	premium, err = service.IsPremium(ctx, "free-user")
	rq.NoError(err)
	rq.False(premium)

	premium, err = service.IsPremium(ctx, "lapsed-user")
	rq.NoError(err)
	rq.False(premium)

	_, err = service.IsPremium(ctx, "nobody")
	rq.Error(err)
}

func TestIsPremiumExpiredEventTier(t *testing.T) {
	rq := require.New(t)

	past := time.Now().Add(-time.Hour)
	accounts := newFakeAccounts(entity.Account{
		ID:        "event-user",
		Tier:      value.TierEvent,
		Status:    value.StatusActive,
		ExpiresAt: &past,
	})
	service := billing.NewService(accounts, &fakeVerifier{})

	premium, err := service.IsPremium(context.Background(), "event-user")
	rq.NoError(err)
	rq.False(premium, "a lapsed event purchase is not premium even before the sweep")
}

func TestTierFor(t *testing.T) {
	rq := require.New(t)

	accounts := newFakeAccounts(
		proAccount("pro-user", "cus_1"),
		entity.Account{ID: "lapsed-user", Tier: value.TierPro, Status: value.StatusCanceled},
	)
	service := billing.NewService(accounts, &fakeVerifier{})

	ctx := context.Background()

	rq.Equal(value.TierFree, service.TierFor(ctx, ""))
	rq.Equal(value.TierFree, service.TierFor(ctx, "nobody"))
	rq.Equal(value.TierFree, service.TierFor(ctx, "lapsed-user"))
	rq.Equal(value.TierPro, service.TierFor(ctx, "pro-user"))
}
