package billing

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"bidscreen/internal/domain"
	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
	"bidscreen/internal/infrastructure/persistence"
	"bidscreen/internal/infrastructure/stripe"
	"bidscreen/pkg/contextx"
	"bidscreen/pkg/errcodes"
	"bidscreen/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// AccountRepository is the billing view of the profiles store.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByCustomerID(ctx context.Context, customerID string) (*entity.Account, error)
	UpdateSubscription(ctx context.Context, accountID string, update persistence.SubscriptionUpdate) error
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

// CheckoutVerifier confirms payment state with the processor directly.
type CheckoutVerifier interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (stripe.CheckoutSession, error)
}

const (
	premiumCacheTTL = time.Minute
	// eventTierWindow is how long a one-time event purchase stays active.
	eventTierWindow = 30 * 24 * time.Hour
)

// Service reconciles provider subscription state into accounts and answers
// premium checks for the storage adapter.
type Service struct {
	accounts AccountRepository
	verifier CheckoutVerifier
	cache    *gocache.Cache

	// onUpgrade runs after a verified checkout changed an account's tier,
	// letting the storage adapter re-evaluate its mode mid-session.
	onUpgrade func(ctx context.Context)

	now func() time.Time
}

func NewService(accounts AccountRepository, verifier CheckoutVerifier) *Service {
	return &Service{
		accounts: accounts,
		verifier: verifier,
		cache:    gocache.New(premiumCacheTTL, 5*time.Minute),
		now:      time.Now,
	}
}

// WithUpgradeHook registers the callback invoked after a verified upgrade.
func (s *Service) WithUpgradeHook(hook func(ctx context.Context)) *Service {
	s.onUpgrade = hook
	return s
}

// IsPremium reports whether the account qualifies for remote storage.
// Lookups are cached briefly; an expired event-tier purchase never counts as
// premium even before the sweep marks it.
func (s *Service) IsPremium(ctx context.Context, accountID string) (bool, error) {
	if cached, ok := s.cache.Get(accountID); ok {
		return cached.(bool), nil
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return false, err
	}

	premium := account.IsPremium()
	if premium && account.ExpiresAt != nil && account.ExpiresAt.Before(s.now()) {
		premium = false
	}

	s.cache.Set(accountID, premium, gocache.DefaultExpiration)

	return premium, nil
}

// TierFor resolves the effective tier used for capability checks. Anonymous
// accounts, lookup failures, and lapsed subscriptions all resolve to free.
func (s *Service) TierFor(ctx context.Context, accountID string) value.Tier {
	if accountID == "" {
		return value.TierFree
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		logger(ctx).Error("tier lookup failed, treating as free", slog.String("account-id", accountID), logx.Error(err))
		return value.TierFree
	}

	if !account.IsPremium() {
		return value.TierFree
	}

	if account.ExpiresAt != nil && account.ExpiresAt.Before(s.now()) {
		return value.TierFree
	}

	return account.Tier
}

// HandleWebhookEvent applies one provider event to the account it concerns.
// A customer lookup miss is logged and dropped, not retried: the provider
// redelivers on its own schedule.
func (s *Service) HandleWebhookEvent(ctx context.Context, event stripe.Event) error {
	logger(ctx).Info("billing webhook event", slog.String("type", event.Type))

	switch event.Type {
	case stripe.EventCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case stripe.EventSubscriptionUpdated:
		return s.handleSubscriptionUpdated(ctx, event)
	case stripe.EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	case stripe.EventPaymentFailed:
		return s.handlePaymentStatus(ctx, event, value.StatusPastDue)
	case stripe.EventPaymentSucceeded:
		return s.handlePaymentStatus(ctx, event, value.StatusActive)
	default:
		logger(ctx).Debug("unhandled webhook event type", slog.String("type", event.Type))
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	session, err := event.CheckoutSession()
	if err != nil {
		return domain.WrapError(err, errcodes.InvalidWebhookEvent, "failed to decode checkout session")
	}

	accountID := sessionAccountID(session)
	if accountID == "" {
		logger(ctx).Error("checkout session without account reference", slog.String("session-id", session.ID))
		return nil
	}

	return s.applyCheckout(ctx, accountID, session)
}

// applyCheckout is shared by the webhook path and the verification path.
func (s *Service) applyCheckout(ctx context.Context, accountID string, session stripe.CheckoutSession) error {
	tier := value.TierPro
	if plan, err := value.ParseTier(session.Metadata["plan"]); err == nil {
		tier = plan
	}

	status := value.StatusActive

	update := persistence.SubscriptionUpdate{
		Tier:   &tier,
		Status: &status,
	}

	if session.Customer != "" {
		update.CustomerID = &session.Customer
	}

	if session.Mode == "subscription" && session.Subscription != "" {
		update.SubscriptionID = &session.Subscription
	}

	if tier == value.TierEvent {
		expiresAt := s.now().Add(eventTierWindow)
		update.ExpiresAt = &expiresAt
	} else {
		update.ClearExpiresAt = true
	}

	if err := s.accounts.UpdateSubscription(ctx, accountID, update); err != nil {
		return err
	}

	s.cache.Delete(accountID)

	logger(ctx).Info(
		"account upgraded",
		slog.String("account-id", accountID),
		slog.String("tier", tier.String()),
	)

	return nil
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	sub, err := event.Subscription()
	if err != nil {
		return domain.WrapError(err, errcodes.InvalidWebhookEvent, "failed to decode subscription")
	}

	account, ok := s.lookupCustomer(ctx, sub.Customer)
	if !ok {
		return nil
	}

	status := value.StatusFromProvider(sub.Status)

	if err := s.accounts.UpdateSubscription(ctx, account.ID, persistence.SubscriptionUpdate{
		Status: &status,
	}); err != nil {
		return err
	}

	s.cache.Delete(account.ID)

	logger(ctx).Info(
		"subscription status updated",
		slog.String("account-id", account.ID),
		slog.String("status", status.String()),
	)

	return nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	sub, err := event.Subscription()
	if err != nil {
		return domain.WrapError(err, errcodes.InvalidWebhookEvent, "failed to decode subscription")
	}

	account, ok := s.lookupCustomer(ctx, sub.Customer)
	if !ok {
		return nil
	}

	tier := value.TierFree
	status := value.StatusCanceled

	if err := s.accounts.UpdateSubscription(ctx, account.ID, persistence.SubscriptionUpdate{
		Tier:           &tier,
		Status:         &status,
		ClearSubID:     true,
		ClearExpiresAt: true,
	}); err != nil {
		return err
	}

	s.cache.Delete(account.ID)

	logger(ctx).Info("account downgraded to free", slog.String("account-id", account.ID))

	return nil
}

func (s *Service) handlePaymentStatus(ctx context.Context, event stripe.Event, status value.SubscriptionStatus) error {
	invoice, err := event.Invoice()
	if err != nil {
		return domain.WrapError(err, errcodes.InvalidWebhookEvent, "failed to decode invoice")
	}

	account, ok := s.lookupCustomer(ctx, invoice.Customer)
	if !ok {
		return nil
	}

	if err := s.accounts.UpdateSubscription(ctx, account.ID, persistence.SubscriptionUpdate{
		Status: &status,
	}); err != nil {
		return err
	}

	s.cache.Delete(account.ID)

	logger(ctx).Info(
		"payment status applied",
		slog.String("account-id", account.ID),
		slog.String("status", status.String()),
	)

	return nil
}

func (s *Service) lookupCustomer(ctx context.Context, customerID string) (*entity.Account, bool) {
	account, err := s.accounts.GetByCustomerID(ctx, customerID)
	if err != nil {
		logger(ctx).Error(
			"account not found for customer, dropping event",
			slog.String("customer-id", customerID),
			logx.Error(err),
		)
		return nil, false
	}

	return account, true
}

// VerifyCheckout confirms a completed checkout session with the processor
// and applies the resulting tier change. Client input is only the session id;
// payment state comes from the processor.
func (s *Service) VerifyCheckout(ctx context.Context, sessionID string) (value.Tier, error) {
	session, err := s.verifier.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return "", domain.WrapError(err, errcodes.InternalServerError, "failed to retrieve checkout session")
	}

	if !session.Paid() {
		return "", domain.NewError(errcodes.PaymentNotConfirmed, "payment not confirmed")
	}

	accountID := sessionAccountID(session)
	if accountID == "" {
		return "", domain.NewError(errcodes.InvalidWebhookEvent, "no account reference in session")
	}

	if err := s.applyCheckout(ctx, accountID, session); err != nil {
		return "", err
	}

	if s.onUpgrade != nil {
		s.onUpgrade(ctx)
	}

	tier := value.TierPro
	if plan, err := value.ParseTier(session.Metadata["plan"]); err == nil {
		tier = plan
	}

	return tier, nil
}

// SweepExpired marks event-tier purchases past their window as expired.
func (s *Service) SweepExpired(ctx context.Context) error {
	swept, err := s.accounts.MarkExpired(ctx, s.now())
	if err != nil {
		return err
	}

	if swept > 0 {
		s.cache.Flush()
		logger(ctx).Info("expired event-tier accounts swept", slog.Int64("count", swept))
	}

	return nil
}

func sessionAccountID(session stripe.CheckoutSession) string {
	if session.ClientReferenceID != "" {
		return session.ClientReferenceID
	}

	return session.Metadata["user_id"]
}
