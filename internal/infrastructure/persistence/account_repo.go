package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"bidscreen/internal/domain"
	"bidscreen/internal/domain/entity"
	"bidscreen/internal/domain/value"
	"bidscreen/pkg/errcodes"
)

const accountColumns = `
	id, email, subscription_tier, subscription_status,
	stripe_customer_id, stripe_subscription_id, subscription_expires_at, updated_at`

// AccountRepository reads and reconciles billing profiles. Tier and status
// rows are written only through SubscriptionUpdate, never piecemeal by
// transport code.
type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// SubscriptionUpdate is the full set of reconcilable subscription fields. Nil
// pointer fields keep their current value.
type SubscriptionUpdate struct {
	Tier           *value.Tier
	Status         *value.SubscriptionStatus
	CustomerID     *string
	SubscriptionID *string
	ExpiresAt      *time.Time
	ClearSubID     bool
	ClearExpiresAt bool
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	var schema accountSchema

	query := `SELECT ` + accountColumns + ` FROM profiles WHERE id = $1`

	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.AccountNotFound, "account not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get account")
	}

	account := schema.toDomain()

	return &account, nil
}

// GetByCustomerID looks up the account owning a payment-provider customer id.
func (r *AccountRepository) GetByCustomerID(ctx context.Context, customerID string) (*entity.Account, error) {
	var schema accountSchema

	query := `SELECT ` + accountColumns + ` FROM profiles WHERE stripe_customer_id = $1`

	if err := r.db.GetContext(ctx, &schema, query, customerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.AccountNotFound, "account not found for customer")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get account by customer")
	}

	account := schema.toDomain()

	return &account, nil
}

// UpdateSubscription applies a reconciliation delta to one account.
func (r *AccountRepository) UpdateSubscription(ctx context.Context, accountID string, update SubscriptionUpdate) error {
	query := `
		UPDATE profiles SET
			subscription_tier = COALESCE($2, subscription_tier),
			subscription_status = COALESCE($3, subscription_status),
			stripe_customer_id = COALESCE($4, stripe_customer_id),
			stripe_subscription_id = CASE WHEN $6 THEN NULL ELSE COALESCE($5, stripe_subscription_id) END,
			subscription_expires_at = CASE WHEN $8 THEN NULL ELSE COALESCE($7, subscription_expires_at) END,
			updated_at = $9
		WHERE id = $1`

	var tier, status *string
	if update.Tier != nil {
		s := update.Tier.String()
		tier = &s
	}
	if update.Status != nil {
		s := update.Status.String()
		status = &s
	}

	res, err := r.db.ExecContext(ctx, query,
		accountID,
		tier,
		status,
		update.CustomerID,
		update.SubscriptionID,
		update.ClearSubID,
		update.ExpiresAt,
		update.ClearExpiresAt,
		time.Now(),
	)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to update subscription")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
	}

	if rows == 0 {
		return domain.NewError(errcodes.AccountNotFound, "account not found")
	}

	return nil
}

// MarkExpired flips event-tier accounts past their expiration to expired.
// Returns the number of accounts swept.
func (r *AccountRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE profiles SET
			subscription_status = $1,
			updated_at = $2
		WHERE subscription_tier = $3
		  AND subscription_status = $4
		  AND subscription_expires_at IS NOT NULL
		  AND subscription_expires_at < $2`

	res, err := r.db.ExecContext(ctx, query,
		value.StatusExpired.String(),
		now,
		value.TierEvent.String(),
		value.StatusActive.String(),
	)
	if err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to mark expired accounts")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
	}

	return rows, nil
}
