package worker

import (
	"context"

	"github.com/hibiken/asynq"

	"bidscreen/pkg/logx"
)

// TypeSubscriptionExpire is the periodic task that lapses event-tier
// purchases past their 30-day window.
const TypeSubscriptionExpire = "subscription:expire"

// ExpirySweeper is the billing-side operation the task delegates to.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context) error
}

func NewSubscriptionExpireTask() *asynq.Task {
	return asynq.NewTask(TypeSubscriptionExpire, nil)
}

// HandleSubscriptionExpire adapts the sweeper to an asynq handler.
func HandleSubscriptionExpire(sweeper ExpirySweeper) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		if err := sweeper.SweepExpired(ctx); err != nil {
			logger(ctx).Error("subscription expiry sweep failed", logx.Error(err))
			return err
		}

		return nil
	}
}
