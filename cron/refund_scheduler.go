package cron

import (
	"context"
	"fmt"

	"brightnest/models"
	"brightnest/services/tasks"

	"github.com/hibiken/asynq"
)

// AsynqRefundScheduler enqueues durable refund tasks on the sweep queue. It
// implements booking.RefundScheduler.
type AsynqRefundScheduler struct {
	Client *asynq.Client
}

func NewRefundScheduler() *AsynqRefundScheduler {
	return &AsynqRefundScheduler{Client: asynq.NewClient(redisOpts())}
}

func (s *AsynqRefundScheduler) ScheduleRefund(ctx context.Context, paymentIntentID, reason string) error {
	task, opts, err := tasks.NewRefundTask(models.RefundPayload{
		PaymentIntentID: paymentIntentID,
		Reason:          reason,
	})
	if err != nil {
		return fmt.Errorf("building refund task: %w", err)
	}
	if _, err := s.Client.Enqueue(task, opts...); err != nil {
		return fmt.Errorf("enqueueing refund task: %w", err)
	}
	return nil
}
