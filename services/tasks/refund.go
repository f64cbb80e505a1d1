package tasks

import (
	"encoding/json"
	"time"

	"brightnest/models"

	"github.com/hibiken/asynq"
)

const TypeRefundPayment = "payment:refund"

// Sweep task types; their payloads are empty.
const (
	TypeAutoReleaseSweep = "escrow:auto_release"
	TypeCaptureSweep     = "payment:capture"
)

func NewRefundTask(payload models.RefundPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeRefundPayment, b)
	opts := []asynq.Option{
		asynq.MaxRetry(10),
		asynq.Timeout(30 * time.Second),
	}

	return task, opts, nil
}
