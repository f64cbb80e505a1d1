package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"brightnest/config"
	"brightnest/models"
	"brightnest/services/booking"
	"brightnest/services/payment"
	"brightnest/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweepQueue,
	}
}

// InitEscrowWorker runs the async worker in background: queued refunds plus
// the periodic capture and auto-release sweeps.
func InitEscrowWorker(engine booking.BookingEngine, processor payment.Processor) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRefundPayment, handleRefundTask(processor))
	mux.HandleFunc(tasks.TypeAutoReleaseSweep, handleAutoReleaseSweep(engine))
	mux.HandleFunc(tasks.TypeCaptureSweep, handleCaptureSweep(engine))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[EscrowWorker] 🚀 Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[EscrowWorker] ❌ Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[EscrowWorker] ❗ Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

// InitSweepScheduler enqueues the periodic sweep tasks. Capture runs on the
// half hour so it never contends with the auto-release pass at the top of
// the hour.
func InitSweepScheduler() {
	scheduler := asynq.NewScheduler(redisOpts(), &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	if _, err := scheduler.Register("0 * * * *", asynq.NewTask(tasks.TypeAutoReleaseSweep, nil)); err != nil {
		log.Fatalf("[SweepScheduler] failed to register auto-release sweep: %v", err)
	}
	if _, err := scheduler.Register("30 * * * *", asynq.NewTask(tasks.TypeCaptureSweep, nil)); err != nil {
		log.Fatalf("[SweepScheduler] failed to register capture sweep: %v", err)
	}

	go func() {
		log.Println("[SweepScheduler] 🚀 Starting sweep scheduler...")
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[SweepScheduler] ❌ Scheduler stopped: %v", err)
		}
	}()
}

func handleRefundTask(processor payment.Processor) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.RefundPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[RefundHandler] 🔴 Invalid payload: %v", err)
			return err
		}

		log.Printf("[RefundHandler] 💸 Refunding payment %s: %s", p.PaymentIntentID, p.Reason)

		err := processor.Refund(ctx, payment.RefundParams{
			PaymentIntentID: p.PaymentIntentID,
			IdempotencyKey:  "refund_conflict_" + p.PaymentIntentID,
		})
		if err != nil {
			log.Printf("[RefundHandler] ❌ Refund failed, will retry: %v", err)
		}
		return err
	}
}

func handleAutoReleaseSweep(engine booking.BookingEngine) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		summary, err := engine.SweepAutoRelease(ctx)
		if err != nil {
			log.Printf("[AutoReleaseSweep] ❌ Sweep failed: %v", err)
			return err
		}
		log.Printf("[AutoReleaseSweep] ⏰ scanned=%d released=%d failed=%d",
			summary.Scanned, summary.Succeeded, summary.Failed)
		return nil
	}
}

func handleCaptureSweep(engine booking.BookingEngine) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		summary, err := engine.SweepCapture(ctx)
		if err != nil {
			log.Printf("[CaptureSweep] ❌ Sweep failed: %v", err)
			return err
		}
		log.Printf("[CaptureSweep] 💰 scanned=%d captured=%d failed=%d",
			summary.Scanned, summary.Succeeded, summary.Failed)
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweepQueue,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[EscrowWorker] ⚠️ Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
