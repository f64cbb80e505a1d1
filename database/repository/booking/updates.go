package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brightnest/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// guardedUpdate runs FindOneAndUpdate with the required prior state encoded
// in the filter. A zero match means the booking either does not exist or was
// already transitioned by a competing actor; callers distinguish the two.
func (repo *MongoBookingRepo) guardedUpdate(ctx context.Context, filter, update bson.M) (*models.Booking, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var b models.Booking
	err := repo.bookingColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrGuardFailed
		}
		return nil, fmt.Errorf("guarded booking update failed: %w", err)
	}
	return &b, nil
}

// MarkCaptured moves authorized funds into escrow: (pending, authorized) ->
// (pending, held_in_escrow).
func (repo *MongoBookingRepo) MarkCaptured(ctx context.Context, id string) (*models.Booking, error) {
	return repo.guardedUpdate(ctx,
		bson.M{
			"id":            id,
			"status":        models.BookingPending,
			"paymentStatus": models.PaymentAuthorized,
		},
		bson.M{"$set": bson.M{
			"paymentStatus": models.PaymentHeldInEscrow,
			"updatedAt":     time.Now(),
		}},
	)
}

// MarkAwaitingConfirmation records the provider's completion: requires escrow
// held and no confirmation already in progress.
func (repo *MongoBookingRepo) MarkAwaitingConfirmation(ctx context.Context, id string, proofs []string, deadline time.Time) (*models.Booking, error) {
	return repo.guardedUpdate(ctx,
		bson.M{
			"id":                         id,
			"status":                     models.BookingPending,
			"paymentStatus":              models.PaymentHeldInEscrow,
			"awaitingClientConfirmation": false,
		},
		bson.M{"$set": bson.M{
			"status":                     models.BookingAwaitingConf,
			"photoProofs":                proofs,
			"awaitingClientConfirmation": true,
			"confirmationDeadline":       deadline,
			"updatedAt":                  time.Now(),
		}},
	)
}

// MarkReleased finalizes the booking after a successful transfer: requires
// funds still held in escrow so a double release cannot be recorded.
func (repo *MongoBookingRepo) MarkReleased(ctx context.Context, id, reason, transferID string) (*models.Booking, error) {
	now := time.Now()
	return repo.guardedUpdate(ctx,
		bson.M{
			"id":            id,
			"paymentStatus": models.PaymentHeldInEscrow,
		},
		bson.M{"$set": bson.M{
			"status":                     models.BookingCompleted,
			"paymentStatus":              models.PaymentReleased,
			"awaitingClientConfirmation": false,
			"releaseReason":              reason,
			"transferId":                 transferID,
			"completedAt":                now,
			"updatedAt":                  now,
		}},
	)
}

// MarkRefunded cancels the booking after a refund went through. The filter
// re-checks the status the caller observed (pending for cancellation,
// disputed for dispute resolution) so a transition that raced in between
// fails the guard instead of cancelling the wrong state. Accepts any
// refundable payment state (authorized or held in escrow).
func (repo *MongoBookingRepo) MarkRefunded(ctx context.Context, id, priorStatus, cancelReason string) (*models.Booking, error) {
	return repo.guardedUpdate(ctx,
		bson.M{
			"id":     id,
			"status": priorStatus,
			"paymentStatus": bson.M{"$in": []string{
				models.PaymentAuthorized,
				models.PaymentHeldInEscrow,
			}},
		},
		bson.M{"$set": bson.M{
			"status":                     models.BookingCancelled,
			"paymentStatus":              models.PaymentRefunded,
			"awaitingClientConfirmation": false,
			"cancelReason":               cancelReason,
			"updatedAt":                  time.Now(),
		}},
	)
}

// MarkCancelled cancels a booking that never held funds. Rows with authorized
// or escrowed funds go through MarkRefunded instead.
func (repo *MongoBookingRepo) MarkCancelled(ctx context.Context, id, cancelReason string) (*models.Booking, error) {
	return repo.guardedUpdate(ctx,
		bson.M{
			"id":            id,
			"status":        models.BookingPending,
			"paymentStatus": models.PaymentUnpaid,
		},
		bson.M{"$set": bson.M{
			"status":       models.BookingCancelled,
			"cancelReason": cancelReason,
			"updatedAt":    time.Now(),
		}},
	)
}

// OpenDispute freezes the auto-release timer. Requires an active
// confirmation window and no prior dispute on the booking.
func (repo *MongoBookingRepo) OpenDispute(ctx context.Context, id, reason string) (*models.Booking, error) {
	now := time.Now()
	return repo.guardedUpdate(ctx,
		bson.M{
			"id":                         id,
			"awaitingClientConfirmation": true,
			"paymentStatus":              models.PaymentHeldInEscrow,
			"disputeStatus":              bson.M{"$in": []interface{}{nil, ""}},
		},
		bson.M{"$set": bson.M{
			"status":                     models.BookingDisputed,
			"disputeStatus":              models.DisputeOpen,
			"disputeReason":              reason,
			"disputeOpenedAt":            now,
			"awaitingClientConfirmation": false,
			"updatedAt":                  now,
		}},
	)
}

// ResolveDispute records the admin's verdict. The payment/status move itself
// happens through MarkReleased or MarkRefunded; this stamps the dispute
// fields and requires the dispute to still be open.
func (repo *MongoBookingRepo) ResolveDispute(ctx context.Context, id, resolution, adminID, notes string) (*models.Booking, error) {
	now := time.Now()
	return repo.guardedUpdate(ctx,
		bson.M{
			"id":            id,
			"status":        models.BookingDisputed,
			"disputeStatus": models.DisputeOpen,
		},
		bson.M{"$set": bson.M{
			"disputeStatus":     resolution,
			"disputeResolvedAt": now,
			"disputeResolvedBy": adminID,
			"disputeNotes":      notes,
			"updatedAt":         now,
		}},
	)
}
