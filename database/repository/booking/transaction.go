package bookingRepo

import (
	"context"
	"errors"
	"fmt"

	"brightnest/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// createAttempts bounds how often the booking transaction is retried after a
// transient write conflict before giving up.
const createAttempts = 3

// CreateIfSlotFree inserts the booking only if no competing non-cancelled
// booking overlaps its interval at commit time.
//
// The overlap re-check and the insert run in one multi-document transaction.
// Snapshot isolation alone does not serialize two concurrent inserts, so the
// transaction also bumps a per-(service,date) revision document; two commits
// for the same day then write-conflict and exactly one aborts with a
// transient error. The aborted side retries against the winner's data, sees
// the overlap, and returns ErrSlotTaken.
func (repo *MongoBookingRepo) CreateIfSlotFree(ctx context.Context, booking *models.Booking) error {
	client := repo.bookingColl.Database().Client()

	startMinute, endMinute := booking.Interval()

	var lastErr error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		sess, err := client.StartSession()
		if err != nil {
			return fmt.Errorf("could not start mongo session: %w", err)
		}

		txnFn := func(sc mongo.SessionContext) error {
			// Touch the day lock first so competing transactions for the same
			// (service, date) collide on this document.
			lockFilter := bson.M{"serviceId": booking.ServiceID, "date": booking.Date}
			lockUpdate := bson.M{"$inc": bson.M{"revision": 1}}
			if _, err := repo.slotLockColl.UpdateOne(sc, lockFilter, lockUpdate,
				options.Update().SetUpsert(true)); err != nil {
				return fmt.Errorf("slot lock update failed: %w", err)
			}

			// A concurrent verification of the same session may already have
			// committed this booking; that is idempotent success, not a
			// conflict, so it must be detected before the overlap scan ever
			// sees the row.
			dup := repo.bookingColl.FindOne(sc, bson.M{"checkoutSessionId": booking.CheckoutSessionID})
			if err := dup.Err(); err == nil {
				return ErrSessionExists
			} else if err != mongo.ErrNoDocuments {
				return fmt.Errorf("session re-check failed: %w", err)
			}

			// Re-run the overlap check against current data.
			cursor, err := repo.bookingColl.Find(sc, bson.M{
				"serviceId": booking.ServiceID,
				"date":      booking.Date,
				"status":    bson.M{"$ne": models.BookingCancelled},
			})
			if err != nil {
				return fmt.Errorf("overlap re-check failed: %w", err)
			}
			var existing []models.Booking
			if err := cursor.All(sc, &existing); err != nil {
				return fmt.Errorf("overlap re-check decode failed: %w", err)
			}
			for i := range existing {
				if existing[i].ConflictsWith(startMinute, endMinute) {
					return ErrSlotTaken
				}
			}

			if _, err := repo.bookingColl.InsertOne(sc, booking); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return ErrSessionExists
				}
				return fmt.Errorf("insert booking failed: %w", err)
			}
			return nil
		}

		err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
			if err := sc.StartTransaction(); err != nil {
				return err
			}
			if err := txnFn(sc); err != nil {
				_ = sc.AbortTransaction(sc)
				return err
			}
			return sc.CommitTransaction(sc)
		})
		sess.EndSession(ctx)

		switch {
		case err == nil:
			return nil
		case err == ErrSlotTaken || err == ErrSessionExists:
			return err
		case isTransientTxnError(err) && attempt < createAttempts:
			lastErr = err
			continue
		default:
			return fmt.Errorf("booking transaction failed: %w", err)
		}
	}
	return fmt.Errorf("booking transaction failed after %d attempts: %w", createAttempts, lastErr)
}

func isTransientTxnError(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}
