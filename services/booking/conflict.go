package booking

import (
	"context"

	"brightnest/models"
)

// FindConflict returns the first existing booking whose interval overlaps
// the candidate [startMinute, endMinute) window, or nil. Legacy rows without
// explicit times conflict with everything on their date; the policy lives in
// models.Booking.Interval and is shared with the transactional re-check.
func FindConflict(existing []models.Booking, startMinute, endMinute int) *models.Booking {
	for i := range existing {
		if existing[i].ConflictsWith(startMinute, endMinute) {
			return &existing[i]
		}
	}
	return nil
}

// checkSlotFree runs the best-effort pre-flight conflict check against
// currently persisted bookings. The authoritative check happens again inside
// the booking transaction at commit time.
func (e *DefaultBookingEngine) checkSlotFree(ctx context.Context, serviceID, date string, startMinute, endMinute int) error {
	existing, err := e.Bookings.FindActiveOnDate(ctx, serviceID, date)
	if err != nil {
		return err
	}
	if c := FindConflict(existing, startMinute, endMinute); c != nil {
		return NewError(CodeSlotConflict, "slot on %s conflicts with existing booking %s", date, c.ID)
	}
	return nil
}
