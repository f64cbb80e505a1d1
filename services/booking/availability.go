package booking

import (
	"time"

	"brightnest/models"
)

// Duration model for cleaning work: a fixed setup block plus per-area and
// per-window effort. Estimates are rounded up to the service's slot
// granularity so bookings always occupy whole slots.
const (
	baseMinutes      = 30
	minutesPerSqm    = 1.5
	minutesPerWindow = 15
	defaultSlotMins  = 30
)

// Estimate is the computed duration and price for a booking request.
type Estimate struct {
	DurationMinutes int
	Amount          float64
}

// EstimateBooking computes estimated duration and price from the service's
// pricing rules and the apartment-size/window inputs. Pure function, no I/O.
func EstimateBooking(svc *models.Service, apartmentSqm, windows int) Estimate {
	if apartmentSqm < 0 {
		apartmentSqm = 0
	}
	if windows < 0 {
		windows = 0
	}

	minutes := baseMinutes + int(float64(apartmentSqm)*minutesPerSqm) + windows*minutesPerWindow
	granularity := svc.SlotMinutes
	if granularity <= 0 {
		granularity = defaultSlotMins
	}
	if rem := minutes % granularity; rem != 0 {
		minutes += granularity - rem
	}

	var amount float64
	switch svc.PriceType {
	case models.PriceHourly:
		amount = svc.Amount * float64(minutes) / 60
	case models.PricePerArea:
		amount = svc.Amount * float64(apartmentSqm)
	default: // fixed
		amount = svc.Amount
	}

	return Estimate{
		DurationMinutes: minutes,
		Amount:          roundMoney(amount),
	}
}

// ValidateSchedule checks that the requested date and optional time window
// fall inside the service's availability rules. startTime/endTime are "HH:MM"
// or empty for a whole-day booking.
func ValidateSchedule(svc *models.Service, date, startTime, endTime string) error {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return NewError(CodeValidation, "invalid date %q, want YYYY-MM-DD", date)
	}

	weekday := weekdayKey(day.Weekday())
	for _, disabled := range svc.DisabledWeekdays {
		if disabled == weekday {
			return NewError(CodeServiceUnavailable, "service is not offered on %ss", weekday)
		}
	}
	for _, blocked := range svc.BlockedDates {
		if blocked == date {
			return NewError(CodeServiceUnavailable, "service is blocked on %s", date)
		}
	}

	if startTime == "" && endTime == "" {
		return nil
	}
	if startTime == "" || endTime == "" {
		return NewError(CodeValidation, "startTime and endTime must be given together")
	}

	start, err := models.ParseClock(startTime)
	if err != nil {
		return NewError(CodeValidation, "invalid startTime: %v", err)
	}
	end, err := models.ParseClock(endTime)
	if err != nil {
		return NewError(CodeValidation, "invalid endTime: %v", err)
	}
	if end <= start {
		return NewError(CodeValidation, "endTime must be after startTime")
	}

	open, err := models.ParseClock(svc.WorkingHours.Start)
	if err != nil {
		return NewError(CodeServiceUnavailable, "service has invalid working hours")
	}
	close, err := models.ParseClock(svc.WorkingHours.End)
	if err != nil {
		return NewError(CodeServiceUnavailable, "service has invalid working hours")
	}
	if start < open || end > close {
		return NewError(CodeServiceUnavailable,
			"requested slot %s-%s is outside working hours %s-%s",
			startTime, endTime, svc.WorkingHours.Start, svc.WorkingHours.End)
	}
	return nil
}

func weekdayKey(w time.Weekday) string {
	switch w {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}
