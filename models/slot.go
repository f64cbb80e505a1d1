package models

import (
	"fmt"
	"strconv"
	"strings"
)

// minutes spanned by a whole day; legacy bookings without explicit times are
// treated as occupying [0, 1440) on their date. This is the single documented
// policy for rows predating per-slot times and is applied by every overlap
// check through Interval/ConflictsWith below.
const (
	dayStartMinute = 0
	dayEndMinute   = 24 * 60
)

// ParseClock converts "HH:MM" into minutes from midnight.
func ParseClock(v string) (int, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", v)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes from midnight into "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Interval returns the half-open [start, end) minute interval the booking
// occupies on its date. Rows without explicit times block the whole day; a
// malformed stored time degrades to whole-day as well rather than silently
// freeing the slot.
func (b *Booking) Interval() (start, end int) {
	if !b.HasTimes() {
		return dayStartMinute, dayEndMinute
	}
	s, err := ParseClock(*b.StartTime)
	if err != nil {
		return dayStartMinute, dayEndMinute
	}
	e, err := ParseClock(*b.EndTime)
	if err != nil {
		return dayStartMinute, dayEndMinute
	}
	return s, e
}

// ConflictsWith reports whether the candidate half-open interval overlaps the
// booking's interval: newStart < existingEnd && newEnd > existingStart.
func (b *Booking) ConflictsWith(startMinute, endMinute int) bool {
	s, e := b.Interval()
	return startMinute < e && endMinute > s
}
