// Package conflict holds the pure predicates behind enrollment and
// booking validation: interval overlap, credit accounting and capacity.
package conflict

import "github.com/campushq/campus-api/internal/models"

// Overlaps reports whether two half-open intervals [startA, endA) and
// [startB, endB) intersect. Times are zero-padded "HH:MM" strings, so
// lexicographic comparison matches chronological order. Intervals that
// only touch at an endpoint do not overlap.
func Overlaps(startA, endA, startB, endB string) bool {
	lo := startA
	if startB > lo {
		lo = startB
	}
	hi := endA
	if endB < hi {
		hi = endB
	}
	return lo < hi
}

// HasScheduleConflict reports whether candidate collides with any of the
// existing schedule slots. Slots conflict only when they share a day of
// week and their time intervals overlap.
func HasScheduleConflict(candidate models.Schedule, existing []models.Schedule) (models.Schedule, bool) {
	for _, s := range existing {
		if s.DayOfWeek != candidate.DayOfWeek {
			continue
		}
		if Overlaps(candidate.StartTime, candidate.EndTime, s.StartTime, s.EndTime) {
			return s, true
		}
	}
	return models.Schedule{}, false
}

// WithinCreditLimit reports whether adding a course worth credit to the
// current total stays within limit. The limit itself is allowed: a total
// landing exactly on the limit passes.
func WithinCreditLimit(current, credit, limit int) bool {
	return current+credit <= limit
}

// FindBookingConflict returns the first approved booking that overlaps the
// requested interval, ignoring the booking identified by excludeID so a
// record never conflicts with itself during re-validation. Pending and
// rejected bookings never block.
func FindBookingConflict(startTime, endTime, excludeID string, existing []models.ClassroomBooking) (models.ClassroomBooking, bool) {
	for _, b := range existing {
		if b.ID == excludeID {
			continue
		}
		if b.Status != models.BookingStatusApproved {
			continue
		}
		if Overlaps(startTime, endTime, b.StartTime, b.EndTime) {
			return b, true
		}
	}
	return models.ClassroomBooking{}, false
}

// ExceedsCapacity reports whether attendees cannot fit in the classroom.
// A headcount equal to capacity fits.
func ExceedsCapacity(attendees, capacity int) bool {
	return attendees > capacity
}

// ValidInterval reports whether start strictly precedes end.
func ValidInterval(start, end string) bool {
	return start < end
}
