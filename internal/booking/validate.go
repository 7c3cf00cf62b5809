package booking

import (
	"errors"
	"strings"

	"gymbook/internal/models"
	"gymbook/internal/schedule"
)

// Validation failures, in check order. Any one of them blocks submission;
// there is no partial acceptance.
var (
	ErrMissingFields = errors.New("missing required fields")
	ErrSlotConflict  = errors.New("slot already booked for this machine and date")
	ErrPastSlot      = errors.New("slot start is in the past")
)

// Validate checks a candidate booking against the current list. It is pure
// and synchronous: required fields first, then a conflict scan over the
// existing bookings, then the past-slot guard. Short-circuits on the first
// failure.
func Validate(candidate models.Booking, existing []models.Booking) error {
	if strings.TrimSpace(candidate.FirstName) == "" ||
		strings.TrimSpace(candidate.LastName) == "" ||
		strings.TrimSpace(candidate.MemberID) == "" ||
		candidate.Age <= 0 {
		return ErrMissingFields
	}

	for _, b := range existing {
		if b.MachineID == candidate.MachineID && b.Date == candidate.Date && b.SlotID == candidate.SlotID {
			return ErrSlotConflict
		}
	}

	if schedule.IsPastSlot(candidate.Date, candidate.SlotID) {
		return ErrPastSlot
	}
	return nil
}
