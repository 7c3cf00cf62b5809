// Package schedule computes the fixed hourly slot grid, the selectable day
// range and the calendar arithmetic shared by the booking pipeline.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	// DefaultStartHour and DefaultEndHour bound the daily operating window.
	DefaultStartHour = 6
	DefaultEndHour   = 22

	// DefaultDaysAhead is how many days the date picker offers.
	DefaultDaysAhead = 7
)

// Slot is a fixed one-hour reservable interval within the daily window.
// The set of slots is static and day-independent.
type Slot struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// GenerateSlots returns the ordered one-hour slots between startHour
// (inclusive) and endHour (exclusive end of last slot). Pure function of the
// two bounds.
func GenerateSlots(startHour, endHour int) []Slot {
	var slots []Slot
	for h := startHour; h < endHour; h++ {
		id := fmt.Sprintf("%02d:00-%02d:00", h, h+1)
		slots = append(slots, Slot{ID: id, Label: id})
	}
	return slots
}

// NextDays returns the next n local calendar days starting today, normalized
// to midnight.
func NextDays(n int) []time.Time {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, today.AddDate(0, 0, i))
	}
	return days
}

var slotHourRe = regexp.MustCompile(`^(\d{2}):\d{2}-`)

// SlotStartHour extracts the leading hour from a slot id. Malformed ids
// yield hour 0.
func SlotStartHour(slotID string) int {
	m := slotHourRe.FindStringSubmatch(slotID)
	if m == nil {
		return 0
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return h
}
