package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// looseLayouts are tried in order when a date arrives as a free-form string.
// The spreadsheet backend serializes dates differently depending on how the
// cell was entered.
var looseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	time.RFC1123,
	time.RFC1123Z,
}

// DateKey renders a time as the canonical YYYY-MM-DD calendar date.
func DateKey(t time.Time) string {
	return t.Format(dateLayout)
}

// NormalizeDate converts a wire date value to the canonical YYYY-MM-DD form
// using local calendar semantics. Already-canonical strings pass through,
// parseable strings and epoch-millisecond numbers are converted, and anything
// else is returned stringified unchanged. It never fails and is idempotent.
func NormalizeDate(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if val == "" {
			return ""
		}
		if isoDateRe.MatchString(val) {
			return val
		}
		if t, ok := parseLoose(val); ok {
			return DateKey(t)
		}
		return val
	case float64:
		return DateKey(time.UnixMilli(int64(val)))
	case int:
		return DateKey(time.UnixMilli(int64(val)))
	case int64:
		return DateKey(time.UnixMilli(val))
	case time.Time:
		return DateKey(val)
	default:
		return fmt.Sprint(val)
	}
}

func parseLoose(s string) (time.Time, bool) {
	for _, layout := range looseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StartInstant combines a calendar date and a slot id into the local instant
// the slot begins. A date that already carries a time component is used
// as-is. A missing or unparseable date yields the epoch, which sorts such
// bookings to the past.
func StartInstant(dateStr, slotID string) time.Time {
	if dateStr == "" {
		return time.Unix(0, 0)
	}
	if strings.Contains(dateStr, "T") {
		if t, ok := parseLoose(dateStr); ok {
			return t
		}
		return time.Unix(0, 0)
	}
	day, err := time.ParseInLocation(dateLayout, dateStr, time.Local)
	if err != nil {
		return time.Unix(0, 0)
	}
	h := SlotStartHour(slotID)
	return time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, time.Local)
}

// IsPastSlot reports whether the slot on the given date starts strictly
// before now. Parse failures are treated as not-past so the slot stays
// selectable.
func IsPastSlot(dateStr, slotID string) bool {
	day, err := time.ParseInLocation(dateLayout, dateStr, time.Local)
	if err != nil {
		return false
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), SlotStartHour(slotID), 0, 0, 0, time.Local)
	return start.Before(time.Now())
}
