package models

import (
	"strconv"
	"time"

	"gymbook/internal/schedule"
)

// Booking represents a single one-hour machine reservation.
type Booking struct {
	ID        string `json:"id"`
	Date      string `json:"date"` // canonical YYYY-MM-DD
	SlotID    string `json:"slot_id"`
	MachineID string `json:"machine_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	MemberID  string `json:"member_id"`
	Age       int    `json:"age"`
	CreatedAt string `json:"created_at"` // RFC3339 instant
}

// Row is the wire shape used by the spreadsheet endpoint. The sheet is not
// schema-enforced, so date and age arrive as strings or numbers depending on
// how the cell was filled in.
type Row struct {
	BookingID string `json:"booking_id"`
	Date      any    `json:"date"`
	Slot      string `json:"slot"`
	MachineID string `json:"machine_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	MemberID  string `json:"member_id"`
	Age       any    `json:"age"`
	CreatedAt string `json:"created_at"`
}

// BookingFromRow maps a wire row to a Booking. Mapping is best-effort:
// unparseable dates pass through stringified and a bad age becomes 0, so a
// sloppy sheet never breaks the whole list.
func BookingFromRow(row Row) Booking {
	return Booking{
		ID:        row.BookingID,
		Date:      schedule.NormalizeDate(row.Date),
		SlotID:    row.Slot,
		MachineID: row.MachineID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		MemberID:  row.MemberID,
		Age:       coerceAge(row.Age),
		CreatedAt: row.CreatedAt,
	}
}

// Row converts the booking back to the wire shape. A missing creation
// timestamp is assigned at the current instant.
func (b Booking) Row() Row {
	createdAt := b.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().Format(time.RFC3339)
	}
	return Row{
		BookingID: b.ID,
		Date:      b.Date,
		Slot:      b.SlotID,
		MachineID: b.MachineID,
		FirstName: b.FirstName,
		LastName:  b.LastName,
		MemberID:  b.MemberID,
		Age:       b.Age,
		CreatedAt: createdAt,
	}
}

// StartTime returns the local instant the booking begins.
func (b Booking) StartTime() time.Time {
	return schedule.StartInstant(b.Date, b.SlotID)
}

// IsFuture reports whether the booking starts at or after the current instant.
func (b Booking) IsFuture() bool {
	return !b.StartTime().Before(time.Now())
}

// DisplayLine renders the booking the way the upcoming list shows it.
func (b Booking) DisplayLine() string {
	return b.FirstName + " " + b.LastName + " • " + b.MachineID + " • " +
		schedule.FormatDisplayRange(b.Date, b.SlotID)
}

func coerceAge(v any) int {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0
		}
		return int(n)
	case int:
		if n < 0 {
			return 0
		}
		return n
	case int64:
		if n < 0 {
			return 0
		}
		return int(n)
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil || parsed < 0 {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
