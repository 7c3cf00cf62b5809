package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	epochMs := time.Date(2099, 1, 1, 12, 0, 0, 0, time.Local).UnixMilli()

	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"canonical passes through", "2099-01-01", "2099-01-01"},
		{"empty string", "", ""},
		{"nil", nil, ""},
		{"epoch millis", float64(epochMs), "2099-01-01"},
		{"unparseable passes through", "ไม่ใช่วันที่", "ไม่ใช่วันที่"},
		{"slash date", "2099/01/01", "2099-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDate(tt.input))
		})
	}

	t.Run("rfc3339 converted with local calendar semantics", func(t *testing.T) {
		in := "2099-01-01T09:00:00+07:00"
		parsed, err := time.Parse(time.RFC3339, in)
		assert.NoError(t, err)
		assert.Equal(t, DateKey(parsed.In(time.Local)), NormalizeDate(in))
	})
}

func TestNormalizeDateIdempotent(t *testing.T) {
	inputs := []any{
		"2099-01-01",
		"2099-01-01T09:00:00Z",
		"2099/01/01",
		float64(time.Now().UnixMilli()),
		"not a date at all",
		"",
		nil,
	}

	for _, in := range inputs {
		once := NormalizeDate(in)
		twice := NormalizeDate(once)
		assert.Equal(t, once, twice, "NormalizeDate not idempotent for %v", in)
	}
}

func TestStartInstant(t *testing.T) {
	t.Run("date plus slot hour", func(t *testing.T) {
		got := StartInstant("2099-01-01", "09:00-10:00")
		want := time.Date(2099, 1, 1, 9, 0, 0, 0, time.Local)
		assert.True(t, got.Equal(want), "got %v, want %v", got, want)
	})

	t.Run("date with time component used as-is", func(t *testing.T) {
		got := StartInstant("2099-01-01T05:30:00", "09:00-10:00")
		want := time.Date(2099, 1, 1, 5, 30, 0, 0, time.Local)
		assert.True(t, got.Equal(want), "got %v, want %v", got, want)
	})

	t.Run("missing date yields epoch", func(t *testing.T) {
		assert.True(t, StartInstant("", "09:00-10:00").Equal(time.Unix(0, 0)))
	})

	t.Run("unparseable date yields epoch", func(t *testing.T) {
		assert.True(t, StartInstant("banana", "09:00-10:00").Equal(time.Unix(0, 0)))
	})

	t.Run("malformed slot defaults to hour zero", func(t *testing.T) {
		got := StartInstant("2099-01-01", "nope")
		want := time.Date(2099, 1, 1, 0, 0, 0, 0, time.Local)
		assert.True(t, got.Equal(want))
	})
}

func TestIsPastSlot(t *testing.T) {
	yesterday := DateKey(time.Now().AddDate(0, 0, -1))
	tomorrow := DateKey(time.Now().AddDate(0, 0, 1))

	assert.True(t, IsPastSlot(yesterday, "09:00-10:00"))
	assert.False(t, IsPastSlot(tomorrow, "09:00-10:00"))
	assert.False(t, IsPastSlot("2099-01-01", "09:00-10:00"))

	// Parse failures fail open: the slot stays selectable.
	assert.False(t, IsPastSlot("garbage", "09:00-10:00"))
	assert.False(t, IsPastSlot("", "09:00-10:00"))
}

// A slot that is past stays past on later evaluations with the same inputs.
func TestIsPastSlotMonotonic(t *testing.T) {
	yesterday := DateKey(time.Now().AddDate(0, 0, -1))

	first := IsPastSlot(yesterday, "06:00-07:00")
	time.Sleep(10 * time.Millisecond)
	second := IsPastSlot(yesterday, "06:00-07:00")

	assert.True(t, first)
	assert.True(t, second)
}
