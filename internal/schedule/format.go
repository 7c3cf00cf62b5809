package schedule

import (
	"fmt"
	"time"
)

var thaiMonths = [...]string{
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

var thaiWeekdays = [...]string{
	"อาทิตย์", "จันทร์", "อังคาร", "พุธ", "พฤหัสบดี", "ศุกร์", "เสาร์",
}

// FormatDisplayRange renders a booking slot for the upcoming list, e.g.
// "1 มกราคม 2099 09.00 น. - 10.00 น.". Falls back to the raw date string
// when the date does not parse.
func FormatDisplayRange(dateStr, slotID string) string {
	startH := SlotStartHour(slotID)
	endH := startH + 1

	datePart := dateStr
	if day, err := time.ParseInLocation(dateLayout, dateStr, time.Local); err == nil {
		datePart = fmt.Sprintf("%d %s %d", day.Day(), thaiMonths[day.Month()-1], day.Year())
	}
	return fmt.Sprintf("%s %02d.00 น. - %02d.00 น.", datePart, startH, endH)
}

// FormatDayLabel renders a day for the date picker, e.g.
// "วันพุธที่ 1 มกราคม 2099".
func FormatDayLabel(t time.Time) string {
	return fmt.Sprintf("วัน%sที่ %d %s %d",
		thaiWeekdays[int(t.Weekday())], t.Day(), thaiMonths[t.Month()-1], t.Year())
}
