// Package export renders the booking list as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"gymbook/internal/models"
	"gymbook/internal/schedule"
)

const sheetName = "Bookings"

var headerColumns = []string{
	"Booking ID", "Date", "Slot", "Machine", "First name", "Last name",
	"Member ID", "Age", "Created at", "Display",
}

// WriteBookings writes the bookings as an .xlsx workbook to w: a bold header
// row followed by one row per booking in list order.
func WriteBookings(w io.Writer, bookings []models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	if err := writeRow(f, 1, toCells(headerColumns)); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(headerColumns), 1)
		_ = f.SetCellStyle(sheetName, startCell, endCell, style)
	}

	for i, b := range bookings {
		cells := []interface{}{
			b.ID, b.Date, b.SlotID, b.MachineID, b.FirstName, b.LastName,
			b.MemberID, b.Age, b.CreatedAt,
			schedule.FormatDisplayRange(b.Date, b.SlotID),
		}
		if err := writeRow(f, i+2, cells); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeRow(f *excelize.File, row int, cells []interface{}) error {
	for i, val := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, val); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}

func toCells(cols []string) []interface{} {
	cells := make([]interface{}, len(cols))
	for i, c := range cols {
		cells[i] = c
	}
	return cells
}
