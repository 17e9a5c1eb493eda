// Package export renders a restaurant's daily bookings as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/BruksfildServices01/table-booking/internal/dto"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var bookingColumns = []string{"Start", "End", "Duration", "Guests", "Name", "Email", "Status", "Booking ID"}

// WriteBookings writes one sheet named after the date, header in bold, one
// row per booking.
func WriteBookings(w io.Writer, restaurantName, date string, rows []dto.BookingListDTO) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := date
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetCellValue(sheet, "A1", fmt.Sprintf("%s bookings %s", restaurantName, date)); err != nil {
		return err
	}

	header := make([]interface{}, len(bookingColumns))
	for i, c := range bookingColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A3", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(bookingColumns), 3)
		_ = f.SetCellStyle(sheet, "A1", "A1", bold)
		_ = f.SetCellStyle(sheet, "A3", last, bold)
	}

	totalGuests := 0
	for i, b := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		row := []interface{}{
			b.StartTime.Format("15:04"),
			b.EndTime.Format("15:04"),
			b.Duration,
			b.Guests,
			b.UserName,
			b.UserEmail,
			b.Status,
			b.ID,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		if b.Status == "confirmed" {
			totalGuests += b.Guests
		}
	}

	summary, _ := excelize.CoordinatesToCellName(3, len(rows)+5)
	if err := f.SetSheetRow(sheet, summary, &[]interface{}{"Confirmed guests", totalGuests}); err != nil {
		return err
	}

	_ = f.SetColWidth(sheet, "A", "D", 10)
	_ = f.SetColWidth(sheet, "E", "F", 28)
	_ = f.SetColWidth(sheet, "G", "H", 38)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
