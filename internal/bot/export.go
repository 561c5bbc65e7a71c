package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"machata/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"
)

const exportHorizonDays = 14

// handleExport выгружает расписание на ближайшие дни в Excel и шлет
// файл админу в чат.
func (b *Bot) handleExport(ctx context.Context, chatID int64) {
	start := time.Now()
	end := start.AddDate(0, 0, exportHorizonDays-1)

	filePath, err := b.exportToExcel(ctx, start, end)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to export schedule")
		b.sendMessage(chatID, "❌ Не удалось выгрузить расписание")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(filePath))
	doc.Caption = fmt.Sprintf("📊 Расписание %s — %s", start.Format("02.01"), end.Format("02.01"))
	if _, err := b.tgService.Send(doc); err != nil {
		b.logger.Error().Err(err).Str("file_path", filePath).Msg("Failed to send export file")
		b.sendMessage(chatID, "❌ Не удалось отправить файл")
	}
}

// exportToExcel строит сетку: строки - часы работы, колонки - даты.
func (b *Bot) exportToExcel(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	dailyBookings, err := b.bookings.GetDailyBookings(ctx,
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Расписание"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	dateHeaders := b.writeDateHeaders(f, sheetName, startDate, endDate)
	b.writeHourHeaders(f, sheetName)
	b.writeScheduleData(f, sheetName, dailyBookings, dateHeaders)

	_ = f.SetColWidth(sheetName, "A", "A", 10)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheetName, string(i), string(i), 24)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(dateHeaders) + 1)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("schedule_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	filePath := filepath.Join(b.config.Exports.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	b.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

func (b *Bot) writeDateHeaders(f *excelize.File, sheetName string, startDate, endDate time.Time) map[string]int {
	col := 2
	currentDate := startDate
	dateHeaders := make(map[string]int)

	for !currentDate.After(endDate) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, currentDate.Format("02.01"))
		dateHeaders[currentDate.Format("2006-01-02")] = col

		style, _ := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		_ = f.SetCellStyle(sheetName, cell, cell, style)

		col++
		currentDate = currentDate.AddDate(0, 0, 1)
	}
	return dateHeaders
}

func (b *Bot) writeHourHeaders(f *excelize.File, sheetName string) {
	row := 3
	for hour := b.config.Booking.WorkHourStart; hour < b.config.Booking.WorkHourEnd; hour++ {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("%02d:00", hour))

		style, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
			Font: &excelize.Font{Bold: true},
		})
		_ = f.SetCellStyle(sheetName, cell, cell, style)

		row++
	}
}

func (b *Bot) writeScheduleData(
	f *excelize.File, sheetName string,
	dailyBookings map[string][]*models.Booking,
	dateHeaders map[string]int,
) {
	for dateKey, bookings := range dailyBookings {
		col, exists := dateHeaders[dateKey]
		if !exists {
			continue
		}

		// какие брони держат какой час
		byHour := make(map[int]*models.Booking)
		for _, booking := range bookings {
			if !booking.IsActive() {
				continue
			}
			for _, hour := range booking.Times {
				byHour[hour] = booking
			}
		}

		row := 3
		for hour := b.config.Booking.WorkHourStart; hour < b.config.Booking.WorkHourEnd; hour++ {
			booking, busy := byHour[hour]
			cell, _ := excelize.CoordinatesToCellName(col, row)

			if busy {
				cellValue := fmt.Sprintf("%s %s (%s)\n%s",
					b.statusIcon(booking.Status), booking.Name, booking.Phone,
					b.serviceTitle(booking.Service))
				if booking.Comment != "" && booking.Comment != "-" {
					cellValue += fmt.Sprintf("\n💬 %s", booking.Comment)
				}
				_ = f.SetCellValue(sheetName, cell, cellValue)
				_ = f.SetCellStyle(sheetName, cell, cell, b.busyCellStyle(f, booking.Status))
			} else {
				_ = f.SetCellValue(sheetName, cell, "Свободно")
				_ = f.SetCellStyle(sheetName, cell, cell, b.freeCellStyle(f))
			}
			row++
		}
	}
}

func (b *Bot) statusIcon(status string) string {
	switch status {
	case models.StatusPaid:
		return "✅"
	case models.StatusAwaitingPayment:
		return "⏳"
	case models.StatusCancelled:
		return "❌"
	default:
		return "❓"
	}
}

func (b *Bot) busyCellStyle(f *excelize.File, status string) int {
	// оплачено - зеленый, ожидает оплаты - желтый
	color := "#FFEB9C"
	if status == models.StatusPaid {
		color = "#C6EFCE"
	}
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
	return style
}

func (b *Bot) freeCellStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFFFFF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
	return style
}
