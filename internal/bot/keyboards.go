package bot

import (
	"context"
	"fmt"
	"time"

	"machata/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var weekdayShort = map[time.Weekday]string{
	time.Monday: "пн", time.Tuesday: "вт", time.Wednesday: "ср",
	time.Thursday: "чт", time.Friday: "пт", time.Saturday: "сб", time.Sunday: "вс",
}

func (b *Bot) mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBookRecording)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBookRehearsal)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnMyBookings)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnPrices)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnLocation)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnLiveChat)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnMainMenu)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func commentKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSkip)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnMainMenu)),
	)
	kb.ResizeKeyboard = true
	return kb
}

// serviceKeyboard формы выбора услуги. recording объединяет студийные
// услуги, rehearsal это отдельная ветка главного меню.
func (b *Bot) serviceKeyboard(flow string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, svc := range b.config.Services {
		isRehearsal := svc.CustomRateEligible
		if (flow == "repet") != isRehearsal {
			continue
		}
		unit := " ₽"
		if svc.PerHour {
			unit = " ₽/ч"
		}
		label := fmt.Sprintf("%s %s — %d%s", serviceEmoji(svc.Key), svc.Name, svc.Rate, unit)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "service_"+svc.Key)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "cancel")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) datesKeyboard(page int) tgbotapi.InlineKeyboardMarkup {
	dates := b.bookings.AvailableDates()
	perPage := b.config.Booking.DatesPerPage
	if perPage <= 0 {
		perPage = models.DefaultDatesPerPage
	}

	start := page * perPage
	if start > len(dates) {
		start = len(dates)
	}
	end := start + perPage
	if end > len(dates) {
		end = len(dates)
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, date := range dates[start:end] {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		label := fmt.Sprintf("📅 %s (%s)", d.Format("02.01"), weekdayShort[d.Weekday()])
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "date_"+date)))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️", fmt.Sprintf("dates_page_%d", page-1)))
	}
	if end < len(dates) {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("▶️", fmt.Sprintf("dates_page_%d", page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "back_to_service")))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "cancel")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// timesKeyboard сетка часов: занятые помечены крестом, выбранные
// галкой. При непустом выборе добавляется строка с живой ценой.
func (b *Bot) timesKeyboard(ctx context.Context, userID int64, draft *models.BookingDraft) tgbotapi.InlineKeyboardMarkup {
	booked, err := b.bookings.BookedHours(ctx, draft.Date, draft.Service)
	if err != nil {
		b.logger.Error().Err(err).Str("date", draft.Date).Str("service", draft.Service).Msg("failed to load booked hours")
		booked = map[int]bool{}
	}

	var buttons []tgbotapi.InlineKeyboardButton
	for h := b.config.Booking.WorkHourStart; h < b.config.Booking.WorkHourEnd; h++ {
		switch {
		case booked[h]:
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData("❌", "skip"))
		case draft.HasTime(h):
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅%d", h), fmt.Sprintf("timeDel_%d", h)))
		default:
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("⭕%d", h), fmt.Sprintf("timeAdd_%d", h)))
		}
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(buttons); i += 3 {
		end := i + 3
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}

	if len(draft.SelectedTimes) > 0 {
		label := "✅ Далее"
		if quote, err := b.bookings.Quote(ctx, draft, userID); err == nil {
			label = fmt.Sprintf("✅ Далее → %d₽%s", quote.Final, quoteNote(quote))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Очистить", "clear_times"),
			tgbotapi.NewInlineKeyboardButtonData(label, "confirm_times"),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "back_to_date")))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "cancel")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) myBookingsKeyboard(bookings []*models.Booking) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, booking := range bookings {
		if booking.Status == models.StatusCancelled {
			continue
		}
		timeStr := ""
		if len(booking.Times) > 0 {
			start := booking.Times[0]
			timeStr = fmt.Sprintf(" %02d:00", start)
		}
		label := fmt.Sprintf("%s %s%s · %d₽",
			serviceEmoji(booking.Service), booking.DateDot(), timeStr, booking.Price)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("booking_detail_%d", booking.ID))))
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func paymentKeyboard(booking *models.Booking) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💳 Оплатить", booking.PaymentURL)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Проверить оплату", fmt.Sprintf("check_payment_%d", booking.ID))),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Мои бронирования", "back_to_bookings")),
	)
}

func bookingDetailKeyboard(booking *models.Booking) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if booking.Status == models.StatusAwaitingPayment && booking.PaymentURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💳 Оплатить", booking.PaymentURL)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Проверить оплату", fmt.Sprintf("check_payment_%d", booking.ID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", fmt.Sprintf("cancel_booking_%d", booking.ID))))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", "back_to_bookings")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func locationKeyboard(studioName string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🗺️ Яндекс.Карты",
				"https://maps.yandex.ru/?text="+studioName)),
	)
}
