package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"machata/internal/database"
	"machata/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	data := callback.Data
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	if b.metrics != nil {
		b.metrics.CallbacksProcessed.Inc()
	}

	// Отвечаем на callback сразу, чтобы убрать "часики"
	answered := false
	answer := func(text string) {
		answered = true
		if err := b.tgService.AnswerCallback(callback.ID, text); err != nil {
			b.logger.Error().Err(err).Msg("Failed to answer callback")
		}
	}
	defer func() {
		if !answered {
			answer("")
		}
	}()

	if b.isAdmin(userID) && b.handleAdminCallback(ctx, update) {
		return
	}

	switch {
	case data == "cancel":
		b.clearUserState(ctx, userID)
		b.editMessage(chatID, messageID, "❌ Отменено", nil)
		b.sendMainMenu(chatID, "Вернёмся в главное меню")

	case strings.HasPrefix(data, "service_"):
		b.handleServiceSelected(ctx, chatID, messageID, userID, strings.TrimPrefix(data, "service_"))

	case strings.HasPrefix(data, "dates_page_"):
		page, _ := strconv.Atoi(strings.TrimPrefix(data, "dates_page_"))
		b.handleDatesPage(ctx, chatID, messageID, userID, page)

	case strings.HasPrefix(data, "date_"):
		b.handleDateSelected(ctx, chatID, messageID, userID, strings.TrimPrefix(data, "date_"))

	case strings.HasPrefix(data, "timeAdd_"), strings.HasPrefix(data, "timeDel_"):
		hourStr := strings.TrimPrefix(strings.TrimPrefix(data, "timeAdd_"), "timeDel_")
		hour, _ := strconv.Atoi(hourStr)
		b.handleTimeToggled(ctx, chatID, messageID, userID, hour)

	case data == "clear_times":
		b.handleClearTimes(ctx, chatID, messageID, userID)

	case data == "confirm_times":
		b.handleConfirmTimes(ctx, chatID, messageID, userID, answer)

	case data == "back_to_date":
		b.handleBackToDate(ctx, chatID, messageID, userID)

	case data == "back_to_service":
		b.handleBackToService(ctx, chatID, messageID, userID)

	case data == "skip":
		answer("⚠️ Это время занято")

	case strings.HasPrefix(data, "booking_detail_"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "booking_detail_"), 10, 64)
		b.showBookingDetail(ctx, chatID, messageID, userID, id, answer)

	case strings.HasPrefix(data, "cancel_booking_"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "cancel_booking_"), 10, 64)
		b.handleCancelBooking(ctx, chatID, messageID, userID, id, answer)

	case strings.HasPrefix(data, "check_payment_"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "check_payment_"), 10, 64)
		b.handleCheckPayment(ctx, chatID, userID, id, answer)

	case data == "back_to_bookings":
		b.handleBackToBookings(ctx, chatID, messageID, userID)
	}
}

func (b *Bot) editMessage(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if _, err := b.tgService.EditMessage(chatID, messageID, text, kb); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("Failed to edit message")
	}
}

func (b *Bot) handleServiceSelected(ctx context.Context, chatID int64, messageID int, userID int64, serviceKey string) {
	if _, err := b.bookings.ServiceByKey(serviceKey); err != nil {
		b.sendMessage(chatID, "Ошибка: услуга не найдена")
		return
	}

	state := &models.UserState{UserID: userID, CurrentStep: models.StepSelectDate}
	state.EnsureDraft().Service = serviceKey
	b.setUserState(ctx, state)

	if b.metrics != nil {
		b.metrics.BookingsStarted.WithLabelValues(serviceKey).Inc()
	}

	kb := b.datesKeyboard(0)
	b.editMessage(chatID, messageID, b.dateStepText(serviceKey), &kb)
}

func (b *Bot) handleDatesPage(ctx context.Context, chatID int64, messageID int, userID int64, page int) {
	state := b.getUserState(ctx, userID)
	if state == nil || state.Draft == nil {
		return
	}

	kb := b.datesKeyboard(page)
	b.editMessage(chatID, messageID, b.dateStepText(state.Draft.Service), &kb)
}

func (b *Bot) handleDateSelected(ctx context.Context, chatID int64, messageID int, userID int64, date string) {
	state := b.getUserState(ctx, userID)
	if state == nil || state.Draft == nil {
		return
	}

	if err := b.bookings.ValidateBookingDate(date); err != nil {
		b.sendHTML(chatID, b.getErrorMessage(err))
		return
	}

	draft := state.EnsureDraft()
	draft.Date = date
	draft.SelectedTimes = nil
	state.CurrentStep = models.StepSelectTime
	b.setUserState(ctx, state)

	kb := b.timesKeyboard(ctx, userID, draft)
	b.editMessage(chatID, messageID, timeStepText(draft), &kb)
}

func (b *Bot) handleTimeToggled(ctx context.Context, chatID int64, messageID int, userID int64, hour int) {
	state := b.getUserState(ctx, userID)
	if state == nil || state.Draft == nil || state.Draft.Date == "" {
		return
	}

	draft := state.EnsureDraft()
	draft.ToggleTime(hour)
	b.setUserState(ctx, state)

	kb := b.timesKeyboard(ctx, userID, draft)
	b.editMessage(chatID, messageID, timeStepText(draft), &kb)
}

func (b *Bot) handleClearTimes(ctx context.Context, chatID int64, messageID int, userID int64) {
	state := b.getUserState(ctx, userID)
	if state == nil || state.Draft == nil {
		return
	}

	draft := state.EnsureDraft()
	draft.SelectedTimes = nil
	b.setUserState(ctx, state)

	kb := b.timesKeyboard(ctx, userID, draft)
	b.editMessage(chatID, messageID, timeStepText(draft), &kb)
}

func (b *Bot) handleConfirmTimes(ctx context.Context, chatID int64, messageID int, userID int64, answer func(string)) {
	state := b.getUserState(ctx, userID)
	if state == nil || state.Draft == nil || len(state.Draft.SelectedTimes) == 0 {
		answer("❌ Выбери хотя бы один час")
		return
	}

	state.CurrentStep = models.StepEnterName
	b.setUserState(ctx, state)

	b.editMessage(chatID, messageID, timeStepText(state.Draft), nil)
	b.askName(chatID)
}

func (b *Bot) handleBackToDate(ctx context.Context, chatID int64, messageID int, userID int64) {
	state := b.getUserState(ctx, userID)
	if state == nil || state.Draft == nil {
		return
	}

	draft := state.EnsureDraft()
	draft.SelectedTimes = nil
	draft.Date = ""
	state.CurrentStep = models.StepSelectDate
	b.setUserState(ctx, state)

	kb := b.datesKeyboard(0)
	b.editMessage(chatID, messageID, b.dateStepText(draft.Service), &kb)
}

func (b *Bot) handleBackToService(ctx context.Context, chatID int64, messageID int, userID int64) {
	state := b.getUserState(ctx, userID)

	flow := "recording"
	if state != nil && state.Draft != nil {
		if svc, err := b.bookings.ServiceByKey(state.Draft.Service); err == nil && svc.CustomRateEligible {
			flow = "repet"
		}
	}

	newState := &models.UserState{UserID: userID, CurrentStep: models.StepSelectService}
	newState.EnsureDraft()
	b.setUserState(ctx, newState)

	var text string
	if flow == "repet" {
		text = "🎸 <b>Репетиционная комната</b>\n\nБронируем?"
	} else {
		text = "🎙 <b>Запись в студии</b>\n\nВыбери формат:"
	}
	kb := b.serviceKeyboard(flow)
	b.editMessage(chatID, messageID, text, &kb)
}

func (b *Bot) showBookingDetail(ctx context.Context, chatID int64, messageID int, userID, bookingID int64, answer func(string)) {
	booking, err := b.bookings.GetBooking(ctx, bookingID)
	if err != nil || booking.UserID != userID {
		answer("❌ Бронь не найдена")
		return
	}

	kb := bookingDetailKeyboard(booking)
	b.editMessage(chatID, messageID, bookingDetailText(booking, b.serviceTitle(booking.Service)), &kb)
}

func (b *Bot) handleCancelBooking(ctx context.Context, chatID int64, messageID int, userID, bookingID int64, answer func(string)) {
	err := b.bookings.CancelBooking(ctx, bookingID, userID)
	switch {
	case err == nil:
		answer("✅ Отменена")
		b.editMessage(chatID, messageID,
			"<b>✅ БРОНЬ ОТМЕНЕНА</b>\n\n⏰ Время освобождено\n🎵 Можешь забронировать другое время\n\n<b>Спасибо, что уведомил нас!</b>", nil)
		b.sendMainMenu(chatID, "🏠 <b>Главное меню</b>")

	case errors.Is(err, database.ErrAlreadyPaid):
		answer("⚠️ Оплаченная бронь не отменяется автоматически")
		b.sendMainMenu(chatID, "⚠️ <b>Эта бронь уже оплачена.</b>\n\nДля отмены оплаченной брони свяжись с нами:\n📱 "+
			b.config.Studio.Telegram+"\n☎️ "+b.config.Studio.Contact+"\n\n💡 При отмене менее чем за 24 часа возврат 50%")

	default:
		b.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("Failed to cancel booking")
		answer("❌ Ошибка при отмене")
	}
}

// handleCheckPayment пользовательский опрос статуса оплаты: если
// webhook не дошел, бронь все равно помечается оплаченной.
func (b *Bot) handleCheckPayment(ctx context.Context, chatID, userID, bookingID int64, answer func(string)) {
	booking, err := b.bookings.GetBooking(ctx, bookingID)
	if err != nil || booking.UserID != userID {
		answer("❌ Бронь не найдена")
		return
	}

	if booking.Status == models.StatusPaid {
		answer("✅ Оплата уже получена")
		return
	}

	paid, err := b.reconciler.PollPayment(ctx, booking)
	if err != nil {
		b.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("Payment poll failed")
		answer("⚠️ Не удалось проверить оплату, попробуй позже")
		return
	}

	if !paid {
		answer("⏳ Оплата пока не поступила")
		return
	}

	// уведомление об оплате отправит подписчик события booking_paid
	answer("✅ Оплата получена!")
}

func (b *Bot) handleBackToBookings(ctx context.Context, chatID int64, messageID int, userID int64) {
	bookings, err := b.bookings.GetUserBookings(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user bookings")
		return
	}

	kb := b.myBookingsKeyboard(bookings)
	if kb == nil {
		b.editMessage(chatID, messageID, "📭 Пока нет броней. Создадим первую! 🎵", nil)
		return
	}
	b.editMessage(chatID, messageID, "<b>📋 Твои сеансы:</b>\n\nТапни для деталей:", kb)
}
