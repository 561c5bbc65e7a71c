package bot

import (
	"context"
	"strings"

	"machata/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := update.Message.Text
	l := zerolog.Ctx(ctx)

	if b.metrics != nil {
		b.metrics.MessagesProcessed.Inc()
	}

	l.Debug().
		Int64("user_id", userID).
		Str("username", update.Message.From.UserName).
		Str("text", text).
		Msg("Handling message")

	state := b.getUserState(ctx, userID)

	switch {
	case text == "/start" || strings.EqualFold(text, "сброс") || strings.EqualFold(text, "reset"):
		b.clearUserState(ctx, userID)
		b.sendWelcome(ctx, chatID, userID)

	case text == "/admin":
		b.handleAdminCommand(ctx, chatID, userID)

	case text == btnMainMenu:
		b.clearUserState(ctx, userID)
		b.sendMainMenu(chatID, "🏠 <b>Главное меню</b>")

	case text == btnCancel:
		b.clearUserState(ctx, userID)
		b.sendMainMenu(chatID, "❌ Отменено.")

	case text == btnBookRecording:
		b.startWizard(ctx, chatID, userID, "recording")

	case text == btnBookRehearsal:
		b.startWizard(ctx, chatID, userID, "repet")

	case text == btnMyBookings:
		b.showMyBookings(ctx, chatID, userID)

	case text == btnPrices:
		b.showPrices(ctx, chatID, userID)

	case text == btnLocation:
		b.showLocation(chatID)

	case text == btnLiveChat:
		b.showLiveChat(chatID)

	case state != nil && b.handleAdminInput(ctx, update, state):

	case state != nil:
		b.handleWizardInput(ctx, update, state)
	}
}

func (b *Bot) sendWelcome(ctx context.Context, chatID, userID int64) {
	vip, err := b.vips.GetVIP(ctx, userID)
	if err != nil {
		b.logger.Warn().Err(err).Int64("user_id", userID).Msg("vip lookup failed for welcome")
		vip = nil
	}

	msg := tgbotapi.NewMessage(chatID, b.welcomeText(vip))
	msg.ParseMode = models.ParseModeHTML
	msg.ReplyMarkup = b.mainMenuKeyboard()
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send welcome")
	}
}

func (b *Bot) sendMainMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeHTML
	msg.ReplyMarkup = b.mainMenuKeyboard()
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send main menu")
	}
}

// startWizard вход в мастер бронирования: выбор услуги внутри ветки
// меню (запись или репетиция).
func (b *Bot) startWizard(ctx context.Context, chatID, userID int64, flow string) {
	state := &models.UserState{UserID: userID, CurrentStep: models.StepSelectService}
	state.EnsureDraft()
	b.setUserState(ctx, state)

	var text string
	if flow == "repet" {
		text = "🎸 <b>Репетиционная комната</b>\n\nОбработанная акустика, инструменты, уютная атмосфера.\nКофе, чай, диван — бесплатно 😎\n\nБронируем?"
	} else {
		text = "🎙 <b>Запись в студии</b>\n\nПрофессиональная аппаратура, звукорежиссёр, полный контроль звука.\n\nВыбери формат:"
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeHTML
	msg.ReplyMarkup = b.serviceKeyboard(flow)
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send service menu")
	}
}

// handleWizardInput текстовые шаги мастера после выбора времени.
func (b *Bot) handleWizardInput(ctx context.Context, update tgbotapi.Update, state *models.UserState) {
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)
	draft := state.EnsureDraft()

	switch state.CurrentStep {
	case models.StepEnterName:
		if len([]rune(text)) < 2 {
			b.sendMessage(chatID, "Имя слишком короткое. Введи имя от 2 символов.")
			return
		}
		if len([]rune(text)) > 150 {
			b.sendMessage(chatID, "Имя слишком длинное. Введи имя до 150 символов.")
			return
		}
		draft.Name = text
		state.CurrentStep = models.StepEnterEmail
		b.setUserState(ctx, state)
		b.askEmail(chatID)

	case models.StepEnterEmail:
		email := strings.ToLower(text)
		if !isValidEmail(email) {
			b.sendHTML(chatID, "❌ <b>Некорректный email.</b> Пожалуйста, проверь.\n\nПример: name@example.com")
			return
		}
		draft.Email = email
		state.CurrentStep = models.StepEnterPhone
		b.setUserState(ctx, state)
		b.askPhone(chatID)

	case models.StepEnterPhone:
		phone := normalizePhone(text)
		if phone == "" {
			b.sendHTML(chatID, "❌ <b>Ошибка!</b> Номер должен содержать 11 цифр.\n\n☎️ Пример: +7 (999) 000-00-00 или 79990000000")
			return
		}
		draft.Phone = phone
		state.CurrentStep = models.StepEnterComment
		b.setUserState(ctx, state)
		b.askComment(chatID)

	case models.StepEnterComment:
		if text == btnSkip {
			draft.Comment = "-"
		} else {
			draft.Comment = text
		}
		b.finalizeBooking(ctx, chatID, state)
	}
}

func (b *Bot) askName(chatID int64) {
	b.sendHTML(chatID, nameStepText)
	msg := tgbotapi.NewMessage(chatID, "Твоё имя или ник:")
	msg.ReplyMarkup = cancelKeyboard()
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to ask name")
	}
}

func (b *Bot) askEmail(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "📧 Твой email:\n\nНужен для отправки чека об оплате.")
	msg.ReplyMarkup = cancelKeyboard()
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to ask email")
	}
}

func (b *Bot) askPhone(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "☎️ Номер телефона:\n\nПример: +7 (999) 000-00-00 или 79990000000")
	msg.ReplyMarkup = cancelKeyboard()
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to ask phone")
	}
}

func (b *Bot) askComment(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "💬 Что записываешь или репетируешь?\n\n(Или пропусти)")
	msg.ReplyMarkup = commentKeyboard()
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to ask comment")
	}
}

// finalizeBooking резервирует слоты и отправляет ссылку на оплату.
func (b *Bot) finalizeBooking(ctx context.Context, chatID int64, state *models.UserState) {
	draft := state.EnsureDraft()
	userID := state.UserID

	quote, quoteErr := b.bookings.Quote(ctx, draft, userID)

	booking, err := b.bookings.FinalizeBooking(ctx, draft, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to finalize booking")
		b.clearUserState(ctx, userID)
		b.sendMainMenu(chatID, b.getErrorMessage(err))
		return
	}

	note := ""
	if quoteErr == nil {
		note = quoteNote(quote)
	}

	if b.metrics != nil {
		b.metrics.BookingsFinalized.WithLabelValues(booking.Service).Inc()
	}

	msg := tgbotapi.NewMessage(chatID, paymentText(booking, note))
	msg.ParseMode = models.ParseModeHTML
	msg.ReplyMarkup = paymentKeyboard(booking)
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send payment link")
	}

	b.clearUserState(ctx, userID)
}

func (b *Bot) showMyBookings(ctx context.Context, chatID, userID int64) {
	bookings, err := b.bookings.GetUserBookings(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user bookings")
		b.sendMessage(chatID, "Ошибка при получении броней. Попробуй позже.")
		return
	}

	kb := b.myBookingsKeyboard(bookings)
	if kb == nil {
		b.sendMainMenu(chatID, "📭 Пока нет броней. Создадим первую! 🎵")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "<b>📋 Твои сеансы:</b>\n\nТапни для деталей:")
	msg.ParseMode = models.ParseModeHTML
	msg.ReplyMarkup = *kb
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send bookings list")
	}
}

func (b *Bot) showPrices(ctx context.Context, chatID, userID int64) {
	vip, err := b.vips.GetVIP(ctx, userID)
	if err != nil {
		vip = nil
	}

	msg := tgbotapi.NewMessage(chatID, b.pricesText(vip))
	msg.ParseMode = models.ParseModeHTML
	msg.ReplyMarkup = b.mainMenuKeyboard()
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send prices")
	}
}

func (b *Bot) showLocation(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, b.locationText())
	msg.ParseMode = models.ParseModeHTML
	msg.ReplyMarkup = locationKeyboard(b.config.Studio.Name)
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send location")
	}
	b.sendMainMenu(chatID, "Главное меню")
}

func (b *Bot) showLiveChat(chatID int64) {
	b.sendHTML(chatID, b.liveChatText())
	b.sendMainMenu(chatID, "Главное меню")
}
