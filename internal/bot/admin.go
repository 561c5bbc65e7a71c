package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"machata/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const adminPanelText = "🛠 <b>Админ-панель</b>\n\nУправление VIP реестром и выгрузкой расписания:"

func adminPanelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить VIP", "admin_add_vip"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💸 Цена репетиции для VIP", "admin_set_price_repet"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖ Убрать VIP", "admin_remove_vip"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📜 Список VIP", "admin_list_vip"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Выгрузить расписание", "admin_export"),
		),
	)
}

func (b *Bot) handleAdminCommand(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(userID) {
		b.sendHTML(chatID, "❌ <b>Доступ запрещён</b>")
		return
	}

	b.clearUserState(ctx, userID)
	kb := adminPanelKeyboard()
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, adminPanelText, kb); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send admin panel")
	}
}

// handleAdminCallback возвращает true, если callback относится к админ-панели.
func (b *Bot) handleAdminCallback(ctx context.Context, update tgbotapi.Update) bool {
	callback := update.CallbackQuery
	data := callback.Data
	if !strings.HasPrefix(data, "admin_") {
		return false
	}

	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID
	userID := callback.From.ID

	switch {
	case data == "admin_add_vip":
		state := &models.UserState{UserID: userID, CurrentStep: models.AdminStepVIPID}
		state.EnsureAdmin()
		b.setUserState(ctx, state)
		b.editMessage(chatID, messageID, "➕ <b>Новый VIP</b>\n\nПришли Telegram ID пользователя:", nil)

	case data == "admin_set_price_repet":
		b.showVIPPicker(ctx, chatID, messageID, "admin_price_vip_", "💸 Кому назначить индивидуальную цену за час репетиции?")

	case data == "admin_remove_vip":
		b.showVIPPicker(ctx, chatID, messageID, "admin_delete_vip_", "➖ Кого убрать из VIP реестра?")

	case data == "admin_list_vip":
		b.showVIPList(ctx, chatID, messageID)

	case data == "admin_export":
		b.handleExport(ctx, chatID)

	case data == "admin_back":
		b.clearUserState(ctx, userID)
		kb := adminPanelKeyboard()
		b.editMessage(chatID, messageID, adminPanelText, &kb)

	case strings.HasPrefix(data, "admin_price_vip_"):
		targetID, _ := strconv.ParseInt(strings.TrimPrefix(data, "admin_price_vip_"), 10, 64)
		state := &models.UserState{UserID: userID, CurrentStep: models.AdminStepVIPRate}
		state.EnsureAdmin().TargetUserID = targetID
		b.setUserState(ctx, state)
		b.editMessage(chatID, messageID,
			fmt.Sprintf("💸 Новая цена за час репетиции для ID %d, в рублях:", targetID), nil)

	case strings.HasPrefix(data, "admin_delete_vip_"):
		targetID, _ := strconv.ParseInt(strings.TrimPrefix(data, "admin_delete_vip_"), 10, 64)
		if err := b.vips.DeleteVIP(ctx, targetID); err != nil {
			b.logger.Error().Err(err).Int64("target_id", targetID).Msg("Failed to delete vip")
			b.editMessage(chatID, messageID, "❌ Не удалось убрать VIP", nil)
			return true
		}
		kb := adminBackKeyboard()
		b.editMessage(chatID, messageID, fmt.Sprintf("✅ Пользователь %d убран из VIP", targetID), &kb)

	default:
		return false
	}
	return true
}

// handleAdminInput возвращает true, если текстовое сообщение было шагом
// админского под-флоу.
func (b *Bot) handleAdminInput(ctx context.Context, update tgbotapi.Update, state *models.UserState) bool {
	if !strings.HasPrefix(state.CurrentStep, "admin_") {
		return false
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	text := strings.TrimSpace(update.Message.Text)

	if !b.isAdmin(userID) {
		b.clearUserState(ctx, userID)
		return false
	}

	switch state.CurrentStep {
	case models.AdminStepVIPID:
		targetID, err := strconv.ParseInt(text, 10, 64)
		if err != nil || targetID <= 0 {
			b.sendMessage(chatID, "❌ Это не похоже на Telegram ID. Пришли число:")
			return true
		}
		state.EnsureAdmin().TargetUserID = targetID
		state.CurrentStep = models.AdminStepVIPName
		b.setUserState(ctx, state)
		b.sendMessage(chatID, "Имя клиента (как записать в реестре):")

	case models.AdminStepVIPName:
		if text == "" {
			b.sendMessage(chatID, "❌ Имя не может быть пустым:")
			return true
		}
		state.EnsureAdmin().Name = text
		state.CurrentStep = models.AdminStepVIPDiscount
		b.setUserState(ctx, state)
		b.sendMessage(chatID, "Скидка в процентах (0-100):")

	case models.AdminStepVIPDiscount:
		discount, err := strconv.Atoi(text)
		if err != nil || discount < 0 || discount > 100 {
			b.sendMessage(chatID, "❌ Нужно число от 0 до 100:")
			return true
		}
		admin := state.EnsureAdmin()
		b.saveVIP(ctx, chatID, userID, admin.TargetUserID, func(vip *models.VIPUser) {
			vip.Name = admin.Name
			vip.Discount = discount
		})
		b.clearUserState(ctx, userID)

	case models.AdminStepVIPRate:
		rate, err := strconv.Atoi(text)
		if err != nil || rate <= 0 {
			b.sendMessage(chatID, "❌ Цена должна быть положительным числом:")
			return true
		}
		admin := state.EnsureAdmin()
		b.saveVIP(ctx, chatID, userID, admin.TargetUserID, func(vip *models.VIPUser) {
			vip.CustomRate = rate
		})
		b.clearUserState(ctx, userID)

	default:
		return false
	}
	return true
}

// saveVIP дочитывает существующую запись, применяет изменение и сохраняет:
// назначение цены не должно стирать скидку и наоборот.
func (b *Bot) saveVIP(ctx context.Context, chatID, adminID, targetID int64, mutate func(*models.VIPUser)) {
	vip, err := b.vips.GetVIP(ctx, targetID)
	if err != nil {
		b.logger.Error().Err(err).Int64("target_id", targetID).Msg("Failed to load vip")
		b.sendMessage(chatID, "❌ Не удалось сохранить VIP, попробуй ещё раз")
		return
	}
	if vip == nil {
		vip = &models.VIPUser{UserID: targetID}
	}

	mutate(vip)

	if err := b.vips.UpsertVIP(ctx, vip); err != nil {
		b.logger.Error().Err(err).Int64("target_id", targetID).Msg("Failed to upsert vip")
		b.sendMessage(chatID, "❌ Не удалось сохранить VIP, попробуй ещё раз")
		return
	}

	b.logger.Info().
		Int64("admin_id", adminID).
		Int64("target_id", targetID).
		Int("discount", vip.Discount).
		Int("custom_rate", vip.CustomRate).
		Msg("VIP record updated")

	b.sendHTML(chatID, fmt.Sprintf("✅ <b>Сохранено</b>\n\n%s", formatVIPLine(vip)))
}

func adminBackKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", "admin_back"),
		),
	)
}

func (b *Bot) showVIPPicker(ctx context.Context, chatID int64, messageID int, prefix, title string) {
	vips, err := b.vips.ListVIPs(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to list vips")
		b.editMessage(chatID, messageID, "❌ Не удалось загрузить реестр", nil)
		return
	}
	if len(vips) == 0 {
		kb := adminBackKeyboard()
		b.editMessage(chatID, messageID, "📭 Реестр пуст", &kb)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, vip := range vips {
		label := fmt.Sprintf("%s (%d)", vip.Name, vip.UserID)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, prefix+strconv.FormatInt(vip.UserID, 10)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", "admin_back"),
	))

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.editMessage(chatID, messageID, title, &kb)
}

func (b *Bot) showVIPList(ctx context.Context, chatID int64, messageID int) {
	vips, err := b.vips.ListVIPs(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to list vips")
		b.editMessage(chatID, messageID, "❌ Не удалось загрузить реестр", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 <b>VIP реестр</b>\n\n")
	if len(vips) == 0 {
		sb.WriteString("Пока пусто")
	}
	for _, vip := range vips {
		sb.WriteString(formatVIPLine(vip))
		sb.WriteString("\n")
	}

	kb := adminBackKeyboard()
	b.editMessage(chatID, messageID, sb.String(), &kb)
}

func formatVIPLine(vip *models.VIPUser) string {
	parts := []string{fmt.Sprintf("👤 %s (ID %d)", vip.Name, vip.UserID)}
	if vip.HasDiscount() {
		parts = append(parts, fmt.Sprintf("скидка %d%%", vip.Discount))
	}
	if vip.HasCustomRate() {
		parts = append(parts, fmt.Sprintf("репетиция %d ₽/ч", vip.CustomRate))
	}
	if !vip.HasDiscount() && !vip.HasCustomRate() {
		parts = append(parts, "без льгот")
	}
	return strings.Join(parts, " · ")
}
