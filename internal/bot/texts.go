package bot

import (
	"fmt"
	"strings"

	"machata/internal/models"
	"machata/internal/service"
)

// Кнопки главного меню и мастера
const (
	btnBookRecording = "🎙 Запись трека"
	btnBookRehearsal = "🎸 Репетиция"
	btnMyBookings    = "📝 Мои бронирования"
	btnPrices        = "💰 Тарифы & акции"
	btnLocation      = "📍 Как найти"
	btnLiveChat      = "💬 Живой чат"
	btnCancel        = "❌ Отменить"
	btnMainMenu      = "🏠 В главное меню"
	btnSkip          = "⏭️ Пропустить"
)

func serviceEmoji(key string) string {
	switch key {
	case "repet":
		return "🎸"
	case "studio":
		return "🎧"
	case "full":
		return "✨"
	}
	return "📋"
}

func (b *Bot) serviceTitle(key string) string {
	svc, err := b.bookings.ServiceByKey(key)
	if err != nil {
		return key
	}
	return serviceEmoji(key) + " " + svc.Name
}

func (b *Bot) welcomeText(vip *models.VIPUser) string {
	var badge string
	if vip != nil {
		badge = fmt.Sprintf("\n\n<b>👑 Привет, %s!</b>\nVIP скидка <b>%d%%</b> на все услуги! 🎁", vip.Name, vip.Discount)
		if vip.Discount == 0 && vip.CustomRate > 0 {
			badge = fmt.Sprintf("\n\n<b>👑 Привет, %s!</b>\nДля тебя действует особая цена на репетиции 🎁", vip.Name)
		}
	}

	var services strings.Builder
	for _, svc := range b.config.Services {
		if svc.PerHour {
			services.WriteString(fmt.Sprintf("%s %s (%d ₽/час)\n", serviceEmoji(svc.Key), svc.Name, svc.Rate))
		} else {
			services.WriteString(fmt.Sprintf("%s %s (%d ₽)\n", serviceEmoji(svc.Key), svc.Name, svc.Rate))
		}
	}

	return fmt.Sprintf(`🎵 <b>Добро пожаловать в %s!</b>

Здесь создаётся музыка.
Профессиональный звук, креативная атмосфера и душа.

💡 <b>Услуги:</b>
%s
🚀 <b>Забронируй время за 2 клика!</b>%s`, b.config.Studio.Name, services.String(), badge)
}

func (b *Bot) pricesText(vip *models.VIPUser) string {
	var vipInfo string
	if vip.HasDiscount() {
		vipInfo = fmt.Sprintf("\n\n<b>👑 ТВОЯ VIP СКИДКА: %d%% на все услуги!</b>", vip.Discount)
	}
	if vip.HasCustomRate() {
		vipInfo += fmt.Sprintf("\n<b>🎸 Твоя цена на репетицию: %d ₽/час</b>", vip.CustomRate)
	}

	var lines strings.Builder
	for _, svc := range b.config.Services {
		unit := " ₽"
		if svc.PerHour {
			unit = " ₽/час"
		}
		lines.WriteString(fmt.Sprintf("%s <b>%s</b>\n   %d%s\n\n", serviceEmoji(svc.Key), strings.ToUpper(svc.Name), svc.Rate, unit))
	}

	return fmt.Sprintf(`💰 <b>ТАРИФЫ %s</b>

%s🎁 <b>СКИДКИ:</b>
   💚 %d+ часа: -%d%%
   💚 %d+ часов: -%d%%

💎 Постоянным клиентам — особые условия%s`,
		b.config.Studio.Name, lines.String(),
		models.VolumeDiscountSmallHours, models.VolumeDiscountSmallPercent,
		models.VolumeDiscountBigHours, models.VolumeDiscountBigPercent,
		vipInfo)
}

func (b *Bot) locationText() string {
	return fmt.Sprintf(`📍 <b>РАСПОЛОЖЕНИЕ</b>

<b>%s</b>
%s

🕐 <b>РЕЖИМ:</b>
%s

☎️ %s
📱 %s`, b.config.Studio.Name, b.config.Studio.Address, b.config.Studio.Hours,
		b.config.Studio.Contact, b.config.Studio.Telegram)
}

func (b *Bot) liveChatText() string {
	return fmt.Sprintf(`💬 <b>СВЯЖИСЬ С НАМИ</b>

📱 %s
☎️ %s
💌 %s

Обычно отвечаем за 15 минут 🚀`, b.config.Studio.Telegram, b.config.Studio.Contact, b.config.Studio.Email)
}

func (b *Bot) dateStepText(serviceKey string) string {
	return fmt.Sprintf(`<b>🎵 ШАГ 1/4: ВЫБОР ДАТЫ</b>

%s выбрана.

Выбери дату 👇`, b.serviceTitle(serviceKey))
}

func timeStepText(draft *models.BookingDraft) string {
	df := dateDot(draft.Date)
	if len(draft.SelectedTimes) == 0 {
		return fmt.Sprintf(`<b>🎵 ШАГ 2/4: ВЫБОР ВРЕМЕНИ</b>

Дата: %s

Выбери часы 👇
(подряд = скидка 💚)

⭕ свободно | ✅ выбрано | ❌ занято`, df)
	}
	return fmt.Sprintf(`<b>🎵 ШАГ 2/4: ВЫБОР ВРЕМЕНИ</b>

Дата: %s
Выбрано: %s

Продолжай или ✅ Далее 👇`, df, models.FormatHours(draft.SelectedTimes))
}

const nameStepText = `<b>🎵 ШАГ 3/4: КОНТАКТНЫЕ ДАННЫЕ</b>

Как к тебе обращаться?
(имя, ник или проект)

👤 Введи 👇`

func paymentText(booking *models.Booking, quoteNote string) string {
	return fmt.Sprintf(`<b>💳 ОПЛАТА БРОНИРОВАНИЯ</b>

📅 <b>Дата:</b> %s
⏰ <b>Время:</b> %s
💰 <b>Сумма:</b> %d ₽%s

<b>Нажми кнопку ниже для оплаты:</b>`,
		booking.DateDot(), booking.TimeRange(), booking.Price, quoteNote)
}

func paidText(studioName string, booking *models.Booking, serviceTitle string) string {
	return fmt.Sprintf(`<b>✅ ОПЛАТА ПОЛУЧЕНА!</b>

<b>🎵 %s</b>
%s

📅 <b>Дата:</b> %s
⏰ <b>Время:</b> %s
💰 <b>Сумма:</b> %d ₽
👤 <b>Имя:</b> %s

✉️ <b>Чек отправлен на email</b>

<b>🎉 Спасибо за оплату!</b>

<b>💡 Важно:</b>
   • Приходи за 15 минут до начала
   • При отмене менее чем за 24 часа — возврат 50%%

<b>🎵 Увидимся в студии! Твори с душой!</b>`,
		studioName, serviceTitle, booking.DateDot(), booking.TimeRange(), booking.Price, booking.Name)
}

func bookingDetailText(booking *models.Booking, serviceTitle string) string {
	statusText := "ожидает оплаты ⏳"
	switch booking.Status {
	case models.StatusPaid:
		statusText = "оплачена ✅"
	case models.StatusCancelled:
		statusText = "отменена ❌"
	}

	return fmt.Sprintf(`<b>📋 ДЕТАЛИ СЕАНСА</b>

<b>%s</b>

📅 <b>Дата:</b> %s
⏰ <b>Время:</b> %s
💰 <b>Сумма:</b> %d ₽

📌 <b>Статус:</b> %s

👤 <b>Имя:</b> %s
☎️ <b>Телефон:</b> %s
💬 <b>Комментарий:</b> %s

<b>Что сделать?</b>`,
		serviceTitle, booking.DateDot(), booking.TimeRange(), booking.Price,
		statusText, booking.Name, booking.Phone, booking.Comment)
}

// quoteNote суффикс к цене в кнопках и сообщениях об оплате.
func quoteNote(q service.Quote) string {
	switch {
	case q.CustomRate:
		return " (VIP цена)"
	case q.VIPDiscount && q.Discount > 0:
		return fmt.Sprintf(" (VIP -%d%%)", q.Discount)
	case q.Discount > 0:
		return fmt.Sprintf(" (-%d%%)", q.Discount)
	}
	return ""
}

func dateDot(date string) string {
	b := models.Booking{Date: date}
	return b.DateDot()
}
