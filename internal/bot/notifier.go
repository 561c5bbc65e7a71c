package bot

import (
	"encoding/json"
	"fmt"

	"machata/internal/events"
	"machata/internal/models"
)

// subscribeNotifications подписывает бота на доменные события: уведомления
// об оплате и об отмене просроченной брони уходят пользователю и админам
// независимо от того, кто зафиксировал оплату (webhook, опрос, воркер).
func (b *Bot) subscribeNotifications() {
	if b.eventBus == nil {
		return
	}

	b.eventBus.Subscribe(events.EventBookingPaid, func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			b.logger.Error().Err(err).Msg("Failed to decode booking_paid event")
			return err
		}
		b.notifyBookingPaid(payload)
		return nil
	})

	b.eventBus.Subscribe(events.EventHoldExpired, func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			b.logger.Error().Err(err).Msg("Failed to decode hold_expired event")
			return err
		}
		b.notifyHoldExpired(payload)
		return nil
	})
}

func (b *Bot) notifyBookingPaid(payload events.BookingEventPayload) {
	booking := &models.Booking{
		ID:      payload.BookingID,
		UserID:  payload.UserID,
		Service: payload.Service,
		Date:    payload.Date,
		Times:   payload.Times,
		Price:   payload.Price,
		Status:  payload.Status,
	}

	b.sendHTML(payload.UserID, paidText(b.config.Studio.Name, booking, b.serviceTitle(booking.Service)))
	b.sendMainMenu(payload.UserID, "🏠 <b>Главное меню</b>")

	adminText := fmt.Sprintf(
		"💰 <b>Новая оплата</b>\n\n🆔 Бронь #%d\n🎵 %s\n📅 %s, %s\n💵 %d ₽\n👤 ID %d",
		booking.ID, b.serviceTitle(booking.Service), booking.DateDot(), booking.TimeRange(), booking.Price, booking.UserID,
	)
	for _, adminID := range b.config.Admins {
		b.sendHTML(adminID, adminText)
	}
}

func (b *Bot) notifyHoldExpired(payload events.BookingEventPayload) {
	booking := &models.Booking{
		ID:      payload.BookingID,
		Service: payload.Service,
		Date:    payload.Date,
		Times:   payload.Times,
	}

	text := fmt.Sprintf(
		"⏰ <b>Бронь #%d отменена.</b>\n\nОплата не поступила вовремя, время %s на %s снова свободно.\n\nХочешь забронировать заново? 🎵",
		booking.ID, booking.TimeRange(), booking.DateDot(),
	)
	b.sendHTML(payload.UserID, text)
}
