package bot

import (
	"errors"
	"fmt"

	"machata/internal/database"
)

// getErrorMessage переводит доменную ошибку в сообщение пользователю.
func (b *Bot) getErrorMessage(err error) string {
	switch {
	case errors.Is(err, database.ErrSlotTaken):
		return "❌ <b>Упс! Это время только что заняли.</b>\n\nВыбери другие часы 🕐"
	case errors.Is(err, database.ErrPastDate):
		return "❌ Эта дата уже прошла. Выбери другую 📅"
	case errors.Is(err, database.ErrDateTooFar):
		return "❌ Так далеко мы пока не планируем. Выбери дату поближе 📅"
	case errors.Is(err, database.ErrDayOff):
		return "❌ В этот день студия не работает. Выбери другой 📅"
	case errors.Is(err, database.ErrNoTimes):
		return "❌ Выбери хотя бы один час 🕐"
	case errors.Is(err, database.ErrAlreadyPaid):
		return "⚠️ Эта бронь уже оплачена."
	case errors.Is(err, database.ErrNotPayable):
		return "⚠️ По этой брони оплата не ожидается."
	case errors.Is(err, database.ErrBookingNotFound):
		return "❌ Бронь не найдена."
	default:
		return fmt.Sprintf("❌ <b>Что-то пошло не так.</b>\n\nПопробуй ещё раз или напиши нам: %s", b.config.Studio.Telegram)
	}
}
