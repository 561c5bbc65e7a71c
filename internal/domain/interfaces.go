package domain

import (
	"context"
	"time"

	"machata/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Repository interface {
	GetBookedHours(ctx context.Context, date, service string) (map[int]bool, error)
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error)
	SetPaymentInfo(ctx context.Context, id int64, paymentID, paymentURL string) error
	MarkPaid(ctx context.Context, id int64) error
	CancelBooking(ctx context.Context, id int64) error
	GetStaleHolds(ctx context.Context, olderThan time.Duration) ([]*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Booking, error)
	GetDailyBookings(ctx context.Context, startDate, endDate string) (map[string][]*models.Booking, error)
}

type VIPRepository interface {
	UpsertVIP(ctx context.Context, vip *models.VIPUser) error
	GetVIP(ctx context.Context, userID int64) (*models.VIPUser, error)
	DeleteVIP(ctx context.Context, userID int64) error
	ListVIPs(ctx context.Context) ([]*models.VIPUser, error)
}

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SetUserState(ctx context.Context, state *models.UserState) error
	SetStep(ctx context.Context, userID int64, step string) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// PaymentGateway внешний платежный шлюз (ЮKassa).
type PaymentGateway interface {
	CreatePayment(ctx context.Context, booking *models.Booking, description string) (*models.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendHTML(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type VIPService interface {
	GetVIP(ctx context.Context, userID int64) (*models.VIPUser, error)
	UpsertVIP(ctx context.Context, vip *models.VIPUser) error
	DeleteVIP(ctx context.Context, userID int64) error
	ListVIPs(ctx context.Context) ([]*models.VIPUser, error)
	Refresh()
}

type PaymentReconciler interface {
	HandleSucceededPayment(ctx context.Context, paymentID string, bookingID int64) error
	PollPayment(ctx context.Context, booking *models.Booking) (bool, error)
}
