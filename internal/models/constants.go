package models

const (
	StatusAwaitingPayment = "awaiting_payment"
	StatusPaid            = "paid"
	StatusCancelled       = "cancelled"
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

// Шаги мастера бронирования
const (
	StepSelectService = "select_service"
	StepSelectDate    = "select_date"
	StepSelectTime    = "select_time"
	StepEnterName     = "enter_name"
	StepEnterEmail    = "enter_email"
	StepEnterPhone    = "enter_phone"
	StepEnterComment  = "enter_comment"
)

// Шаги админского под-флоу (VIP реестр)
const (
	AdminStepVIPID       = "admin_vip_id"
	AdminStepVIPName     = "admin_vip_name"
	AdminStepVIPDiscount = "admin_vip_discount"
	AdminStepVIPRate     = "admin_vip_rate"
)

const (
	// DefaultRedisTTL время жизни состояния пользователя в Redis
	DefaultRedisTTL = 24 * 60 * 60 // 24 часа в секундах

	// DefaultBookingHorizonDays горизонт бронирования по умолчанию
	DefaultBookingHorizonDays = 30

	// DefaultHoldMinutes сколько минут неоплаченная бронь держит слоты
	DefaultHoldMinutes = 30

	// DefaultDatesPerPage размер страницы в клавиатуре выбора даты
	DefaultDatesPerPage = 7

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// VIPCacheTTL время жизни кэша VIP реестра в памяти
	VIPCacheTTL = 5 * 60 // 5 минут в секундах
)

// Скидки за объём: от N часов -> процент
const (
	VolumeDiscountSmallHours   = 3
	VolumeDiscountSmallPercent = 10
	VolumeDiscountBigHours     = 5
	VolumeDiscountBigPercent   = 15
)
