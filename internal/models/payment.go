package models

// Статусы платежа ЮKassa
const (
	PaymentStatusPending           = "pending"
	PaymentStatusWaitingForCapture = "waiting_for_capture"
	PaymentStatusSucceeded         = "succeeded"
	PaymentStatusCanceled          = "canceled"
)

// Payment нормализованный ответ шлюза.
type Payment struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	Paid            bool   `json:"paid"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
	BookingID       int64  `json:"booking_id,omitempty"`
}

func (p *Payment) Succeeded() bool {
	return p != nil && (p.Status == PaymentStatusSucceeded || p.Paid)
}
