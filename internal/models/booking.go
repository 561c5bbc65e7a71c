package models

import (
	"fmt"
	"sort"
	"time"
)

type Booking struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Service    string    `json:"service"`
	Date       string    `json:"date"` // YYYY-MM-DD
	Times      []int     `json:"times"`
	Duration   int       `json:"duration"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Comment    string    `json:"comment"`
	Price      int       `json:"price"`
	Status     string    `json:"status"` // awaiting_payment, paid, cancelled
	CreatedAt  time.Time `json:"created_at"`
	PaidAt     time.Time `json:"paid_at,omitempty"`
	PaymentID  string    `json:"payment_id,omitempty"`
	PaymentURL string    `json:"payment_url,omitempty"`
	Version    int64     `json:"version"`
}

// TimeRange возвращает "HH:00–HH:00 (Nч)" по выбранным часам.
// UI показывает диапазон от минимального до максимального часа,
// даже если выбор не смежный.
func (b *Booking) TimeRange() string {
	return FormatHours(b.Times)
}

func FormatHours(hours []int) string {
	if len(hours) == 0 {
		return "-"
	}
	sorted := append([]int(nil), hours...)
	sort.Ints(sorted)
	start := sorted[0]
	end := sorted[len(sorted)-1] + 1
	return fmt.Sprintf("%02d:00–%02d:00 (%dч)", start, end, len(hours))
}

// DateDot переводит YYYY-MM-DD в ДД.ММ.ГГГГ для сообщений.
func (b *Booking) DateDot() string {
	d, err := time.Parse("2006-01-02", b.Date)
	if err != nil {
		return b.Date
	}
	return d.Format("02.01.2006")
}

func (b *Booking) IsActive() bool {
	return b.Status == StatusAwaitingPayment || b.Status == StatusPaid
}
