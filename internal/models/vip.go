package models

import "time"

// VIPUser запись реестра скидок. Либо процентная скидка, либо
// индивидуальная почасовая цена (действует только на почасовую услугу).
type VIPUser struct {
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name"`
	Discount   int       `json:"discount"`    // 0-100, 0 = нет скидки
	CustomRate int       `json:"custom_rate"` // ₽/час, 0 = не задана
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (v *VIPUser) HasDiscount() bool {
	return v != nil && v.Discount > 0
}

func (v *VIPUser) HasCustomRate() bool {
	return v != nil && v.CustomRate > 0
}
