package models

// Service позиция каталога услуг студии. PerHour=true — цена за час,
// иначе Rate это фиксированная цена за сеанс независимо от длительности.
type Service struct {
	Key     string `yaml:"key" json:"key"`
	Name    string `yaml:"name" json:"name"`
	Rate    int    `yaml:"rate" json:"rate"`
	PerHour bool   `yaml:"per_hour" json:"per_hour"`
	// CustomRateEligible: на эту услугу распространяется индивидуальная
	// VIP цена за час (в студии это только репетиция).
	CustomRateEligible bool `yaml:"custom_rate_eligible" json:"custom_rate_eligible"`
}
