package config

import (
	"errors"
	"fmt"
	"os"

	"machata/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Payment    PaymentConfig    `yaml:"payment"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Studio     StudioConfig     `yaml:"studio"`
	Booking    BookingConfig    `yaml:"booking"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
	Admins     []int64          `yaml:"admins"`
	Services   []models.Service `yaml:"services"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type PaymentConfig struct {
	ShopID    string `yaml:"shop_id"`
	SecretKey string `yaml:"secret_key"`
	BaseURL   string `yaml:"base_url"`
	ReturnURL string `yaml:"return_url"`
	Currency  string `yaml:"currency"`
}

type WebhookConfig struct {
	Enabled bool    `yaml:"enabled"`
	Port    int     `yaml:"port"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

type StudioConfig struct {
	Name     string `yaml:"name"`
	Contact  string `yaml:"contact"`
	Telegram string `yaml:"telegram"`
	Email    string `yaml:"email"`
	Address  string `yaml:"address"`
	Hours    string `yaml:"hours"`
}

type BookingConfig struct {
	WorkHourStart     int   `yaml:"work_hour_start"`
	WorkHourEnd       int   `yaml:"work_hour_end"`
	OffDays           []int `yaml:"off_days"` // time.Weekday: 0 = воскресенье
	HorizonDays       int   `yaml:"horizon_days"`
	HoldMinutes       int   `yaml:"hold_minutes"`
	DatesPerPage      int   `yaml:"dates_per_page"`
	RateLimitMessages int   `yaml:"rate_limit_messages"`
	RateLimitWindow   int   `yaml:"rate_limit_window"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен: в проде значения приходят из окружения
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Подстановка переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Booking.WorkHourStart < 0 || c.Booking.WorkHourEnd > 24 ||
		c.Booking.WorkHourStart >= c.Booking.WorkHourEnd {
		return fmt.Errorf("invalid work hours window: %d-%d", c.Booking.WorkHourStart, c.Booking.WorkHourEnd)
	}

	if c.Webhook.Enabled {
		if c.Payment.ShopID == "" || c.Payment.SecretKey == "" {
			return errors.New("payment shop_id and secret_key are required when webhook is enabled")
		}
	}

	return ValidateServices(c.Services)
}

func ValidateServices(services []models.Service) error {
	if len(services) == 0 {
		return errors.New("at least one service is required")
	}

	keys := make(map[string]bool)
	for _, svc := range services {
		if svc.Key == "" {
			return fmt.Errorf("service '%s' has empty key", svc.Name)
		}
		if keys[svc.Key] {
			return fmt.Errorf("duplicate service key found: %s", svc.Key)
		}
		if svc.Rate <= 0 {
			return fmt.Errorf("service '%s' has invalid rate %d", svc.Key, svc.Rate)
		}
		if svc.CustomRateEligible && !svc.PerHour {
			return fmt.Errorf("service '%s': custom rate applies to per-hour services only", svc.Key)
		}
		keys[svc.Key] = true
	}
	return nil
}

func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) applyDefaults() {
	if c.Payment.BaseURL == "" {
		c.Payment.BaseURL = "https://api.yookassa.ru/v3"
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "RUB"
	}
	if c.Webhook.Port == 0 {
		c.Webhook.Port = 8080
	}
	if c.Webhook.RPS == 0 {
		c.Webhook.RPS = 10
	}
	if c.Webhook.Burst == 0 {
		c.Webhook.Burst = 20
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Booking.WorkHourStart == 0 && c.Booking.WorkHourEnd == 0 {
		c.Booking.WorkHourStart = 9
		c.Booking.WorkHourEnd = 22
	}
	if c.Booking.HorizonDays == 0 {
		c.Booking.HorizonDays = models.DefaultBookingHorizonDays
	}
	if c.Booking.HoldMinutes == 0 {
		c.Booking.HoldMinutes = models.DefaultHoldMinutes
	}
	if c.Booking.DatesPerPage == 0 {
		c.Booking.DatesPerPage = models.DefaultDatesPerPage
	}
	if c.Booking.RateLimitMessages == 0 {
		c.Booking.RateLimitMessages = models.RateLimitMessages
	}
	if c.Booking.RateLimitWindow == 0 {
		c.Booking.RateLimitWindow = models.RateLimitWindow
	}
}
