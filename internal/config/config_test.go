package config

import (
	"os"
	"path/filepath"
	"testing"

	"machata/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
telegram:
  bot_token: "test_token"
database:
  path: "test.db"
services:
  - key: repet
    name: "Репетиция"
    rate: 700
    per_hour: true
    custom_rate_eligible: true
  - key: full
    name: "Запись под ключ"
    rate: 1500
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Telegram.BotToken != "test_token" {
		t.Errorf("expected bot_token test_token, got %s", cfg.Telegram.BotToken)
	}

	if len(cfg.Services) != 2 || cfg.Services[0].Key != "repet" {
		t.Errorf("expected 2 services with first key repet, got %+v", cfg.Services)
	}

	if svc := cfg.Services[1]; svc.Key != "full" || svc.Rate != 1500 || svc.PerHour {
		t.Errorf("unexpected second service: %+v", svc)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Telegram: TelegramConfig{BotToken: "token"},
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{WorkHourStart: 9, WorkHourEnd: 22},
				Services: []models.Service{{Key: "repet", Name: "Репетиция", Rate: 700, PerHour: true}},
			},
			wantErr: false,
		},
		{
			name: "missing token",
			cfg: Config{
				Telegram: TelegramConfig{BotToken: ""},
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{WorkHourStart: 9, WorkHourEnd: 22},
			},
			wantErr: true,
		},
		{
			name: "inverted work hours",
			cfg: Config{
				Telegram: TelegramConfig{BotToken: "token"},
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{WorkHourStart: 22, WorkHourEnd: 9},
				Services: []models.Service{{Key: "repet", Name: "Репетиция", Rate: 700, PerHour: true}},
			},
			wantErr: true,
		},
		{
			name: "webhook enabled without credentials",
			cfg: Config{
				Telegram: TelegramConfig{BotToken: "token"},
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{WorkHourStart: 9, WorkHourEnd: 22},
				Webhook:  WebhookConfig{Enabled: true},
				Services: []models.Service{{Key: "repet", Name: "Репетиция", Rate: 700, PerHour: true}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Payment.BaseURL != "https://api.yookassa.ru/v3" {
		t.Errorf("unexpected default payment base URL: %s", cfg.Payment.BaseURL)
	}
	if cfg.Booking.WorkHourStart != 9 || cfg.Booking.WorkHourEnd != 22 {
		t.Errorf("unexpected default work hours: %d-%d", cfg.Booking.WorkHourStart, cfg.Booking.WorkHourEnd)
	}
	if cfg.Booking.HoldMinutes != models.DefaultHoldMinutes {
		t.Errorf("expected default hold minutes %d, got %d", models.DefaultHoldMinutes, cfg.Booking.HoldMinutes)
	}
	if cfg.Webhook.Port != 8080 {
		t.Errorf("expected default webhook port 8080, got %d", cfg.Webhook.Port)
	}
	if cfg.Booking.RateLimitMessages != models.RateLimitMessages {
		t.Errorf("expected default rate limit messages %d, got %d", models.RateLimitMessages, cfg.Booking.RateLimitMessages)
	}
}

func TestValidateServices(t *testing.T) {
	tests := []struct {
		name     string
		services []models.Service
		wantErr  bool
	}{
		{
			name: "valid services",
			services: []models.Service{
				{Key: "repet", Name: "Репетиция", Rate: 700, PerHour: true},
				{Key: "studio", Name: "Студия", Rate: 800, PerHour: true},
			},
			wantErr: false,
		},
		{
			name: "duplicate key",
			services: []models.Service{
				{Key: "repet", Name: "Репетиция", Rate: 700, PerHour: true},
				{Key: "repet", Name: "Студия", Rate: 800, PerHour: true},
			},
			wantErr: true,
		},
		{
			name: "zero rate",
			services: []models.Service{
				{Key: "repet", Name: "Репетиция", Rate: 0, PerHour: true},
			},
			wantErr: true,
		},
		{
			name: "custom rate on flat service",
			services: []models.Service{
				{Key: "full", Name: "Под ключ", Rate: 1500, CustomRateEligible: true},
			},
			wantErr: true,
		},
		{
			name:     "empty catalog",
			services: nil,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServices(tt.services)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateServices() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
