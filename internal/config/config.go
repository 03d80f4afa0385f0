package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"fairway/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig            `yaml:"app"`
	Database   DatabaseConfig       `yaml:"database"`
	Redis      RedisConfig          `yaml:"redis"`
	Logging    LoggingConfig        `yaml:"logging"`
	Monitoring MonitoringConfig     `yaml:"monitoring"`
	API        APIConfig            `yaml:"api"`
	Booking    BookingConfig        `yaml:"booking"`
	Refresh    RefreshConfig        `yaml:"refresh"`
	Notify     NotifyConfig         `yaml:"notify"`
	Exports    ExportConfig         `yaml:"exports"`
	Blocked    []models.BlockedSlot `yaml:"blocked"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
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

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	Admin     AdminConfig        `yaml:"admin"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

// AdminConfig is the hard-coded operator gate. The key comes from config or
// environment; there is deliberately no account system behind it.
type AdminConfig struct {
	Header string `yaml:"header"`
	Key    string `yaml:"key"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	SlotTimes      []string          `yaml:"slot_times"`
	SeasonStart    string            `yaml:"season_start"` // YYYY-MM-DD, inclusive
	SeasonEnd      string            `yaml:"season_end"`   // YYYY-MM-DD, inclusive
	MaxAdvanceDays int               `yaml:"max_advance_days"`
	Prices         models.PriceTable `yaml:"prices"`
	SessionTTL     int               `yaml:"session_ttl"` // seconds
}

type RefreshConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
}

type NotifyConfig struct {
	WebhookURL     string `yaml:"webhook_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env файл опционален
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
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
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	for _, slot := range c.Booking.SlotTimes {
		if _, err := time.Parse(models.TimeLayout, slot); err != nil {
			return fmt.Errorf("invalid slot time %q: %w", slot, err)
		}
	}

	if c.Booking.SeasonStart != "" {
		if _, err := time.Parse(models.DateLayout, c.Booking.SeasonStart); err != nil {
			return fmt.Errorf("invalid season_start %q: %w", c.Booking.SeasonStart, err)
		}
	}
	if c.Booking.SeasonEnd != "" {
		if _, err := time.Parse(models.DateLayout, c.Booking.SeasonEnd); err != nil {
			return fmt.Errorf("invalid season_end %q: %w", c.Booking.SeasonEnd, err)
		}
	}

	if c.Booking.Prices.Half < 0 || c.Booking.Prices.Full < 0 {
		return errors.New("lane prices must not be negative")
	}

	return ValidateBlocked(c.Blocked)
}

// ValidateBlocked rejects malformed pre-blocked entries up front so a typo in
// config cannot silently free an operator-held slot.
func ValidateBlocked(blocked []models.BlockedSlot) error {
	for i, b := range blocked {
		if _, err := time.Parse(models.DateLayout, b.Date); err != nil {
			return fmt.Errorf("blocked[%d]: invalid date %q", i, b.Date)
		}
		if _, err := time.Parse(models.TimeLayout, b.Time); err != nil {
			return fmt.Errorf("blocked[%d]: invalid time %q", i, b.Time)
		}
		if !models.NormalizeLane(string(b.Lane)).Known() {
			return fmt.Errorf("blocked[%d]: unknown lane %q", i, b.Lane)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Admin.Header == "" {
		c.API.Admin.Header = "x-admin-key"
	}

	if len(c.Booking.SlotTimes) == 0 {
		c.Booking.SlotTimes = append([]string(nil), models.DefaultSlotTimes...)
	}
	if c.Booking.MaxAdvanceDays == 0 {
		c.Booking.MaxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	if c.Booking.Prices.Half == 0 {
		c.Booking.Prices.Half = 250
	}
	if c.Booking.Prices.Full == 0 {
		c.Booking.Prices.Full = 450
	}
	if c.Booking.SessionTTL == 0 {
		c.Booking.SessionTTL = models.DefaultSessionTTL
	}

	if c.Refresh.IntervalSeconds == 0 {
		c.Refresh.IntervalSeconds = models.DefaultRefreshInterval
	}
	if c.Notify.TimeoutSeconds == 0 {
		c.Notify.TimeoutSeconds = 10
	}
}

// SessionTTL returns the booking session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Booking.SessionTTL) * time.Second
}

// RefreshInterval returns the occupancy refresh period as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh.IntervalSeconds) * time.Second
}
