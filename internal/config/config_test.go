package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fairway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yamlContent string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))
	return configPath
}

func TestLoadConfig(t *testing.T) {
	configPath := writeConfig(t, `
app:
  name: "fairway"
  environment: "test"
database:
  path: "test.db"
booking:
  slot_times: ["10:00", "11:00"]
  season_start: "2026-05-01"
  season_end: "2026-09-30"
  prices:
    half: 300
    full: 500
blocked:
  - date: "2026-06-15"
    time: "10:00"
    lane: "full"
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "fairway", cfg.App.Name)
	assert.Equal(t, "test.db", cfg.Database.Path)
	assert.Equal(t, []string{"10:00", "11:00"}, cfg.Booking.SlotTimes)
	assert.Equal(t, int64(300), cfg.Booking.Prices.Half)
	assert.Equal(t, int64(500), cfg.Booking.Prices.Full)
	require.Len(t, cfg.Blocked, 1)
	assert.Equal(t, models.LaneFull, cfg.Blocked[0].Lane)
}

func TestLoadConfigDefaults(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "test.db"
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "x-admin-key", cfg.API.Admin.Header)
	assert.Equal(t, models.DefaultSlotTimes, cfg.Booking.SlotTimes)
	assert.Equal(t, models.DefaultMaxAdvanceDays, cfg.Booking.MaxAdvanceDays)
	assert.Equal(t, int64(250), cfg.Booking.Prices.Half)
	assert.Equal(t, int64(450), cfg.Booking.Prices.Full)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval())
	assert.Equal(t, 10, cfg.Notify.TimeoutSeconds)
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	t.Setenv("FAIRWAY_TEST_DB_PATH", "/tmp/fairway-test.db")

	configPath := writeConfig(t, `
database:
  path: "${FAIRWAY_TEST_DB_PATH}"
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fairway-test.db", cfg.Database.Path)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "malformed slot time",
			mutate:  func(c *Config) { c.Booking.SlotTimes = []string{"25:99"} },
			wantErr: true,
		},
		{
			name:    "malformed season start",
			mutate:  func(c *Config) { c.Booking.SeasonStart = "01.05.2026" },
			wantErr: true,
		},
		{
			name:    "negative price",
			mutate:  func(c *Config) { c.Booking.Prices.Half = -1 },
			wantErr: true,
		},
		{
			name: "blocked entry with bad date",
			mutate: func(c *Config) {
				c.Blocked = []models.BlockedSlot{{Date: "15.06.2026", Time: "10:00", Lane: models.LaneFull}}
			},
			wantErr: true,
		},
		{
			name: "blocked entry with unknown lane",
			mutate: func(c *Config) {
				c.Blocked = []models.BlockedSlot{{Date: "2026-06-15", Time: "10:00", Lane: "quarter"}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Database: DatabaseConfig{Path: "test.db"},
				Booking: BookingConfig{
					SlotTimes:   []string{"10:00"},
					SeasonStart: "2026-05-01",
					SeasonEnd:   "2026-09-30",
				},
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
