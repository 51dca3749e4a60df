package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main Temu configuration
type Config struct {
	// Primary user on whose behalf meetings are booked
	User UserConfig `json:"user" mapstructure:"user"`

	// AI provider profiles for intent parsing
	AI AIConfig `json:"ai" mapstructure:"ai"`

	// Google API access
	Google GoogleConfig `json:"google" mapstructure:"google"`

	// Calendar and scheduling settings
	Calendar CalendarConfig `json:"calendar" mapstructure:"calendar"`

	// Gateway server configuration
	Gateway GatewayConfig `json:"gateway" mapstructure:"gateway"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Daemon background jobs
	Daemon DaemonConfig `json:"daemon" mapstructure:"daemon"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// UserConfig identifies the primary user.
type UserConfig struct {
	ID       string `json:"id" mapstructure:"id"`
	Timezone string `json:"timezone" mapstructure:"timezone"`
}

// AIConfig holds AI provider configuration
type AIConfig struct {
	Profiles []AIProfile `json:"profiles" mapstructure:"profiles"`
}

// AIProfile represents an AI provider profile
type AIProfile struct {
	ID       string `json:"id" mapstructure:"id"`
	Provider string `json:"provider" mapstructure:"provider"` // anthropic, openai
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	Model    string `json:"model" mapstructure:"model"`
	Priority int    `json:"priority" mapstructure:"priority"`
}

// GoogleConfig holds the OAuth application credentials and calendar
// selection.
type GoogleConfig struct {
	ClientID     string `json:"client_id" mapstructure:"client_id"`
	ClientSecret string `json:"client_secret" mapstructure:"client_secret"`
	CalendarID   string `json:"calendar_id" mapstructure:"calendar_id"`
}

// CalendarConfig holds scheduling settings
type CalendarConfig struct {
	WorkStartHour       int    `json:"work_start_hour" mapstructure:"work_start_hour"`
	WorkEndHour         int    `json:"work_end_hour" mapstructure:"work_end_hour"`
	SlotDurationMinutes int    `json:"slot_duration_minutes" mapstructure:"slot_duration_minutes"`
	Location            string `json:"location" mapstructure:"location"` // IANA timezone
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// GatewayConfig holds gateway server configuration
type GatewayConfig struct {
	Enabled      bool   `json:"enabled" mapstructure:"enabled"`
	Port         int    `json:"port" mapstructure:"port"`
	Host         string `json:"host" mapstructure:"host"`
	SharedSecret string `json:"shared_secret" mapstructure:"shared_secret"`
}

// DaemonConfig holds background job schedules
type DaemonConfig struct {
	ContactRefreshSchedule string `json:"contact_refresh_schedule" mapstructure:"contact_refresh_schedule"`
	PendingSweepSchedule   string `json:"pending_sweep_schedule" mapstructure:"pending_sweep_schedule"`
	PendingTTLMinutes      int    `json:"pending_ttl_minutes" mapstructure:"pending_ttl_minutes"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		User: UserConfig{
			ID: "primary",
		},
		AI: AIConfig{
			Profiles: []AIProfile{},
		},
		Google: GoogleConfig{
			CalendarID: "primary",
		},
		Calendar: CalendarConfig{
			WorkStartHour:       9,
			WorkEndHour:         17,
			SlotDurationMinutes: 30,
			Location:            "UTC",
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Gateway: GatewayConfig{
			Enabled:      false,
			Port:         8080,
			Host:         "0.0.0.0",
			SharedSecret: "",
		},
		Daemon: DaemonConfig{
			ContactRefreshSchedule: "@every 15m",
			PendingSweepSchedule:   "@hourly",
			PendingTTLMinutes:      60,
		},
		DataDir: "",
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.User.ID == "" {
		return fmt.Errorf("user ID is required")
	}

	for i, profile := range c.AI.Profiles {
		if profile.ID == "" {
			return fmt.Errorf("AI profile %d: ID is required", i)
		}
		if profile.Provider == "" {
			return fmt.Errorf("AI profile %s: provider is required", profile.ID)
		}
		if profile.APIKey == "" {
			return fmt.Errorf("AI profile %s: api_key is required", profile.ID)
		}
		if profile.Provider != "anthropic" && profile.Provider != "openai" {
			return fmt.Errorf("AI profile %s: invalid provider %s (must be: anthropic, openai)", profile.ID, profile.Provider)
		}
	}

	if c.Calendar.WorkStartHour < 0 || c.Calendar.WorkStartHour > 23 {
		return fmt.Errorf("invalid work start hour: %d", c.Calendar.WorkStartHour)
	}
	if c.Calendar.WorkEndHour < 1 || c.Calendar.WorkEndHour > 24 {
		return fmt.Errorf("invalid work end hour: %d", c.Calendar.WorkEndHour)
	}
	if c.Calendar.WorkStartHour >= c.Calendar.WorkEndHour {
		return fmt.Errorf("work start hour must be before work end hour")
	}
	if c.Calendar.SlotDurationMinutes <= 0 {
		return fmt.Errorf("slot duration must be positive")
	}

	if c.Gateway.Enabled {
		if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
			return fmt.Errorf("invalid gateway port: %d", c.Gateway.Port)
		}
		if c.Gateway.SharedSecret == "" {
			return fmt.Errorf("gateway shared secret is required when the gateway is enabled")
		}
	}

	if c.Daemon.PendingTTLMinutes <= 0 {
		return fmt.Errorf("pending TTL must be positive")
	}

	return nil
}
