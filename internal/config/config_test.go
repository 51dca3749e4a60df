package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.AI.Profiles = []AIProfile{
		{ID: "main", Provider: "anthropic", APIKey: "sk-ant-test", Model: "claude-sonnet-4"},
	}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "primary", cfg.User.ID)
	assert.Equal(t, 9, cfg.Calendar.WorkStartHour)
	assert.Equal(t, 17, cfg.Calendar.WorkEndHour)
	assert.Equal(t, 30, cfg.Calendar.SlotDurationMinutes)
	assert.Equal(t, "primary", cfg.Google.CalendarID)
	assert.False(t, cfg.Gateway.Enabled)
	assert.Equal(t, 8080, cfg.Gateway.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redaction)
	assert.Equal(t, 60, cfg.Daemon.PendingTTLMinutes)
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("defaults validate without profiles", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("missing user ID", func(t *testing.T) {
		cfg := validConfig()
		cfg.User.ID = ""
		assert.ErrorContains(t, cfg.Validate(), "user ID")
	})

	t.Run("profile missing api key", func(t *testing.T) {
		cfg := validConfig()
		cfg.AI.Profiles[0].APIKey = ""
		assert.ErrorContains(t, cfg.Validate(), "api_key")
	})

	t.Run("unsupported provider", func(t *testing.T) {
		cfg := validConfig()
		cfg.AI.Profiles[0].Provider = "gemini"
		assert.ErrorContains(t, cfg.Validate(), "invalid provider")
	})

	t.Run("inverted work hours", func(t *testing.T) {
		cfg := validConfig()
		cfg.Calendar.WorkStartHour = 18
		cfg.Calendar.WorkEndHour = 9
		assert.ErrorContains(t, cfg.Validate(), "work start hour")
	})

	t.Run("zero slot duration", func(t *testing.T) {
		cfg := validConfig()
		cfg.Calendar.SlotDurationMinutes = 0
		assert.ErrorContains(t, cfg.Validate(), "slot duration")
	})

	t.Run("gateway enabled without secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.Gateway.Enabled = true
		cfg.Gateway.SharedSecret = ""
		assert.ErrorContains(t, cfg.Validate(), "shared secret")
	})

	t.Run("gateway disabled ignores secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.Gateway.Enabled = false
		cfg.Gateway.SharedSecret = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestStringRendersJSON(t *testing.T) {
	out := validConfig().String()
	assert.Contains(t, out, `"work_start_hour": 9`)
	assert.Contains(t, out, `"provider": "anthropic"`)
}
