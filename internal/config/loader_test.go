package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "temu.json"))

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.User.ID)
	assert.Equal(t, 9, cfg.Calendar.WorkStartHour)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temu.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"user": {"id": "alice"},
		"calendar": {"work_start_hour": 8},
		"gateway": {"enabled": true, "port": 9090, "shared_secret": "s3cret"}
	}`), 0600))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.User.ID)
	assert.Equal(t, 8, cfg.Calendar.WorkStartHour)
	assert.Equal(t, 17, cfg.Calendar.WorkEndHour, "unset fields keep defaults")
	assert.True(t, cfg.Gateway.Enabled)
	assert.Equal(t, 9090, cfg.Gateway.Port)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temu.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0600))

	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "temu.json")
	loader := NewLoader(path)

	cfg := DefaultConfig()
	cfg.User.ID = "alice"
	cfg.Google.ClientID = "client-id"
	cfg.Calendar.SlotDurationMinutes = 45
	require.NoError(t, loader.Save(cfg))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.User.ID)
	assert.Equal(t, "client-id", loaded.Google.ClientID)
	assert.Equal(t, 45, loaded.Calendar.SlotDurationMinutes)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "/tmp/x.json", NewLoader("/tmp/x.json").GetConfigPath())
	assert.Contains(t, NewLoader("").GetConfigPath(), ".temu")
}
