package syncclient

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.ChatInterval)
	assert.Equal(t, 30*time.Second, cfg.NotificationInterval)

	// a missing file is the same as no file
	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultChatInterval, cfg.ChatInterval)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yaml")
	data := "base_url: http://helpdesk.local:9000\nchat_interval: 2s\nnotification_interval: 1m\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://helpdesk.local:9000", cfg.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.ChatInterval)
	assert.Equal(t, time.Minute, cfg.NotificationInterval)
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chat_interval: soon\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
