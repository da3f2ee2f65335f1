// helpdesk/syncclient/config.go
package syncclient

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultChatInterval         = 5 * time.Second
	DefaultNotificationInterval = 30 * time.Second
	DefaultBaseURL              = "http://localhost:8000"
)

type Config struct {
	BaseURL              string
	ChatInterval         time.Duration
	NotificationInterval time.Duration
}

type fileConfig struct {
	BaseURL              string `yaml:"base_url"`
	ChatInterval         string `yaml:"chat_interval"`
	NotificationInterval string `yaml:"notification_interval"`
}

// LoadConfig reads the poll intervals from a YAML file. An empty path or a
// missing file yields the defaults; a malformed file is an error.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		BaseURL:              DefaultBaseURL,
		ChatInterval:         DefaultChatInterval,
		NotificationInterval: DefaultNotificationInterval,
	}
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if fc.BaseURL != "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.ChatInterval != "" {
		d, err := time.ParseDuration(fc.ChatInterval)
		if err != nil {
			return cfg, fmt.Errorf("chat_interval: %w", err)
		}
		cfg.ChatInterval = d
	}
	if fc.NotificationInterval != "" {
		d, err := time.ParseDuration(fc.NotificationInterval)
		if err != nil {
			return cfg, fmt.Errorf("notification_interval: %w", err)
		}
		cfg.NotificationInterval = d
	}
	return cfg, nil
}
