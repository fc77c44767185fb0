package followup

import (
	"fmt"
	"time"

	"grant-intake/internal/common/config"
)

const minSecretLength = 32

type Config struct {
	Secret    string        `mapstructure:"secret"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

func DefaultConfig() *Config {
	return &Config{
		TTL:       30 * 24 * time.Hour,
		KeyPrefix: "followup:used:",
	}
}

func ConfigFromApp(app config.FollowupConfig) *Config {
	cfg := DefaultConfig()
	cfg.Secret = app.Secret
	if app.TTLHours > 0 {
		cfg.TTL = time.Duration(app.TTLHours) * time.Hour
	}
	return cfg
}

func (c *Config) Validate() error {
	if len(c.Secret) < minSecretLength {
		return fmt.Errorf("secret must be at least %d bytes", minSecretLength)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	if c.KeyPrefix == "" {
		return fmt.Errorf("key_prefix is required")
	}
	return nil
}
