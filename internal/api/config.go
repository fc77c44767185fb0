package api

import (
	"fmt"
	"os"
	"time"

	"grant-intake/internal/common/config"
)

type Config struct {
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	UploadDir      string        `mapstructure:"upload_dir"`
	ReadyTimeout   time.Duration `mapstructure:"ready_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxUploadBytes: 8 << 20,
		UploadDir:      os.TempDir(),
		ReadyTimeout:   3 * time.Second,
	}
}

func ConfigFromApp(app config.ServerConfig) *Config {
	cfg := DefaultConfig()
	if app.MaxUploadBytes > 0 {
		cfg.MaxUploadBytes = app.MaxUploadBytes
	}
	if app.UploadDir != "" {
		cfg.UploadDir = app.UploadDir
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("upload_dir is required")
	}
	if c.ReadyTimeout <= 0 {
		return fmt.Errorf("ready_timeout must be positive")
	}
	return nil
}
