package submission

import (
	"fmt"
	"time"

	"grant-intake/internal/common/config"
)

type Config struct {
	ObjectType    string        `mapstructure:"object_type"`
	NotifyTimeout time.Duration `mapstructure:"notify_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		ObjectType:    "Application__c",
		NotifyTimeout: 5 * time.Second,
	}
}

func ConfigFromApp(app *config.Config) *Config {
	cfg := DefaultConfig()
	if app.Salesforce.ObjectType != "" {
		cfg.ObjectType = app.Salesforce.ObjectType
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.ObjectType == "" {
		return fmt.Errorf("object_type is required")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("notify_timeout must be positive")
	}
	return nil
}
