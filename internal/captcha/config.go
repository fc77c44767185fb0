package captcha

import (
	"fmt"
	"time"

	"grant-intake/internal/common/config"
	"grant-intake/internal/common/validation"
)

// DefaultVerifyURL is the Cloudflare Turnstile siteverify endpoint.
const DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

type Config struct {
	Enabled   bool          `mapstructure:"enabled"`
	SecretKey string        `mapstructure:"secret_key"`
	VerifyURL string        `mapstructure:"verify_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		VerifyURL: DefaultVerifyURL,
		Timeout:   5 * time.Second,
	}
}

func ConfigFromApp(app config.CaptchaConfig) *Config {
	cfg := DefaultConfig()
	cfg.Enabled = app.Enabled
	cfg.SecretKey = app.SecretKey
	if app.VerifyURL != "" {
		cfg.VerifyURL = app.VerifyURL
	}
	if app.Timeout > 0 {
		cfg.Timeout = config.GetDuration(app.Timeout)
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if !c.Enabled {
		return nil
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret_key is required when captcha is enabled")
	}
	if c.VerifyURL == "" {
		return fmt.Errorf("verify_url is required when captcha is enabled")
	}
	if !validation.ValidateURL(c.VerifyURL) {
		return fmt.Errorf("verify_url must be an absolute http(s) URL")
	}
	return nil
}
