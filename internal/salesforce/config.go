package salesforce

import (
	"fmt"
	"strings"
	"time"

	"grant-intake/internal/common/config"
	"grant-intake/internal/common/validation"
)

type Config struct {
	LoginURL      string        `mapstructure:"login_url"`
	ClientID      string        `mapstructure:"client_id"`
	ClientSecret  string        `mapstructure:"client_secret"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	SecurityToken string        `mapstructure:"security_token"`
	APIVersion    string        `mapstructure:"api_version"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		LoginURL:   "https://login.salesforce.com",
		APIVersion: "v59.0",
		Timeout:    30 * time.Second,
	}
}

// ConfigFromApp builds the client config from the application config.
func ConfigFromApp(app config.SalesforceConfig) *Config {
	cfg := DefaultConfig()
	cfg.ClientID = app.ClientID
	cfg.ClientSecret = app.ClientSecret
	cfg.Username = app.Username
	cfg.Password = app.Password
	cfg.SecurityToken = app.SecurityToken
	if app.LoginURL != "" {
		cfg.LoginURL = app.LoginURL
	}
	if app.APIVersion != "" {
		cfg.APIVersion = app.APIVersion
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
	if c.LoginURL == "" {
		return fmt.Errorf("login_url is required")
	}
	if !validation.ValidateURL(c.LoginURL) {
		return fmt.Errorf("login_url must be an absolute http(s) URL")
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("client_id and client_secret are required")
	}
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("username and password are required")
	}
	if !strings.HasPrefix(c.APIVersion, "v") {
		return fmt.Errorf("api_version must look like v59.0")
	}
	return nil
}

func (c *Config) tokenURL() string {
	return strings.TrimRight(c.LoginURL, "/") + "/services/oauth2/token"
}
