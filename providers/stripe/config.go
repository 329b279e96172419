package stripe

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultMaxNetworkRetries = 2
	defaultHTTPTimeout       = 20 * time.Second
)

// NoNetworkRetries turns SDK retries off. A zero MaxNetworkRetries means the
// default of 2.
const NoNetworkRetries int64 = -1

// Config holds the processor credentials and the transport policy for
// outbound calls. Retries with backoff are performed by the SDK backend.
type Config struct {
	SecretKey         string        `koanf:"secret_key" mapstructure:"secret_key"`
	WebhookSecret     string        `koanf:"webhook_secret" mapstructure:"webhook_secret"`
	APIBaseURL        string        `koanf:"api_base_url" mapstructure:"api_base_url"`
	MaxNetworkRetries int64         `koanf:"max_network_retries" mapstructure:"max_network_retries"`
	HTTPTimeout       time.Duration `koanf:"http_timeout" mapstructure:"http_timeout"`
	HTTPClient        *http.Client  `koanf:"-" mapstructure:"-"`
}

func DefaultConfig() Config {
	return Config{
		MaxNetworkRetries: defaultMaxNetworkRetries,
		HTTPTimeout:       defaultHTTPTimeout,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("providers/stripe: secret key is required")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("providers/stripe: http timeout must not be negative")
	}
	return nil
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = defaults.HTTPTimeout
	}
	switch {
	case c.MaxNetworkRetries == 0:
		c.MaxNetworkRetries = defaults.MaxNetworkRetries
	case c.MaxNetworkRetries < 0:
		c.MaxNetworkRetries = 0
	}
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	return c
}
