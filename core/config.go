package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultFeeBasisPoints          = 1000
	defaultWebhookToleranceSeconds = 300
	defaultWebhookFutureSkew       = 60
	defaultCheckoutMode            = "payment"
	maxBasisPoints                 = 10000
)

type FeesConfig struct {
	// BasisPoints is the platform commission in hundredths of a percent
	// (1000 = 10%).
	BasisPoints int64 `koanf:"basis_points" mapstructure:"basis_points"`
}

type WebhookConfig struct {
	ToleranceSeconds  int `koanf:"tolerance_seconds" mapstructure:"tolerance_seconds"`
	FutureSkewSeconds int `koanf:"future_skew_seconds" mapstructure:"future_skew_seconds"`
}

func (c WebhookConfig) Tolerance() time.Duration {
	return time.Duration(c.ToleranceSeconds) * time.Second
}

func (c WebhookConfig) FutureSkew() time.Duration {
	return time.Duration(c.FutureSkewSeconds) * time.Second
}

type CheckoutConfig struct {
	AllowUnverifiedPayees bool   `koanf:"allow_unverified_payees" mapstructure:"allow_unverified_payees"`
	Mode                  string `koanf:"mode" mapstructure:"mode"`
	Quantity              int64  `koanf:"quantity" mapstructure:"quantity"`
}

type OnboardingConfig struct {
	CacheTTLSeconds int `koanf:"cache_ttl_seconds" mapstructure:"cache_ttl_seconds"`
}

func (c OnboardingConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

type Config struct {
	ServiceName string           `koanf:"service_name" mapstructure:"service_name"`
	Fees        FeesConfig       `koanf:"fees" mapstructure:"fees"`
	Webhook     WebhookConfig    `koanf:"webhook" mapstructure:"webhook"`
	Checkout    CheckoutConfig   `koanf:"checkout" mapstructure:"checkout"`
	Onboarding  OnboardingConfig `koanf:"onboarding" mapstructure:"onboarding"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "payments",
		Fees: FeesConfig{
			BasisPoints: defaultFeeBasisPoints,
		},
		Webhook: WebhookConfig{
			ToleranceSeconds:  defaultWebhookToleranceSeconds,
			FutureSkewSeconds: defaultWebhookFutureSkew,
		},
		Checkout: CheckoutConfig{
			Mode:     defaultCheckoutMode,
			Quantity: 1,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Fees.BasisPoints < 0 || c.Fees.BasisPoints > maxBasisPoints {
		return fmt.Errorf("core: fees.basis_points must be within 0..%d", maxBasisPoints)
	}
	if c.Webhook.ToleranceSeconds <= 0 {
		return fmt.Errorf("core: webhook.tolerance_seconds must be positive")
	}
	if c.Webhook.FutureSkewSeconds < 0 {
		return fmt.Errorf("core: webhook.future_skew_seconds must not be negative")
	}
	if strings.TrimSpace(c.Checkout.Mode) == "" {
		return fmt.Errorf("core: checkout.mode is required")
	}
	if c.Checkout.Quantity <= 0 {
		return fmt.Errorf("core: checkout.quantity must be positive")
	}
	if c.Onboarding.CacheTTLSeconds < 0 {
		return fmt.Errorf("core: onboarding.cache_ttl_seconds must not be negative")
	}
	return nil
}
