package payments

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-payments/core"
	"github.com/goliatone/go-payments/webhooks"
)

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Booking = core.Booking

type BookingRepository = core.BookingRepository

type PaymentProcessor = core.PaymentProcessor

type CheckoutSession = core.CheckoutSession

type FeeQuote = core.FeeQuote

var (
	WithLogger             = core.WithLogger
	WithLoggerProvider     = core.WithLoggerProvider
	WithMetricsRecorder    = core.WithMetricsRecorder
	WithErrorMapper        = core.WithErrorMapper
	WithConfigProvider     = core.WithConfigProvider
	WithOptionsResolver    = core.WithOptionsResolver
	WithRepository         = core.WithRepository
	WithProcessor          = core.WithProcessor
	WithOnboardingVerifier = core.WithOnboardingVerifier
	WithOnboardingCache    = core.WithOnboardingCache
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}

// NewWebhookProcessor builds the inbound event processor over the service's
// repository, fee schedule, observer and readiness cache. deliveries may be
// nil.
func NewWebhookProcessor(
	service *Service,
	webhookSecret string,
	deliveries webhooks.DeliveryLog,
) (*webhooks.Processor, error) {
	if service == nil {
		return nil, fmt.Errorf("payments: service is required")
	}
	if strings.TrimSpace(webhookSecret) == "" {
		return nil, fmt.Errorf("payments: webhook secret is required")
	}
	deps := service.Dependencies()
	verifier := webhooks.NewStripeSignatureVerifier(webhookSecret, service.Config().Webhook)
	processor := webhooks.NewProcessor(verifier, deps.Repository, service.Fees())
	processor.Observer = service.Observer()
	processor.Invalidator = deps.CacheInvalidator
	processor.Deliveries = deliveries
	return processor, nil
}
