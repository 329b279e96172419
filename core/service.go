package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Service wires the payments components from one resolved Config.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	observer        Observer
	errorMapper     ErrorMapper
	repository      BookingRepository
	processor       PaymentProcessor
	fees            FeeCalculator
	verifier        OnboardingVerifier
	checkout        *CheckoutSessionFactory
	cacheInvalidate OnboardingCacheInvalidator
}

type ServiceDependencies struct {
	Logger             Logger
	LoggerProvider     LoggerProvider
	MetricsRecorder    MetricsRecorder
	Repository         BookingRepository
	Processor          PaymentProcessor
	OnboardingVerifier OnboardingVerifier
	CacheInvalidator   OnboardingCacheInvalidator
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	logger := resolveLogger("payments", builder.loggerProvider, builder.logger)
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.repository == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: booking repository is required"))
	}
	if builder.processor == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: payment processor is required"))
	}

	verifier := builder.verifier
	if verifier == nil {
		verifier = NewAccountOnboardingVerifier(builder.repository, builder.processor, logger)
	}
	var invalidator OnboardingCacheInvalidator
	cache := builder.onboardingCache
	if cache == nil && finalConfig.Onboarding.CacheTTLSeconds > 0 {
		built, cacheErr := NewOnboardingCache(finalConfig.Onboarding.CacheTTL())
		if cacheErr != nil {
			return nil, mapBuildError(builder.errorMapper, cacheErr)
		}
		cache = built
	}
	if cache != nil {
		cached, cacheErr := NewCachedOnboardingVerifier(verifier, cache)
		if cacheErr != nil {
			return nil, mapBuildError(builder.errorMapper, cacheErr)
		}
		verifier = cached
		invalidator = cached
	} else if existing, ok := verifier.(OnboardingCacheInvalidator); ok {
		invalidator = existing
	}

	fees := NewFeeCalculator(finalConfig.Fees.BasisPoints)
	checkout := NewCheckoutSessionFactory(
		builder.repository,
		builder.processor,
		verifier,
		fees,
		CheckoutOptions{
			Mode:                  finalConfig.Checkout.Mode,
			Quantity:              finalConfig.Checkout.Quantity,
			AllowUnverifiedPayees: finalConfig.Checkout.AllowUnverifiedPayees,
		},
		logger,
	)

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  builder.loggerProvider,
		observer:        Observer{Logger: logger, Metrics: builder.metricsRecorder},
		errorMapper:     builder.errorMapper,
		repository:      builder.repository,
		processor:       builder.processor,
		fees:            fees,
		verifier:        verifier,
		checkout:        checkout,
		cacheInvalidate: invalidator,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:             s.logger,
		LoggerProvider:     s.loggerProvider,
		MetricsRecorder:    s.observer.Metrics,
		Repository:         s.repository,
		Processor:          s.processor,
		OnboardingVerifier: s.verifier,
		CacheInvalidator:   s.cacheInvalidate,
	}
}

func (s *Service) Observer() Observer {
	if s == nil {
		return NewObserver(nil, nil)
	}
	return s.observer
}

func (s *Service) Fees() FeeCalculator {
	if s == nil {
		return FeeCalculator{}
	}
	return s.fees
}

func (s *Service) QuoteFees(_ context.Context, amount int64) (FeeQuote, error) {
	if amount < 0 {
		return FeeQuote{}, InvalidArgument("amount", "amount must not be negative")
	}
	return s.Fees().Quote(amount), nil
}

func (s *Service) VerifyOnboarding(ctx context.Context, consultantID string) bool {
	if s == nil || s.verifier == nil {
		return false
	}
	startedAt := time.Now()
	ready := s.verifier.Verify(ctx, consultantID)
	s.observer.Observe(ctx, startedAt, OperationVerifyOnboarding, nil, map[string]any{
		"consultant_id": strings.TrimSpace(consultantID),
		"ready":         ready,
	})
	return ready
}

func (s *Service) CreateCheckoutSession(
	ctx context.Context,
	packageID string,
	consultantID string,
	successURL string,
	cancelURL string,
) (CheckoutSession, error) {
	if s == nil || s.checkout == nil {
		return CheckoutSession{}, InternalError("core: service is not configured")
	}
	startedAt := time.Now()
	session, err := s.checkout.CreateSession(ctx, packageID, consultantID, successURL, cancelURL)
	s.observer.Observe(ctx, startedAt, OperationCreateCheckoutSession, err, map[string]any{
		"package_id":    strings.TrimSpace(packageID),
		"consultant_id": strings.TrimSpace(consultantID),
		"session_id":    session.SessionID,
	})
	return session, err
}

func (s *Service) GetBooking(ctx context.Context, sessionID string) (Booking, error) {
	if s == nil || s.repository == nil {
		return Booking{}, InternalError("core: service is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Booking{}, InvalidArgument("session_id", "session_id is required")
	}
	booking, err := s.repository.FindBookingBySessionID(ctx, sessionID)
	if err != nil {
		if isNotFound(err, ErrBookingNotFound) {
			return Booking{}, NotFound("Booking", sessionID)
		}
		return Booking{}, PersistenceFailed(err, "find_booking")
	}
	return booking, nil
}

func (s *Service) ListConsultantBookings(ctx context.Context, consultantID string) ([]Booking, error) {
	if s == nil || s.repository == nil {
		return nil, InternalError("core: service is not configured")
	}
	consultantID = strings.TrimSpace(consultantID)
	if consultantID == "" {
		return nil, InvalidArgument("consultant_id", "consultant_id is required")
	}
	lister, ok := s.repository.(BookingLister)
	if !ok {
		return nil, InternalError("core: booking repository does not support listing")
	}
	bookings, err := lister.ListBookingsByConsultant(ctx, consultantID)
	if err != nil {
		return nil, PersistenceFailed(err, "list_bookings")
	}
	return bookings, nil
}
