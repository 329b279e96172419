package core

import (
	"context"
	"strings"
)

// AccountOnboardingVerifier reports whether a payee's connected account can
// receive funds. It fails closed: missing records and processor errors yield
// false and are logged, never returned.
type AccountOnboardingVerifier struct {
	repository BookingRepository
	processor  PaymentProcessor
	logger     Logger
}

func NewAccountOnboardingVerifier(
	repository BookingRepository,
	processor PaymentProcessor,
	logger Logger,
) *AccountOnboardingVerifier {
	return &AccountOnboardingVerifier{
		repository: repository,
		processor:  processor,
		logger:     resolveLogger("payments.onboarding", nil, logger),
	}
}

func (v *AccountOnboardingVerifier) Verify(ctx context.Context, consultantID string) bool {
	if v == nil || v.repository == nil || v.processor == nil {
		return false
	}
	consultantID = strings.TrimSpace(consultantID)
	if consultantID == "" {
		return false
	}

	consultant, err := v.repository.FindConsultantByID(ctx, consultantID)
	if err != nil {
		if !isNotFound(err, ErrConsultantNotFound) {
			v.logger.WithContext(ctx).Warn("onboarding lookup failed",
				"consultant_id", consultantID,
				"error", err,
			)
		}
		return false
	}
	externalID := consultant.ExternalAccountID()
	if externalID == "" {
		return false
	}

	capabilities, err := v.processor.RetrieveAccount(ctx, externalID)
	if err != nil {
		v.logger.WithContext(ctx).Warn("connected account retrieval failed",
			"consultant_id", consultantID,
			"external_account_id", externalID,
			"error", err,
		)
		return false
	}
	return capabilities.Ready()
}

var _ OnboardingVerifier = (*AccountOnboardingVerifier)(nil)
