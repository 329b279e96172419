package core

import (
	"context"
	"strings"
)

const MetadataConsultantID = "consultant_id"

type CheckoutOptions struct {
	Mode                  string
	Quantity              int64
	AllowUnverifiedPayees bool
}

// CheckoutSessionFactory creates processor-hosted checkout sessions. It
// writes no local state; a booking only exists once the completed-session
// webhook arrives.
type CheckoutSessionFactory struct {
	repository BookingRepository
	processor  PaymentProcessor
	verifier   OnboardingVerifier
	fees       FeeCalculator
	options    CheckoutOptions
	logger     Logger
}

func NewCheckoutSessionFactory(
	repository BookingRepository,
	processor PaymentProcessor,
	verifier OnboardingVerifier,
	fees FeeCalculator,
	options CheckoutOptions,
	logger Logger,
) *CheckoutSessionFactory {
	if strings.TrimSpace(options.Mode) == "" {
		options.Mode = defaultCheckoutMode
	}
	if options.Quantity <= 0 {
		options.Quantity = 1
	}
	return &CheckoutSessionFactory{
		repository: repository,
		processor:  processor,
		verifier:   verifier,
		fees:       fees,
		options:    options,
		logger:     resolveLogger("payments.checkout", nil, logger),
	}
}

func (f *CheckoutSessionFactory) CreateSession(
	ctx context.Context,
	packageID string,
	consultantID string,
	successURL string,
	cancelURL string,
) (CheckoutSession, error) {
	if f == nil || f.repository == nil || f.processor == nil {
		return CheckoutSession{}, InternalError("checkout session factory is not configured")
	}
	packageID = strings.TrimSpace(packageID)
	consultantID = strings.TrimSpace(consultantID)
	successURL = strings.TrimSpace(successURL)
	cancelURL = strings.TrimSpace(cancelURL)
	for _, arg := range []struct{ field, value string }{
		{"package_id", packageID},
		{"consultant_id", consultantID},
		{"success_url", successURL},
		{"cancel_url", cancelURL},
	} {
		if arg.value == "" {
			return CheckoutSession{}, InvalidArgument(arg.field, arg.field+" is required")
		}
	}

	pkg, err := f.repository.FindPackageByID(ctx, packageID)
	if err != nil {
		if isNotFound(err, ErrPackageNotFound) {
			return CheckoutSession{}, NotFound("Package", packageID)
		}
		return CheckoutSession{}, PersistenceFailed(err, "find_package")
	}
	consultant, err := f.repository.FindConsultantByID(ctx, consultantID)
	if err != nil {
		if isNotFound(err, ErrConsultantNotFound) {
			return CheckoutSession{}, NotFound("Consultant", consultantID)
		}
		return CheckoutSession{}, PersistenceFailed(err, "find_consultant")
	}

	if strings.TrimSpace(pkg.ConsultantID) != consultant.ID {
		return CheckoutSession{}, InvalidArgument("package_id", "package does not belong to consultant")
	}
	if !pkg.IsActive {
		return CheckoutSession{}, PackageInactive(pkg.ID)
	}
	if strings.TrimSpace(pkg.ExternalPriceID) == "" {
		return CheckoutSession{}, InvalidArgument("package_id", "package has no registered price")
	}
	if !f.options.AllowUnverifiedPayees {
		if f.verifier == nil || !f.verifier.Verify(ctx, consultant.ID) {
			return CheckoutSession{}, PayeeNotReady(consultant.ID)
		}
	}

	req := CheckoutSessionRequest{
		PriceRef:          pkg.ExternalPriceID,
		Quantity:          f.options.Quantity,
		Mode:              f.options.Mode,
		ClientReferenceID: pkg.ID,
		SuccessURL:        successURL,
		CancelURL:         cancelURL,
		Metadata: map[string]string{
			MetadataConsultantID: consultant.ID,
		},
	}
	if destination := consultant.ExternalAccountID(); destination != "" {
		req.DestinationAccountID = destination
		req.ApplicationFeeAmount = f.fees.PlatformFee(pkg.Price * f.options.Quantity)
	}

	session, err := f.processor.CreateCheckoutSession(ctx, req)
	if err != nil {
		if kind := ErrorKind(err); kind == ErrorUpstreamTransient || kind == ErrorInvalidArgument {
			return CheckoutSession{}, err
		}
		return CheckoutSession{}, UpstreamTransient(err, "create_checkout_session")
	}

	f.logger.WithContext(ctx).Info("checkout session created",
		"package_id", pkg.ID,
		"consultant_id", consultant.ID,
		"session_id", session.SessionID,
	)
	return session, nil
}
