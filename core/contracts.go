package core

import (
	"context"
	"errors"

	glog "github.com/goliatone/go-logger/glog"
)

var (
	ErrBookingNotFound    = errors.New("core: booking not found")
	ErrPackageNotFound    = errors.New("core: package not found")
	ErrConsultantNotFound = errors.New("core: consultant not found")
)

// BookingRepository is the persistence boundary of the payments core.
//
// InsertBookingIfAbsent must be a single atomic conditional write keyed by
// Booking.ExternalSessionID. It returns the stored booking and whether this
// call created it. A check-then-insert pair does not satisfy the contract.
type BookingRepository interface {
	FindBookingBySessionID(ctx context.Context, sessionID string) (Booking, error)
	InsertBookingIfAbsent(ctx context.Context, booking Booking) (Booking, bool, error)
	FindPackageByID(ctx context.Context, id string) (Package, error)
	FindConsultantByID(ctx context.Context, id string) (Consultant, error)
	// UpdateConnectedAccountFlags returns false when no account with the
	// external id is tracked.
	UpdateConnectedAccountFlags(
		ctx context.Context,
		externalAccountID string,
		flags AccountCapabilities,
	) (ConnectedAccount, bool, error)
}

// BookingTransitioner applies guarded status transitions. Returns false when
// the booking is absent or its status does not admit the transition.
type BookingTransitioner interface {
	TransitionBooking(ctx context.Context, transition BookingTransition) (Booking, bool, error)
}

type BookingLister interface {
	ListBookingsByConsultant(ctx context.Context, consultantID string) ([]Booking, error)
}

// PaymentProcessor is the outbound processor API. Timeouts and retries are
// configured on the implementation's transport.
type PaymentProcessor interface {
	RetrieveAccount(ctx context.Context, externalAccountID string) (AccountCapabilities, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (CheckoutSession, error)
}

type OnboardingVerifier interface {
	Verify(ctx context.Context, consultantID string) bool
}

type OnboardingCacheInvalidator interface {
	Invalidate(ctx context.Context, consultantID string) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
