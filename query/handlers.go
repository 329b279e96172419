package query

import (
	"context"

	"github.com/goliatone/go-payments/core"
)

type OnboardingReader interface {
	VerifyOnboarding(ctx context.Context, consultantID string) bool
}

type BookingReader interface {
	GetBooking(ctx context.Context, sessionID string) (core.Booking, error)
	ListConsultantBookings(ctx context.Context, consultantID string) ([]core.Booking, error)
}

type FeeQuoter interface {
	QuoteFees(ctx context.Context, amount int64) (core.FeeQuote, error)
}

// OnboardingStatus is the readiness answer for one consultant.
type OnboardingStatus struct {
	ConsultantID string
	Ready        bool
}

type VerifyOnboardingQuery struct {
	reader OnboardingReader
}

func NewVerifyOnboardingQuery(reader OnboardingReader) *VerifyOnboardingQuery {
	return &VerifyOnboardingQuery{reader: reader}
}

func (q *VerifyOnboardingQuery) Query(ctx context.Context, msg VerifyOnboardingMessage) (OnboardingStatus, error) {
	if q == nil || q.reader == nil {
		return OnboardingStatus{}, queryDependencyError("query: onboarding reader is required")
	}
	return OnboardingStatus{
		ConsultantID: msg.ConsultantID,
		Ready:        q.reader.VerifyOnboarding(ctx, msg.ConsultantID),
	}, nil
}

type GetBookingQuery struct {
	reader BookingReader
}

func NewGetBookingQuery(reader BookingReader) *GetBookingQuery {
	return &GetBookingQuery{reader: reader}
}

func (q *GetBookingQuery) Query(ctx context.Context, msg GetBookingMessage) (core.Booking, error) {
	if q == nil || q.reader == nil {
		return core.Booking{}, queryDependencyError("query: booking reader is required")
	}
	return q.reader.GetBooking(ctx, msg.SessionID)
}

type ListConsultantBookingsQuery struct {
	reader BookingReader
}

func NewListConsultantBookingsQuery(reader BookingReader) *ListConsultantBookingsQuery {
	return &ListConsultantBookingsQuery{reader: reader}
}

func (q *ListConsultantBookingsQuery) Query(ctx context.Context, msg ListConsultantBookingsMessage) ([]core.Booking, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: booking reader is required")
	}
	return q.reader.ListConsultantBookings(ctx, msg.ConsultantID)
}

type QuoteFeesQuery struct {
	quoter FeeQuoter
}

func NewQuoteFeesQuery(quoter FeeQuoter) *QuoteFeesQuery {
	return &QuoteFeesQuery{quoter: quoter}
}

func (q *QuoteFeesQuery) Query(ctx context.Context, msg QuoteFeesMessage) (core.FeeQuote, error) {
	if q == nil || q.quoter == nil {
		return core.FeeQuote{}, queryDependencyError("query: fee quoter is required")
	}
	return q.quoter.QuoteFees(ctx, msg.Amount)
}
