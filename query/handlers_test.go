package query

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-payments/core"
)

type stubOnboardingReader struct {
	ready map[string]bool
}

func (s stubOnboardingReader) VerifyOnboarding(_ context.Context, consultantID string) bool {
	return s.ready[consultantID]
}

type stubBookingReader struct {
	getFn  func(ctx context.Context, sessionID string) (core.Booking, error)
	listFn func(ctx context.Context, consultantID string) ([]core.Booking, error)
}

func (s stubBookingReader) GetBooking(ctx context.Context, sessionID string) (core.Booking, error) {
	return s.getFn(ctx, sessionID)
}

func (s stubBookingReader) ListConsultantBookings(ctx context.Context, consultantID string) ([]core.Booking, error) {
	return s.listFn(ctx, consultantID)
}

type stubFeeQuoter struct {
	fees core.FeeCalculator
}

func (s stubFeeQuoter) QuoteFees(_ context.Context, amount int64) (core.FeeQuote, error) {
	return s.fees.Quote(amount), nil
}

func TestVerifyOnboardingQuery_ReportsReadiness(t *testing.T) {
	qry := NewVerifyOnboardingQuery(stubOnboardingReader{ready: map[string]bool{"con_1": true}})

	status, err := qry.Query(context.Background(), VerifyOnboardingMessage{ConsultantID: "con_1"})
	if err != nil {
		t.Fatalf("query onboarding: %v", err)
	}
	if !status.Ready || status.ConsultantID != "con_1" {
		t.Fatalf("unexpected status %#v", status)
	}
	status, err = qry.Query(context.Background(), VerifyOnboardingMessage{ConsultantID: "con_2"})
	if err != nil {
		t.Fatalf("query onboarding: %v", err)
	}
	if status.Ready {
		t.Fatalf("expected con_2 not ready")
	}
}

func TestBookingQueries_Delegate(t *testing.T) {
	reader := stubBookingReader{
		getFn: func(_ context.Context, sessionID string) (core.Booking, error) {
			if sessionID == "cs_1" {
				return core.Booking{ExternalSessionID: "cs_1", Status: core.BookingStatusCompleted}, nil
			}
			return core.Booking{}, core.NotFound("Booking", sessionID)
		},
		listFn: func(_ context.Context, consultantID string) ([]core.Booking, error) {
			if consultantID != "con_1" {
				t.Fatalf("unexpected consultant %q", consultantID)
			}
			return []core.Booking{{ExternalSessionID: "cs_1"}, {ExternalSessionID: "cs_2"}}, nil
		},
	}

	booking, err := NewGetBookingQuery(reader).Query(context.Background(), GetBookingMessage{SessionID: "cs_1"})
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if booking.Status != core.BookingStatusCompleted {
		t.Fatalf("unexpected booking %#v", booking)
	}
	if _, err := NewGetBookingQuery(reader).Query(context.Background(), GetBookingMessage{SessionID: "cs_x"}); !core.IsKind(err, core.ErrorNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	bookings, err := NewListConsultantBookingsQuery(reader).Query(context.Background(), ListConsultantBookingsMessage{ConsultantID: "con_1"})
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(bookings))
	}
}

func TestQuoteFeesQuery_SplitsAmount(t *testing.T) {
	quote, err := NewQuoteFeesQuery(stubFeeQuoter{fees: core.NewFeeCalculator(1000)}).
		Query(context.Background(), QuoteFeesMessage{Amount: 10000})
	if err != nil {
		t.Fatalf("quote fees: %v", err)
	}
	if quote.PlatformFee != 1000 || quote.PayeeAmount != 9000 || quote.Amount != 10000 {
		t.Fatalf("unexpected quote %#v", quote)
	}
}

func TestMessages_ValidateReturnsRichError(t *testing.T) {
	for name, err := range map[string]error{
		"verify onboarding": (VerifyOnboardingMessage{}).Validate(),
		"get booking":       (GetBookingMessage{}).Validate(),
		"list bookings":     (ListConsultantBookingsMessage{ConsultantID: " "}).Validate(),
		"quote fees":        (QuoteFeesMessage{Amount: -1}).Validate(),
	} {
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) {
			t.Fatalf("%s: expected go-errors envelope, got %T", name, err)
		}
		if rich.TextCode != core.ErrorInvalidArgument {
			t.Fatalf("%s: expected %q text code, got %q", name, core.ErrorInvalidArgument, rich.TextCode)
		}
	}
	if err := (QuoteFeesMessage{Amount: 0}).Validate(); err != nil {
		t.Fatalf("expected zero amount to be valid, got %v", err)
	}
}

func TestQueries_NilDependenciesReturnRichError(t *testing.T) {
	var verify *VerifyOnboardingQuery
	_, err := verify.Query(context.Background(), VerifyOnboardingMessage{ConsultantID: "con_1"})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal go-errors envelope, got %v", err)
	}
	if _, err := NewQuoteFeesQuery(nil).Query(context.Background(), QuoteFeesMessage{}); err == nil {
		t.Fatalf("expected missing quoter error")
	}
}
