package core

import (
	"context"
	"testing"
)

func newTestService(t *testing.T, repo *MemoryBookingRepository) *Service {
	t.Helper()
	svc, err := NewService(DefaultConfig(), WithRepository(repo), WithProcessor(readyProcessor()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestService_GetBooking(t *testing.T) {
	repo := seededRepository()
	svc := newTestService(t, repo)
	ctx := context.Background()

	if _, err := svc.GetBooking(ctx, "cs_1"); !IsKind(err, ErrorNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.GetBooking(ctx, ""); !IsKind(err, ErrorInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}

	if _, _, err := repo.InsertBookingIfAbsent(ctx, Booking{ExternalSessionID: "cs_1", PackageID: "pkg_1", AmountTotal: 5000}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	booking, err := svc.GetBooking(ctx, "cs_1")
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if booking.AmountTotal != 5000 {
		t.Fatalf("unexpected booking %+v", booking)
	}
}

func TestService_ListConsultantBookings(t *testing.T) {
	repo := seededRepository()
	svc := newTestService(t, repo)
	ctx := context.Background()

	for _, sessionID := range []string{"cs_b", "cs_a"} {
		if _, _, err := repo.InsertBookingIfAbsent(ctx, Booking{ExternalSessionID: sessionID, ConsultantID: "con_1"}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if _, _, err := repo.InsertBookingIfAbsent(ctx, Booking{ExternalSessionID: "cs_other", ConsultantID: "con_2"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	bookings, err := svc.ListConsultantBookings(ctx, "con_1")
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("expected two bookings, got %d", len(bookings))
	}
	for _, booking := range bookings {
		if booking.ConsultantID != "con_1" {
			t.Fatalf("unexpected booking %+v", booking)
		}
	}
}

func TestService_QuoteFees(t *testing.T) {
	svc := newTestService(t, seededRepository())
	quote, err := svc.QuoteFees(context.Background(), 5000)
	if err != nil {
		t.Fatalf("quote fees: %v", err)
	}
	if quote.PlatformFee != 500 || quote.PayeeAmount != 4500 {
		t.Fatalf("unexpected quote %+v", quote)
	}
	if _, err := svc.QuoteFees(context.Background(), -1); !IsKind(err, ErrorInvalidArgument) {
		t.Fatalf("expected invalid argument for negative amount, got %v", err)
	}
}
