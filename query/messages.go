package query

import "strings"

const (
	TypeVerifyOnboarding       = "payments.query.onboarding.verify"
	TypeGetBooking             = "payments.query.booking.get"
	TypeListConsultantBookings = "payments.query.booking.list_by_consultant"
	TypeQuoteFees              = "payments.query.fees.quote"
)

type VerifyOnboardingMessage struct {
	ConsultantID string
}

func (VerifyOnboardingMessage) Type() string { return TypeVerifyOnboarding }

func (m VerifyOnboardingMessage) Validate() error {
	if strings.TrimSpace(m.ConsultantID) == "" {
		return queryValidationError("consultant_id", "consultant_id is required")
	}
	return nil
}

type GetBookingMessage struct {
	SessionID string
}

func (GetBookingMessage) Type() string { return TypeGetBooking }

func (m GetBookingMessage) Validate() error {
	if strings.TrimSpace(m.SessionID) == "" {
		return queryValidationError("session_id", "session_id is required")
	}
	return nil
}

type ListConsultantBookingsMessage struct {
	ConsultantID string
}

func (ListConsultantBookingsMessage) Type() string { return TypeListConsultantBookings }

func (m ListConsultantBookingsMessage) Validate() error {
	if strings.TrimSpace(m.ConsultantID) == "" {
		return queryValidationError("consultant_id", "consultant_id is required")
	}
	return nil
}

// QuoteFeesMessage asks for the platform/payee split of an amount in minor
// units.
type QuoteFeesMessage struct {
	Amount int64
}

func (QuoteFeesMessage) Type() string { return TypeQuoteFees }

func (m QuoteFeesMessage) Validate() error {
	if m.Amount < 0 {
		return queryValidationError("amount", "amount must not be negative")
	}
	return nil
}
