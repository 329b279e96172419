package core

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusFailed    BookingStatus = "failed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Terminal reports whether no further event may move the booking.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusFailed || s == BookingStatusCancelled
}

// Payment statuses reported by the processor. Values outside this set are
// stored verbatim.
const (
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

type Consultant struct {
	ID          string
	DisplayName string
	Account     *ConnectedAccount
	CreatedAt   time.Time
}

// ExternalAccountID returns the processor account id, or "" when the
// consultant has not registered a connected account yet.
func (c Consultant) ExternalAccountID() string {
	if c.Account == nil {
		return ""
	}
	return strings.TrimSpace(c.Account.ExternalAccountID)
}

type ConnectedAccount struct {
	ConsultantID      string
	ExternalAccountID string
	ChargesEnabled    bool
	PayoutsEnabled    bool
	DetailsSubmitted  bool
	UpdatedAt         time.Time
}

type AccountCapabilities struct {
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

func (c AccountCapabilities) Ready() bool {
	return c.ChargesEnabled && c.PayoutsEnabled && c.DetailsSubmitted
}

func (a ConnectedAccount) Capabilities() AccountCapabilities {
	return AccountCapabilities{
		ChargesEnabled:   a.ChargesEnabled,
		PayoutsEnabled:   a.PayoutsEnabled,
		DetailsSubmitted: a.DetailsSubmitted,
	}
}

type Package struct {
	ID              string
	ConsultantID    string
	Title           string
	Price           int64
	ExternalPriceID string
	IsActive        bool
	CreatedAt       time.Time
}

// Booking is the local record of a confirmed checkout session. AmountTotal is
// the processor's amount at confirmation time, not the current package price.
type Booking struct {
	ID                string
	PackageID         string
	ConsultantID      string
	ExternalSessionID string
	PaymentIntentID   string
	Status            BookingStatus
	PaymentStatus     string
	AmountTotal       int64
	PlatformFee       int64
	PayeeAmount       int64
	Currency          string
	CustomerRef       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BookingTransition moves an existing booking, located by session id or
// payment intent id, to a new state when its current status is in From.
type BookingTransition struct {
	ExternalSessionID string
	PaymentIntentID   string
	From              []BookingStatus
	To                BookingStatus
	PaymentStatus     string
}

// Allows reports whether a booking in the current status may take this
// transition. An empty From admits every non-terminal status.
func (t BookingTransition) Allows(current BookingStatus) bool {
	if len(t.From) == 0 {
		return !current.Terminal()
	}
	for _, status := range t.From {
		if status == current {
			return true
		}
	}
	return false
}

type CheckoutSessionRequest struct {
	PriceRef             string
	Quantity             int64
	Mode                 string
	ClientReferenceID    string
	SuccessURL           string
	CancelURL            string
	Metadata             map[string]string
	ApplicationFeeAmount int64
	DestinationAccountID string
}

type CheckoutSession struct {
	SessionID   string
	RedirectURL string
}

type FeeQuote struct {
	Amount      int64
	PlatformFee int64
	PayeeAmount int64
	BasisPoints int64
}
