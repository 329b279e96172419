package webhooks

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/goliatone/go-payments/core"
	"github.com/stripe/stripe-go/v80"
)

const (
	EventCheckoutSessionCompleted      = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventCheckoutSessionExpired        = "checkout.session.expired"
	EventAccountUpdated                = "account.updated"
	EventChargeRefunded                = "charge.refunded"
)

// Event is one classified processor notification. The concrete types below
// are the only implementations; anything else decodes to Unrecognized.
type Event interface {
	EventID() string
	EventType() string
	isEvent()
}

type Envelope struct {
	ID      string
	Type    string
	Account string
	Created time.Time
}

func (e Envelope) EventID() string   { return e.ID }
func (e Envelope) EventType() string { return e.Type }
func (Envelope) isEvent()            {}

type CheckoutSessionCompleted struct {
	Envelope
	SessionID       string
	PackageID       string
	ConsultantID    string
	PaymentIntentID string
	PaymentStatus   string
	AmountTotal     int64
	Currency        string
	CustomerRef     string
}

type CheckoutAsyncPaymentSucceeded struct {
	Envelope
	SessionID     string
	PaymentStatus string
}

type CheckoutAsyncPaymentFailed struct {
	Envelope
	SessionID     string
	PaymentStatus string
}

type CheckoutSessionExpired struct {
	Envelope
	SessionID string
}

type AccountUpdated struct {
	Envelope
	AccountID    string
	Capabilities core.AccountCapabilities
}

// ChargeRefunded is only acted on when Refunded is true; partial refunds
// leave the booking untouched.
type ChargeRefunded struct {
	Envelope
	ChargeID        string
	PaymentIntentID string
	Refunded        bool
	AmountRefunded  int64
}

type Unrecognized struct {
	Envelope
}

// ParseEvent decodes a verified payload into its typed event. When a known
// event lacks a required field the partially decoded event is returned with a
// MalformedEvent error so callers can still report its id and type.
func ParseEvent(payload []byte) (Event, error) {
	var raw stripe.Event
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, core.MalformedEvent("", "payload is not a valid event: "+err.Error())
	}
	envelope := Envelope{
		ID:      strings.TrimSpace(raw.ID),
		Type:    strings.TrimSpace(string(raw.Type)),
		Account: strings.TrimSpace(raw.Account),
	}
	if raw.Created > 0 {
		envelope.Created = time.Unix(raw.Created, 0).UTC()
	}
	if envelope.Type == "" {
		return Unrecognized{Envelope: envelope}, core.MalformedEvent("", "event type is required")
	}

	switch envelope.Type {
	case EventCheckoutSessionCompleted:
		session, err := decodeObject[stripe.CheckoutSession](envelope, raw.Data)
		if err != nil {
			return CheckoutSessionCompleted{Envelope: envelope}, err
		}
		return parseCheckoutCompleted(envelope, session)
	case EventCheckoutAsyncPaymentSucceeded, EventCheckoutAsyncPaymentFailed, EventCheckoutSessionExpired:
		session, err := decodeObject[stripe.CheckoutSession](envelope, raw.Data)
		if err != nil {
			return Unrecognized{Envelope: envelope}, err
		}
		sessionID := strings.TrimSpace(session.ID)
		if sessionID == "" {
			return Unrecognized{Envelope: envelope}, core.MalformedEvent(envelope.Type, "session id is required")
		}
		switch envelope.Type {
		case EventCheckoutAsyncPaymentSucceeded:
			return CheckoutAsyncPaymentSucceeded{
				Envelope:      envelope,
				SessionID:     sessionID,
				PaymentStatus: string(session.PaymentStatus),
			}, nil
		case EventCheckoutAsyncPaymentFailed:
			return CheckoutAsyncPaymentFailed{
				Envelope:      envelope,
				SessionID:     sessionID,
				PaymentStatus: string(session.PaymentStatus),
			}, nil
		default:
			return CheckoutSessionExpired{Envelope: envelope, SessionID: sessionID}, nil
		}
	case EventAccountUpdated:
		account, err := decodeObject[stripe.Account](envelope, raw.Data)
		if err != nil {
			return AccountUpdated{Envelope: envelope}, err
		}
		accountID := strings.TrimSpace(account.ID)
		if accountID == "" {
			return AccountUpdated{Envelope: envelope}, core.MalformedEvent(envelope.Type, "account id is required")
		}
		return AccountUpdated{
			Envelope:  envelope,
			AccountID: accountID,
			Capabilities: core.AccountCapabilities{
				ChargesEnabled:   account.ChargesEnabled,
				PayoutsEnabled:   account.PayoutsEnabled,
				DetailsSubmitted: account.DetailsSubmitted,
			},
		}, nil
	case EventChargeRefunded:
		charge, err := decodeObject[stripe.Charge](envelope, raw.Data)
		if err != nil {
			return ChargeRefunded{Envelope: envelope}, err
		}
		event := ChargeRefunded{
			Envelope:       envelope,
			ChargeID:       strings.TrimSpace(charge.ID),
			Refunded:       charge.Refunded,
			AmountRefunded: charge.AmountRefunded,
		}
		if charge.PaymentIntent != nil {
			event.PaymentIntentID = strings.TrimSpace(charge.PaymentIntent.ID)
		}
		if event.PaymentIntentID == "" {
			return event, core.MalformedEvent(envelope.Type, "payment intent is required")
		}
		return event, nil
	default:
		return Unrecognized{Envelope: envelope}, nil
	}
}

func parseCheckoutCompleted(envelope Envelope, session stripe.CheckoutSession) (Event, error) {
	event := CheckoutSessionCompleted{
		Envelope:      envelope,
		SessionID:     strings.TrimSpace(session.ID),
		PackageID:     strings.TrimSpace(session.ClientReferenceID),
		ConsultantID:  strings.TrimSpace(session.Metadata[core.MetadataConsultantID]),
		PaymentStatus: string(session.PaymentStatus),
		AmountTotal:   session.AmountTotal,
		Currency:      string(session.Currency),
		CustomerRef:   customerRef(session),
	}
	if session.PaymentIntent != nil {
		event.PaymentIntentID = strings.TrimSpace(session.PaymentIntent.ID)
	}
	switch {
	case event.SessionID == "":
		return event, core.MalformedEvent(envelope.Type, "session id is required")
	case event.PackageID == "":
		return event, core.MalformedEvent(envelope.Type, "client_reference_id is required")
	case event.ConsultantID == "":
		return event, core.MalformedEvent(envelope.Type, "metadata.consultant_id is required")
	}
	return event, nil
}

// customerRef prefers the processor customer id and falls back to the email
// collected on the session.
func customerRef(session stripe.CheckoutSession) string {
	if session.Customer != nil && strings.TrimSpace(session.Customer.ID) != "" {
		return strings.TrimSpace(session.Customer.ID)
	}
	if session.CustomerDetails != nil && strings.TrimSpace(session.CustomerDetails.Email) != "" {
		return strings.TrimSpace(session.CustomerDetails.Email)
	}
	return strings.TrimSpace(session.CustomerEmail)
}

func decodeObject[T any](envelope Envelope, data *stripe.EventData) (T, error) {
	var out T
	if data == nil || len(data.Raw) == 0 {
		return out, core.MalformedEvent(envelope.Type, "data.object is required")
	}
	if err := json.Unmarshal(data.Raw, &out); err != nil {
		return out, core.MalformedEvent(envelope.Type, "data.object is invalid: "+err.Error())
	}
	return out, nil
}
