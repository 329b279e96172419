package webhooks

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-payments/core"
)

const (
	DeliveryStatusProcessed = "processed"
	DeliveryStatusDuplicate = "duplicate"
	DeliveryStatusIgnored   = "ignored"
	DeliveryStatusFailed    = "failed"
)

// DeliveryRecord is the audit entry written for every verified delivery.
type DeliveryRecord struct {
	EventID   string
	EventType string
	Status    string
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeliveryLog records outcomes per event id. It is never consulted for
// dedupe; the booking session id is the only idempotency key.
type DeliveryLog interface {
	Record(ctx context.Context, record DeliveryRecord) (DeliveryRecord, error)
}

// Result is the outcome of one delivery. Process never returns an error;
// Error and StatusCode tell the HTTP layer whether the processor should retry.
type Result struct {
	Success    bool
	Error      error
	Duplicate  bool
	EventID    string
	EventType  string
	StatusCode int
	Booking    *core.Booking
}

type Processor struct {
	Verifier    Verifier
	Repository  core.BookingRepository
	Transitions core.BookingTransitioner
	Fees        core.FeeCalculator
	Deliveries  DeliveryLog
	Invalidator core.OnboardingCacheInvalidator
	Observer    core.Observer
	Now         func() time.Time
}

func NewProcessor(verifier Verifier, repository core.BookingRepository, fees core.FeeCalculator) *Processor {
	processor := &Processor{
		Verifier:   verifier,
		Repository: repository,
		Fees:       fees,
		Observer:   core.NewObserver(nil, nil),
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
	if transitions, ok := repository.(core.BookingTransitioner); ok {
		processor.Transitions = transitions
	}
	return processor
}

func (p *Processor) Process(ctx context.Context, payload []byte, signatureHeader string) Result {
	startedAt := time.Now()
	result := p.process(ctx, payload, signatureHeader)
	fields := map[string]any{
		"event_id":   result.EventID,
		"event_type": result.EventType,
		"duplicate":  result.Duplicate,
	}
	if result.Booking != nil {
		fields["session_id"] = result.Booking.ExternalSessionID
	}
	p.observer().Observe(ctx, startedAt, core.OperationProcessWebhook, result.Error, fields)
	return result
}

func (p *Processor) process(ctx context.Context, payload []byte, signatureHeader string) Result {
	if p == nil || p.Verifier == nil || p.Repository == nil {
		return failed(core.InternalError("webhook processor is not configured"))
	}

	if err := p.Verifier.Verify(ctx, payload, signatureHeader); err != nil {
		p.observer().Warn(ctx, "webhook signature rejected", map[string]any{
			"security_event": true,
			"error":          err.Error(),
			"payload_bytes":  len(payload),
		})
		return failed(err)
	}

	event, err := ParseEvent(payload)
	if err != nil {
		result := failed(err)
		if event != nil {
			result.EventID = event.EventID()
			result.EventType = event.EventType()
		}
		p.record(ctx, result)
		return result
	}

	result := p.dispatch(ctx, event)
	result.EventID = event.EventID()
	result.EventType = event.EventType()
	p.record(ctx, result)
	return result
}

func (p *Processor) dispatch(ctx context.Context, event Event) Result {
	switch typed := event.(type) {
	case CheckoutSessionCompleted:
		return p.applyCheckoutCompleted(ctx, typed)
	case AccountUpdated:
		return p.applyAccountUpdated(ctx, typed)
	case CheckoutAsyncPaymentSucceeded:
		return p.applyTransition(ctx, core.BookingTransition{
			ExternalSessionID: typed.SessionID,
			To:                core.BookingStatusCompleted,
			PaymentStatus:     typed.PaymentStatus,
		})
	case CheckoutAsyncPaymentFailed:
		return p.applyTransition(ctx, core.BookingTransition{
			ExternalSessionID: typed.SessionID,
			To:                core.BookingStatusFailed,
			PaymentStatus:     typed.PaymentStatus,
		})
	case ChargeRefunded:
		if !typed.Refunded {
			return ignored()
		}
		return p.applyTransition(ctx, core.BookingTransition{
			PaymentIntentID: typed.PaymentIntentID,
			To:              core.BookingStatusCancelled,
			PaymentStatus:   core.PaymentStatusRefunded,
		})
	default:
		// Expired sessions never produced a booking and unknown types are
		// accepted for forward compatibility.
		return ignored()
	}
}

func (p *Processor) applyCheckoutCompleted(ctx context.Context, event CheckoutSessionCompleted) Result {
	booking := core.Booking{
		PackageID:         event.PackageID,
		ConsultantID:      event.ConsultantID,
		ExternalSessionID: event.SessionID,
		PaymentIntentID:   event.PaymentIntentID,
		Status:            core.BookingStatusCompleted,
		PaymentStatus:     event.PaymentStatus,
		AmountTotal:       event.AmountTotal,
		PlatformFee:       p.Fees.PlatformFee(event.AmountTotal),
		PayeeAmount:       p.Fees.PayeeAmount(event.AmountTotal),
		Currency:          event.Currency,
		CustomerRef:       event.CustomerRef,
	}
	if !event.Created.IsZero() {
		booking.CreatedAt = event.Created
	}

	stored, created, err := p.Repository.InsertBookingIfAbsent(ctx, booking)
	if err != nil {
		return failed(core.PersistenceFailed(err, "insert_booking"))
	}
	return Result{
		Success:    true,
		Duplicate:  !created,
		StatusCode: http.StatusOK,
		Booking:    &stored,
	}
}

func (p *Processor) applyAccountUpdated(ctx context.Context, event AccountUpdated) Result {
	account, tracked, err := p.Repository.UpdateConnectedAccountFlags(ctx, event.AccountID, event.Capabilities)
	if err != nil {
		return failed(core.PersistenceFailed(err, "update_connected_account"))
	}
	if !tracked {
		return ignored()
	}
	if p.Invalidator != nil && strings.TrimSpace(account.ConsultantID) != "" {
		if err := p.Invalidator.Invalidate(ctx, account.ConsultantID); err != nil {
			p.observer().Warn(ctx, "onboarding cache invalidation failed", map[string]any{
				"consultant_id": account.ConsultantID,
				"error":         err.Error(),
			})
		}
	}
	return Result{Success: true, StatusCode: http.StatusOK}
}

// applyTransition succeeds as a no-op when the booking does not exist yet or
// is already terminal. The completed event carries the authoritative snapshot.
func (p *Processor) applyTransition(ctx context.Context, transition core.BookingTransition) Result {
	if p.Transitions == nil {
		return ignored()
	}
	booking, applied, err := p.Transitions.TransitionBooking(ctx, transition)
	if err != nil {
		return failed(core.PersistenceFailed(err, "transition_booking"))
	}
	if !applied {
		return ignored()
	}
	return Result{Success: true, StatusCode: http.StatusOK, Booking: &booking}
}

func (p *Processor) record(ctx context.Context, result Result) {
	if p.Deliveries == nil || strings.TrimSpace(result.EventID) == "" {
		return
	}
	status := DeliveryStatusProcessed
	switch {
	case !result.Success:
		status = DeliveryStatusFailed
	case result.Duplicate:
		status = DeliveryStatusDuplicate
	case result.StatusCode == http.StatusAccepted:
		status = DeliveryStatusIgnored
	}
	record := DeliveryRecord{
		EventID:   result.EventID,
		EventType: result.EventType,
		Status:    status,
		UpdatedAt: p.now(),
	}
	if result.Error != nil {
		record.LastError = result.Error.Error()
	}
	if _, err := p.Deliveries.Record(ctx, record); err != nil {
		p.observer().Warn(ctx, "webhook delivery log write failed", map[string]any{
			"event_id": result.EventID,
			"error":    err.Error(),
		})
	}
}

func (p *Processor) observer() core.Observer {
	if p == nil {
		return core.NewObserver(nil, nil)
	}
	if p.Observer.Logger == nil && p.Observer.Metrics == nil {
		return core.NewObserver(nil, nil)
	}
	return p.Observer
}

func (p *Processor) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func failed(err error) Result {
	return Result{Success: false, Error: err, StatusCode: core.HTTPStatus(err)}
}

// ignored marks a verified event that changed nothing. It is still a
// success; 202 lets the delivery log tell it apart from an applied event.
func ignored() Result {
	return Result{Success: true, StatusCode: http.StatusAccepted}
}
