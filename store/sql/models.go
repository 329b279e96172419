package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-payments/core"
	"github.com/goliatone/go-payments/webhooks"
	"github.com/uptrace/bun"
)

type consultantRecord struct {
	bun.BaseModel `bun:"table:consultants,alias:c"`

	ID          string    `bun:"id,pk"`
	DisplayName string    `bun:"display_name,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type connectedAccountRecord struct {
	bun.BaseModel `bun:"table:connected_accounts,alias:ca"`

	ID                string    `bun:"id,pk"`
	ConsultantID      string    `bun:"consultant_id,notnull"`
	ExternalAccountID string    `bun:"external_account_id,notnull"`
	ChargesEnabled    bool      `bun:"charges_enabled,notnull"`
	PayoutsEnabled    bool      `bun:"payouts_enabled,notnull"`
	DetailsSubmitted  bool      `bun:"details_submitted,notnull"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type packageRecord struct {
	bun.BaseModel `bun:"table:packages,alias:p"`

	ID              string    `bun:"id,pk"`
	ConsultantID    string    `bun:"consultant_id,notnull"`
	Title           string    `bun:"title,notnull"`
	Price           int64     `bun:"price,notnull"`
	ExternalPriceID string    `bun:"external_price_id,notnull"`
	IsActive        bool      `bun:"is_active,notnull"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type bookingRecord struct {
	bun.BaseModel `bun:"table:bookings,alias:b"`

	ID                string    `bun:"id,pk"`
	PackageID         string    `bun:"package_id,notnull"`
	ConsultantID      string    `bun:"consultant_id,notnull"`
	ExternalSessionID string    `bun:"external_session_id,notnull"`
	PaymentIntentID   string    `bun:"payment_intent_id,notnull"`
	Status            string    `bun:"status,notnull"`
	PaymentStatus     string    `bun:"payment_status,notnull"`
	AmountTotal       int64     `bun:"amount_total,notnull"`
	PlatformFee       int64     `bun:"platform_fee,notnull"`
	PayeeAmount       int64     `bun:"payee_amount,notnull"`
	Currency          string    `bun:"currency,notnull"`
	CustomerRef       string    `bun:"customer_ref,notnull"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type webhookDeliveryRecord struct {
	bun.BaseModel `bun:"table:webhook_deliveries,alias:wd"`

	ID        string    `bun:"id,pk"`
	EventID   string    `bun:"event_id,notnull"`
	EventType string    `bun:"event_type,notnull"`
	Status    string    `bun:"status,notnull"`
	Attempts  int       `bun:"attempts,notnull"`
	LastError string    `bun:"last_error,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newConsultantRecord(in core.Consultant, now time.Time) *consultantRecord {
	created := in.CreatedAt
	if created.IsZero() {
		created = now
	}
	return &consultantRecord{
		ID:          strings.TrimSpace(in.ID),
		DisplayName: strings.TrimSpace(in.DisplayName),
		CreatedAt:   created.UTC(),
		UpdatedAt:   now,
	}
}

func (r *consultantRecord) toDomain() core.Consultant {
	if r == nil {
		return core.Consultant{}
	}
	return core.Consultant{
		ID:          r.ID,
		DisplayName: r.DisplayName,
		CreatedAt:   r.CreatedAt,
	}
}

func (r *connectedAccountRecord) toDomain() core.ConnectedAccount {
	if r == nil {
		return core.ConnectedAccount{}
	}
	return core.ConnectedAccount{
		ConsultantID:      r.ConsultantID,
		ExternalAccountID: r.ExternalAccountID,
		ChargesEnabled:    r.ChargesEnabled,
		PayoutsEnabled:    r.PayoutsEnabled,
		DetailsSubmitted:  r.DetailsSubmitted,
		UpdatedAt:         r.UpdatedAt,
	}
}

func newPackageRecord(in core.Package, now time.Time) *packageRecord {
	created := in.CreatedAt
	if created.IsZero() {
		created = now
	}
	return &packageRecord{
		ID:              strings.TrimSpace(in.ID),
		ConsultantID:    strings.TrimSpace(in.ConsultantID),
		Title:           strings.TrimSpace(in.Title),
		Price:           in.Price,
		ExternalPriceID: strings.TrimSpace(in.ExternalPriceID),
		IsActive:        in.IsActive,
		CreatedAt:       created.UTC(),
		UpdatedAt:       now,
	}
}

func (r *packageRecord) toDomain() core.Package {
	if r == nil {
		return core.Package{}
	}
	return core.Package{
		ID:              r.ID,
		ConsultantID:    r.ConsultantID,
		Title:           r.Title,
		Price:           r.Price,
		ExternalPriceID: r.ExternalPriceID,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
	}
}

func newBookingRecord(in core.Booking, id string, now time.Time) *bookingRecord {
	status := in.Status
	if strings.TrimSpace(string(status)) == "" {
		status = core.BookingStatusCompleted
	}
	created := in.CreatedAt
	if created.IsZero() {
		created = now
	}
	return &bookingRecord{
		ID:                id,
		PackageID:         strings.TrimSpace(in.PackageID),
		ConsultantID:      strings.TrimSpace(in.ConsultantID),
		ExternalSessionID: strings.TrimSpace(in.ExternalSessionID),
		PaymentIntentID:   strings.TrimSpace(in.PaymentIntentID),
		Status:            string(status),
		PaymentStatus:     strings.TrimSpace(in.PaymentStatus),
		AmountTotal:       in.AmountTotal,
		PlatformFee:       in.PlatformFee,
		PayeeAmount:       in.PayeeAmount,
		Currency:          strings.TrimSpace(in.Currency),
		CustomerRef:       strings.TrimSpace(in.CustomerRef),
		CreatedAt:         created.UTC(),
		UpdatedAt:         now,
	}
}

func (r *bookingRecord) toDomain() core.Booking {
	if r == nil {
		return core.Booking{}
	}
	return core.Booking{
		ID:                r.ID,
		PackageID:         r.PackageID,
		ConsultantID:      r.ConsultantID,
		ExternalSessionID: r.ExternalSessionID,
		PaymentIntentID:   r.PaymentIntentID,
		Status:            core.BookingStatus(r.Status),
		PaymentStatus:     r.PaymentStatus,
		AmountTotal:       r.AmountTotal,
		PlatformFee:       r.PlatformFee,
		PayeeAmount:       r.PayeeAmount,
		Currency:          r.Currency,
		CustomerRef:       r.CustomerRef,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func (r *webhookDeliveryRecord) toDomain() webhooks.DeliveryRecord {
	if r == nil {
		return webhooks.DeliveryRecord{}
	}
	return webhooks.DeliveryRecord{
		EventID:   r.EventID,
		EventType: r.EventType,
		Status:    r.Status,
		Attempts:  r.Attempts,
		LastError: r.LastError,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
