package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-payments/webhooks"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DeliveryStore keeps one audit row per processor event id. Redeliveries
// bump the attempt counter and overwrite the latest outcome.
type DeliveryStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewDeliveryStore(db *bun.DB) (*DeliveryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &DeliveryStore{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *DeliveryStore) Record(ctx context.Context, in webhooks.DeliveryRecord) (webhooks.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return webhooks.DeliveryRecord{}, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	eventID := strings.TrimSpace(in.EventID)
	if eventID == "" {
		return webhooks.DeliveryRecord{}, fmt.Errorf("sqlstore: event id is required")
	}
	now := s.now()
	if !in.UpdatedAt.IsZero() {
		now = in.UpdatedAt.UTC()
	}
	record := &webhookDeliveryRecord{
		ID:        uuid.NewString(),
		EventID:   eventID,
		EventType: strings.TrimSpace(in.EventType),
		Status:    strings.TrimSpace(in.Status),
		Attempts:  1,
		LastError: strings.TrimSpace(in.LastError),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (event_id) DO UPDATE").
		Set("attempts = ?TableAlias.attempts + 1").
		Set("event_type = EXCLUDED.event_type").
		Set("status = EXCLUDED.status").
		Set("last_error = EXCLUDED.last_error").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return webhooks.DeliveryRecord{}, err
	}
	return s.Get(ctx, eventID)
}

func (s *DeliveryStore) Get(ctx context.Context, eventID string) (webhooks.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return webhooks.DeliveryRecord{}, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	record := &webhookDeliveryRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.event_id = ?", strings.TrimSpace(eventID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webhooks.DeliveryRecord{}, fmt.Errorf("sqlstore: webhook delivery %q not found", eventID)
		}
		return webhooks.DeliveryRecord{}, err
	}
	return record.toDomain(), nil
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
