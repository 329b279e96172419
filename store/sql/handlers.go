package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func consultantHandlers() repository.ModelHandlers[*consultantRecord] {
	return repository.ModelHandlers[*consultantRecord]{
		NewRecord: func() *consultantRecord {
			return &consultantRecord{}
		},
		GetID: func(record *consultantRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return recordUUID(record.ID)
		},
		SetID: func(record *consultantRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *consultantRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func connectedAccountHandlers() repository.ModelHandlers[*connectedAccountRecord] {
	return repository.ModelHandlers[*connectedAccountRecord]{
		NewRecord: func() *connectedAccountRecord {
			return &connectedAccountRecord{}
		},
		GetID: func(record *connectedAccountRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return recordUUID(record.ID)
		},
		SetID: func(record *connectedAccountRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *connectedAccountRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func packageHandlers() repository.ModelHandlers[*packageRecord] {
	return repository.ModelHandlers[*packageRecord]{
		NewRecord: func() *packageRecord {
			return &packageRecord{}
		},
		GetID: func(record *packageRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return recordUUID(record.ID)
		},
		SetID: func(record *packageRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *packageRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func bookingHandlers() repository.ModelHandlers[*bookingRecord] {
	return repository.ModelHandlers[*bookingRecord]{
		NewRecord: func() *bookingRecord {
			return &bookingRecord{}
		},
		GetID: func(record *bookingRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return recordUUID(record.ID)
		},
		SetID: func(record *bookingRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *bookingRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func webhookDeliveryHandlers() repository.ModelHandlers[*webhookDeliveryRecord] {
	return repository.ModelHandlers[*webhookDeliveryRecord]{
		NewRecord: func() *webhookDeliveryRecord {
			return &webhookDeliveryRecord{}
		},
		GetID: func(record *webhookDeliveryRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return recordUUID(record.ID)
		},
		SetID: func(record *webhookDeliveryRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *webhookDeliveryRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

// recordUUID maps host-assigned ids such as "con_1" to a stable name-based
// uuid so the repository never replaces them on create.
func recordUUID(value string) uuid.UUID {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil
	}
	if parsed, err := uuid.Parse(trimmed); err == nil {
		return parsed
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
}
