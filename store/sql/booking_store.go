package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-payments/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BookingStore is the bun-backed BookingRepository. Bookings are keyed by
// external_session_id, which carries a unique index; every booking write is
// a single conditional statement.
type BookingStore struct {
	db             *bun.DB
	consultantRepo repository.Repository[*consultantRecord]
	packageRepo    repository.Repository[*packageRecord]
	bookingRepo    repository.Repository[*bookingRecord]
	now            func() time.Time
}

func NewBookingStore(db *bun.DB) (*BookingStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	consultantRepo := repository.NewRepository[*consultantRecord](db, consultantHandlers())
	if validator, ok := consultantRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid consultant repository wiring: %w", err)
		}
	}
	packageRepo := repository.NewRepository[*packageRecord](db, packageHandlers())
	if validator, ok := packageRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid package repository wiring: %w", err)
		}
	}
	bookingRepo := repository.NewRepository[*bookingRecord](db, bookingHandlers())
	if validator, ok := bookingRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid booking repository wiring: %w", err)
		}
	}
	return &BookingStore{
		db:             db,
		consultantRepo: consultantRepo,
		packageRepo:    packageRepo,
		bookingRepo:    bookingRepo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *BookingStore) FindBookingBySessionID(ctx context.Context, sessionID string) (core.Booking, error) {
	if s == nil || s.db == nil {
		return core.Booking{}, fmt.Errorf("sqlstore: booking store is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	record := &bookingRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.external_session_id = ?", sessionID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Booking{}, fmt.Errorf("%w: session %s", core.ErrBookingNotFound, sessionID)
		}
		return core.Booking{}, err
	}
	return record.toDomain(), nil
}

// InsertBookingIfAbsent relies on ON CONFLICT DO NOTHING against the unique
// session index, so concurrent deliveries of one session create one row.
func (s *BookingStore) InsertBookingIfAbsent(ctx context.Context, booking core.Booking) (core.Booking, bool, error) {
	if s == nil || s.db == nil {
		return core.Booking{}, false, fmt.Errorf("sqlstore: booking store is not configured")
	}
	sessionID := strings.TrimSpace(booking.ExternalSessionID)
	if sessionID == "" {
		return core.Booking{}, false, fmt.Errorf("sqlstore: booking external session id is required")
	}
	id := strings.TrimSpace(booking.ID)
	if id == "" {
		id = uuid.NewString()
	}
	record := newBookingRecord(booking, id, s.now())

	result, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (external_session_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		if !isUniqueViolation(err) {
			return core.Booking{}, false, err
		}
		existing, findErr := s.FindBookingBySessionID(ctx, sessionID)
		if findErr != nil {
			return core.Booking{}, false, findErr
		}
		return existing, false, nil
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		existing, findErr := s.FindBookingBySessionID(ctx, sessionID)
		if findErr != nil {
			return core.Booking{}, false, findErr
		}
		return existing, false, nil
	}
	return record.toDomain(), true, nil
}

// TransitionBooking re-checks the source status inside the UPDATE so a
// concurrent transition cannot move a booking out of a terminal state.
func (s *BookingStore) TransitionBooking(ctx context.Context, transition core.BookingTransition) (core.Booking, bool, error) {
	if s == nil || s.db == nil {
		return core.Booking{}, false, fmt.Errorf("sqlstore: booking store is not configured")
	}
	sessionID := strings.TrimSpace(transition.ExternalSessionID)
	intentID := strings.TrimSpace(transition.PaymentIntentID)
	if sessionID == "" && intentID == "" {
		return core.Booking{}, false, fmt.Errorf("sqlstore: session id or payment intent id is required")
	}

	var (
		out     core.Booking
		applied bool
	)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &bookingRecord{}
		query := tx.NewSelect().Model(record)
		if sessionID != "" {
			query = query.Where("?TableAlias.external_session_id = ?", sessionID)
		} else {
			query = query.Where("?TableAlias.payment_intent_id = ?", intentID).
				OrderExpr("?TableAlias.created_at ASC")
		}
		if err := query.Limit(1).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		current := core.BookingStatus(record.Status)
		if !transition.Allows(current) {
			out = record.toDomain()
			return nil
		}

		now := s.now()
		update := tx.NewUpdate().
			Model((*bookingRecord)(nil)).
			Set("status = ?", string(transition.To)).
			Set("updated_at = ?", now).
			Where("id = ?", record.ID).
			Where("status = ?", record.Status)
		paymentStatus := strings.TrimSpace(transition.PaymentStatus)
		if paymentStatus != "" {
			update = update.Set("payment_status = ?", paymentStatus)
		}
		result, err := update.Exec(ctx)
		if err != nil {
			return err
		}
		if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
			return nil
		}

		record.Status = string(transition.To)
		if paymentStatus != "" {
			record.PaymentStatus = paymentStatus
		}
		record.UpdatedAt = now
		out = record.toDomain()
		applied = true
		return nil
	})
	if err != nil {
		return core.Booking{}, false, err
	}
	return out, applied, nil
}

func (s *BookingStore) ListBookingsByConsultant(ctx context.Context, consultantID string) ([]core.Booking, error) {
	if s == nil || s.bookingRepo == nil {
		return nil, fmt.Errorf("sqlstore: booking store is not configured")
	}
	records, _, err := s.bookingRepo.List(ctx,
		repository.SelectBy("consultant_id", "=", strings.TrimSpace(consultantID)),
		repository.OrderBy("created_at ASC"),
		repository.OrderBy("external_session_id ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Booking, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *BookingStore) FindPackageByID(ctx context.Context, id string) (core.Package, error) {
	if s == nil || s.db == nil {
		return core.Package{}, fmt.Errorf("sqlstore: booking store is not configured")
	}
	id = strings.TrimSpace(id)
	record := &packageRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Package{}, fmt.Errorf("%w: %s", core.ErrPackageNotFound, id)
		}
		return core.Package{}, err
	}
	return record.toDomain(), nil
}

// FindConsultantByID attaches the connected account when one is registered.
func (s *BookingStore) FindConsultantByID(ctx context.Context, id string) (core.Consultant, error) {
	if s == nil || s.db == nil {
		return core.Consultant{}, fmt.Errorf("sqlstore: booking store is not configured")
	}
	id = strings.TrimSpace(id)
	record := &consultantRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Consultant{}, fmt.Errorf("%w: %s", core.ErrConsultantNotFound, id)
		}
		return core.Consultant{}, err
	}
	consultant := record.toDomain()

	account, found, err := s.findAccount(ctx, "consultant_id", id)
	if err != nil {
		return core.Consultant{}, err
	}
	if found {
		consultant.Account = &account
	}
	return consultant, nil
}

func (s *BookingStore) UpdateConnectedAccountFlags(
	ctx context.Context,
	externalAccountID string,
	flags core.AccountCapabilities,
) (core.ConnectedAccount, bool, error) {
	if s == nil || s.db == nil {
		return core.ConnectedAccount{}, false, fmt.Errorf("sqlstore: booking store is not configured")
	}
	externalAccountID = strings.TrimSpace(externalAccountID)
	if externalAccountID == "" {
		return core.ConnectedAccount{}, false, nil
	}
	result, err := s.db.NewUpdate().
		Model((*connectedAccountRecord)(nil)).
		Set("charges_enabled = ?", flags.ChargesEnabled).
		Set("payouts_enabled = ?", flags.PayoutsEnabled).
		Set("details_submitted = ?", flags.DetailsSubmitted).
		Set("updated_at = ?", s.now()).
		Where("external_account_id = ?", externalAccountID).
		Exec(ctx)
	if err != nil {
		return core.ConnectedAccount{}, false, err
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		return core.ConnectedAccount{}, false, nil
	}
	return s.findAccount(ctx, "external_account_id", externalAccountID)
}

func (s *BookingStore) CreateConsultant(ctx context.Context, consultant core.Consultant) (core.Consultant, error) {
	if s == nil || s.consultantRepo == nil {
		return core.Consultant{}, fmt.Errorf("sqlstore: booking store is not configured")
	}
	if strings.TrimSpace(consultant.ID) == "" {
		consultant.ID = uuid.NewString()
	}
	created, err := s.consultantRepo.Create(ctx, newConsultantRecord(consultant, s.now()))
	if err != nil {
		return core.Consultant{}, err
	}
	out := created.toDomain()
	if consultant.Account != nil {
		account := *consultant.Account
		account.ConsultantID = out.ID
		stored, err := s.UpsertConnectedAccount(ctx, account)
		if err != nil {
			return core.Consultant{}, err
		}
		out.Account = &stored
	}
	return out, nil
}

// UpsertConnectedAccount registers or replaces the consultant's processor
// account. A consultant holds at most one account.
func (s *BookingStore) UpsertConnectedAccount(ctx context.Context, account core.ConnectedAccount) (core.ConnectedAccount, error) {
	if s == nil || s.db == nil {
		return core.ConnectedAccount{}, fmt.Errorf("sqlstore: booking store is not configured")
	}
	consultantID := strings.TrimSpace(account.ConsultantID)
	externalID := strings.TrimSpace(account.ExternalAccountID)
	if consultantID == "" || externalID == "" {
		return core.ConnectedAccount{}, fmt.Errorf("sqlstore: consultant id and external account id are required")
	}
	now := s.now()
	record := &connectedAccountRecord{
		ID:                uuid.NewString(),
		ConsultantID:      consultantID,
		ExternalAccountID: externalID,
		ChargesEnabled:    account.ChargesEnabled,
		PayoutsEnabled:    account.PayoutsEnabled,
		DetailsSubmitted:  account.DetailsSubmitted,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (consultant_id) DO UPDATE").
		Set("external_account_id = EXCLUDED.external_account_id").
		Set("charges_enabled = EXCLUDED.charges_enabled").
		Set("payouts_enabled = EXCLUDED.payouts_enabled").
		Set("details_submitted = EXCLUDED.details_submitted").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return core.ConnectedAccount{}, err
	}
	stored, found, err := s.findAccount(ctx, "consultant_id", consultantID)
	if err != nil {
		return core.ConnectedAccount{}, err
	}
	if !found {
		return core.ConnectedAccount{}, fmt.Errorf("sqlstore: connected account for %s not persisted", consultantID)
	}
	return stored, nil
}

func (s *BookingStore) CreatePackage(ctx context.Context, pkg core.Package) (core.Package, error) {
	if s == nil || s.packageRepo == nil {
		return core.Package{}, fmt.Errorf("sqlstore: booking store is not configured")
	}
	if strings.TrimSpace(pkg.ConsultantID) == "" {
		return core.Package{}, fmt.Errorf("sqlstore: package consultant id is required")
	}
	if pkg.Price < 0 {
		return core.Package{}, fmt.Errorf("sqlstore: package price must not be negative")
	}
	if strings.TrimSpace(pkg.ID) == "" {
		pkg.ID = uuid.NewString()
	}
	created, err := s.packageRepo.Create(ctx, newPackageRecord(pkg, s.now()))
	if err != nil {
		return core.Package{}, err
	}
	return created.toDomain(), nil
}

func (s *BookingStore) findAccount(ctx context.Context, column string, value string) (core.ConnectedAccount, bool, error) {
	record := &connectedAccountRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ConnectedAccount{}, false, nil
		}
		return core.ConnectedAccount{}, false, err
	}
	return record.toDomain(), true, nil
}
