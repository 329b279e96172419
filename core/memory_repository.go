package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBookingRepository is a mutex-guarded BookingRepository for tests and
// local wiring. Each instance owns its state.
type MemoryBookingRepository struct {
	mu          sync.Mutex
	bookings    map[string]Booking
	packages    map[string]Package
	consultants map[string]Consultant
	accounts    map[string]ConnectedAccount
	now         func() time.Time
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings:    map[string]Booking{},
		packages:    map[string]Package{},
		consultants: map[string]Consultant{},
		accounts:    map[string]ConnectedAccount{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (r *MemoryBookingRepository) PutPackage(pkg Package) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages[strings.TrimSpace(pkg.ID)] = pkg
}

// PutConsultant stores the consultant and, when present, its connected
// account keyed by external account id.
func (r *MemoryBookingRepository) PutConsultant(consultant Consultant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if consultant.Account != nil {
		account := *consultant.Account
		account.ConsultantID = consultant.ID
		r.accounts[strings.TrimSpace(account.ExternalAccountID)] = account
	}
	consultant.Account = nil
	r.consultants[strings.TrimSpace(consultant.ID)] = consultant
}

func (r *MemoryBookingRepository) FindBookingBySessionID(_ context.Context, sessionID string) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[strings.TrimSpace(sessionID)]
	if !ok {
		return Booking{}, fmt.Errorf("%w: session %q", ErrBookingNotFound, sessionID)
	}
	return booking, nil
}

func (r *MemoryBookingRepository) InsertBookingIfAbsent(_ context.Context, booking Booking) (Booking, bool, error) {
	sessionID := strings.TrimSpace(booking.ExternalSessionID)
	if sessionID == "" {
		return Booking{}, false, fmt.Errorf("core: booking external session id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.bookings[sessionID]; ok {
		return existing, false, nil
	}
	now := r.now()
	if strings.TrimSpace(booking.ID) == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	booking.ExternalSessionID = sessionID
	r.bookings[sessionID] = booking
	return booking, true, nil
}

func (r *MemoryBookingRepository) TransitionBooking(_ context.Context, transition BookingTransition) (Booking, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ""
	if sessionID := strings.TrimSpace(transition.ExternalSessionID); sessionID != "" {
		if _, ok := r.bookings[sessionID]; ok {
			key = sessionID
		}
	} else if intentID := strings.TrimSpace(transition.PaymentIntentID); intentID != "" {
		for sessionID, booking := range r.bookings {
			if booking.PaymentIntentID == intentID {
				key = sessionID
				break
			}
		}
	}
	if key == "" {
		return Booking{}, false, nil
	}
	booking := r.bookings[key]
	if !transition.Allows(booking.Status) {
		return booking, false, nil
	}
	if transition.To != "" {
		booking.Status = transition.To
	}
	if strings.TrimSpace(transition.PaymentStatus) != "" {
		booking.PaymentStatus = transition.PaymentStatus
	}
	booking.UpdatedAt = r.now()
	r.bookings[key] = booking
	return booking, true, nil
}

func (r *MemoryBookingRepository) ListBookingsByConsultant(_ context.Context, consultantID string) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Booking, 0)
	for _, booking := range r.bookings {
		if booking.ConsultantID == strings.TrimSpace(consultantID) {
			out = append(out, booking)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ExternalSessionID < out[j].ExternalSessionID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryBookingRepository) FindPackageByID(_ context.Context, id string) (Package, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pkg, ok := r.packages[strings.TrimSpace(id)]
	if !ok {
		return Package{}, fmt.Errorf("%w: id %q", ErrPackageNotFound, id)
	}
	return pkg, nil
}

func (r *MemoryBookingRepository) FindConsultantByID(_ context.Context, id string) (Consultant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	consultant, ok := r.consultants[strings.TrimSpace(id)]
	if !ok {
		return Consultant{}, fmt.Errorf("%w: id %q", ErrConsultantNotFound, id)
	}
	for _, account := range r.accounts {
		if account.ConsultantID == consultant.ID {
			copied := account
			consultant.Account = &copied
			break
		}
	}
	return consultant, nil
}

func (r *MemoryBookingRepository) UpdateConnectedAccountFlags(
	_ context.Context,
	externalAccountID string,
	flags AccountCapabilities,
) (ConnectedAccount, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.TrimSpace(externalAccountID)
	account, ok := r.accounts[key]
	if !ok {
		return ConnectedAccount{}, false, nil
	}
	account.ChargesEnabled = flags.ChargesEnabled
	account.PayoutsEnabled = flags.PayoutsEnabled
	account.DetailsSubmitted = flags.DetailsSubmitted
	account.UpdatedAt = r.now()
	r.accounts[key] = account
	return account, true, nil
}

// BookingCount returns the number of stored bookings.
func (r *MemoryBookingRepository) BookingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}
