package core

import (
	"context"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type stubProcessor struct {
	mu           sync.Mutex
	accounts     map[string]AccountCapabilities
	accountErr   error
	session      CheckoutSession
	sessionErr   error
	accountCalls int
	sessionCalls int
	lastRequest  CheckoutSessionRequest
}

func (p *stubProcessor) RetrieveAccount(_ context.Context, externalAccountID string) (AccountCapabilities, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accountCalls++
	if p.accountErr != nil {
		return AccountCapabilities{}, p.accountErr
	}
	return p.accounts[externalAccountID], nil
}

func (p *stubProcessor) CreateCheckoutSession(_ context.Context, req CheckoutSessionRequest) (CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessionCalls++
	p.lastRequest = req
	if p.sessionErr != nil {
		return CheckoutSession{}, p.sessionErr
	}
	return p.session, nil
}

func (p *stubProcessor) calls() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accountCalls, p.sessionCalls
}

type stubVerifier struct {
	ready bool
	calls int
}

func (v *stubVerifier) Verify(context.Context, string) bool {
	v.calls++
	return v.ready
}

// failingRepository answers every lookup with err.
type failingRepository struct {
	*MemoryBookingRepository
	err error
}

func (r failingRepository) FindConsultantByID(context.Context, string) (Consultant, error) {
	return Consultant{}, r.err
}

func (r failingRepository) FindPackageByID(context.Context, string) (Package, error) {
	return Package{}, r.err
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

// seededRepository holds consultant con_1 (acct_1) owning active package
// pkg_1 priced 5000 with price_x.
func seededRepository() *MemoryBookingRepository {
	repo := NewMemoryBookingRepository()
	repo.PutConsultant(Consultant{
		ID:          "con_1",
		DisplayName: "Ada",
		Account: &ConnectedAccount{
			ExternalAccountID: "acct_1",
		},
	})
	repo.PutConsultant(Consultant{ID: "con_2", DisplayName: "Grace"})
	repo.PutPackage(Package{
		ID:              "pkg_1",
		ConsultantID:    "con_1",
		Title:           "Strategy session",
		Price:           5000,
		ExternalPriceID: "price_x",
		IsActive:        true,
	})
	return repo
}

func readyProcessor() *stubProcessor {
	return &stubProcessor{
		accounts: map[string]AccountCapabilities{
			"acct_1": {ChargesEnabled: true, PayoutsEnabled: true, DetailsSubmitted: true},
		},
		session: CheckoutSession{SessionID: "cs_test_1", RedirectURL: "https://checkout.example/cs_test_1"},
	}
}

func newTestCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
