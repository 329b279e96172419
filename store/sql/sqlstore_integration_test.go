package sqlstore_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-payments/core"
	paymentmigrations "github.com/goliatone/go-payments/migrations"
	sqlstore "github.com/goliatone/go-payments/store/sql"
	"github.com/goliatone/go-payments/webhooks"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-payments-tests"
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	for _, table := range []string{"consultants", "connected_accounts", "packages", "bookings", "webhook_deliveries"} {
		var tableName string
		if err := client.DB().NewRaw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(context.Background(), &tableName); err != nil {
			t.Fatalf("query sqlite master for %s: %v", table, err)
		}
		if tableName != table {
			t.Fatalf("expected %s table, got %q", table, tableName)
		}
	}
}

func TestBookingStore_SeedAndLookup(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)

	consultant, err := store.FindConsultantByID(ctx, "con_1")
	if err != nil {
		t.Fatalf("find consultant: %v", err)
	}
	if consultant.DisplayName != "Ada" || consultant.ExternalAccountID() != "acct_1" {
		t.Fatalf("unexpected consultant %+v", consultant)
	}
	if !consultant.Account.Capabilities().Ready() {
		t.Fatalf("expected seeded account to be ready, got %+v", consultant.Account)
	}

	bare, err := store.FindConsultantByID(ctx, "con_2")
	if err != nil {
		t.Fatalf("find consultant without account: %v", err)
	}
	if bare.Account != nil || bare.ExternalAccountID() != "" {
		t.Fatalf("expected no account, got %+v", bare.Account)
	}

	pkg, err := store.FindPackageByID(ctx, "pkg_1")
	if err != nil {
		t.Fatalf("find package: %v", err)
	}
	if pkg.ID != "pkg_1" || pkg.Price != 5000 || pkg.ExternalPriceID != "price_x" || !pkg.IsActive {
		t.Fatalf("unexpected package %+v", pkg)
	}
}

func TestBookingStore_NotFoundSentinels(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)

	if _, err := store.FindPackageByID(ctx, "pkg_missing"); !errors.Is(err, core.ErrPackageNotFound) {
		t.Fatalf("expected package not found sentinel, got %v", err)
	}
	if _, err := store.FindConsultantByID(ctx, "con_missing"); !errors.Is(err, core.ErrConsultantNotFound) {
		t.Fatalf("expected consultant not found sentinel, got %v", err)
	}
	if _, err := store.FindBookingBySessionID(ctx, "cs_missing"); !errors.Is(err, core.ErrBookingNotFound) {
		t.Fatalf("expected booking not found sentinel, got %v", err)
	}
}

func TestBookingStore_InsertBookingIfAbsentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)

	first, created, err := store.InsertBookingIfAbsent(ctx, testBooking("cs_abc", 10000))
	if err != nil {
		t.Fatalf("insert booking: %v", err)
	}
	if !created || first.ID == "" {
		t.Fatalf("expected first insert to create booking, got created=%t %+v", created, first)
	}

	second, created, err := store.InsertBookingIfAbsent(ctx, testBooking("cs_abc", 99999))
	if err != nil {
		t.Fatalf("insert duplicate booking: %v", err)
	}
	if created {
		t.Fatalf("expected duplicate insert to report existing row")
	}
	if second.ID != first.ID || second.AmountTotal != 10000 {
		t.Fatalf("expected stored booking unchanged, got %+v", second)
	}

	stored, err := store.FindBookingBySessionID(ctx, "cs_abc")
	if err != nil {
		t.Fatalf("find booking: %v", err)
	}
	if stored.Status != core.BookingStatusCompleted || stored.PaymentStatus != "paid" ||
		stored.Currency != "usd" || stored.CustomerRef != "cus_1" || stored.PlatformFee != 1000 {
		t.Fatalf("unexpected stored booking %+v", stored)
	}
}

func TestBookingStore_ConcurrentInsertsCreateOneRow(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		creates int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := store.InsertBookingIfAbsent(ctx, testBooking("cs_race", 10000))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if created {
				creates++
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected insert errors: %v", errs)
	}
	if creates != 1 {
		t.Fatalf("expected exactly one create, got %d", creates)
	}
	bookings, err := store.ListBookingsByConsultant(ctx, "con_1")
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("expected one booking row, got %d", len(bookings))
	}
}

func TestBookingStore_TransitionBooking(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)

	if _, _, err := store.InsertBookingIfAbsent(ctx, testBooking("cs_1", 5000)); err != nil {
		t.Fatalf("insert booking: %v", err)
	}

	refunded, applied, err := store.TransitionBooking(ctx, core.BookingTransition{
		PaymentIntentID: "pi_cs_1",
		From:            []core.BookingStatus{core.BookingStatusCompleted},
		To:              core.BookingStatusCancelled,
		PaymentStatus:   core.PaymentStatusRefunded,
	})
	if err != nil {
		t.Fatalf("transition booking: %v", err)
	}
	if !applied || refunded.Status != core.BookingStatusCancelled || refunded.PaymentStatus != core.PaymentStatusRefunded {
		t.Fatalf("expected refund transition, got applied=%t %+v", applied, refunded)
	}

	_, applied, err = store.TransitionBooking(ctx, core.BookingTransition{
		ExternalSessionID: "cs_1",
		To:                core.BookingStatusCompleted,
		PaymentStatus:     core.PaymentStatusPaid,
	})
	if err != nil {
		t.Fatalf("transition terminal booking: %v", err)
	}
	if applied {
		t.Fatalf("expected terminal booking to reject transition")
	}
	stored, err := store.FindBookingBySessionID(ctx, "cs_1")
	if err != nil {
		t.Fatalf("find booking: %v", err)
	}
	if stored.Status != core.BookingStatusCancelled {
		t.Fatalf("expected booking to stay cancelled, got %s", stored.Status)
	}

	_, applied, err = store.TransitionBooking(ctx, core.BookingTransition{
		ExternalSessionID: "cs_unknown",
		To:                core.BookingStatusFailed,
	})
	if err != nil {
		t.Fatalf("transition unknown booking: %v", err)
	}
	if applied {
		t.Fatalf("expected unknown booking transition to be a no-op")
	}
}

func TestBookingStore_UpdateConnectedAccountFlags(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)

	account, found, err := store.UpdateConnectedAccountFlags(ctx, "acct_1", core.AccountCapabilities{
		ChargesEnabled: true,
	})
	if err != nil {
		t.Fatalf("update flags: %v", err)
	}
	if !found {
		t.Fatalf("expected tracked account")
	}
	if account.ConsultantID != "con_1" || !account.ChargesEnabled || account.PayoutsEnabled || account.DetailsSubmitted {
		t.Fatalf("unexpected account after update %+v", account)
	}

	consultant, err := store.FindConsultantByID(ctx, "con_1")
	if err != nil {
		t.Fatalf("find consultant: %v", err)
	}
	if consultant.Account.Capabilities().Ready() {
		t.Fatalf("expected persisted flags to be not ready")
	}

	if _, found, err := store.UpdateConnectedAccountFlags(ctx, "acct_untracked", core.AccountCapabilities{}); err != nil || found {
		t.Fatalf("expected untracked account no-op, got found=%t err=%v", found, err)
	}
}

func TestBookingStore_UpsertConnectedAccountReplacesExisting(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.BookingStore()
	seedStore(t, store)

	account, err := store.UpsertConnectedAccount(ctx, core.ConnectedAccount{
		ConsultantID:      "con_1",
		ExternalAccountID: "acct_1b",
	})
	if err != nil {
		t.Fatalf("upsert account: %v", err)
	}
	if account.ExternalAccountID != "acct_1b" || account.ChargesEnabled {
		t.Fatalf("unexpected replaced account %+v", account)
	}
	var count int
	if err := client.DB().NewRaw(
		"SELECT COUNT(*) FROM connected_accounts WHERE consultant_id = ?", "con_1",
	).Scan(ctx, &count); err != nil {
		t.Fatalf("count accounts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one account per consultant, got %d", count)
	}
}

func TestBookingStore_CreatePackageRequiresKnownConsultant(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)

	if _, err := store.CreatePackage(ctx, core.Package{
		ID:           "pkg_orphan",
		ConsultantID: "con_missing",
		Price:        100,
	}); err == nil {
		t.Fatalf("expected foreign key violation for unknown consultant")
	}
	if _, err := store.CreatePackage(ctx, core.Package{ConsultantID: "con_1", Price: -1}); err == nil {
		t.Fatalf("expected negative price error")
	}
}

func TestBookingStore_ListBookingsByConsultant(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)

	for _, sessionID := range []string{"cs_1", "cs_2", "cs_3"} {
		if _, _, err := store.InsertBookingIfAbsent(ctx, testBooking(sessionID, 5000)); err != nil {
			t.Fatalf("insert %s: %v", sessionID, err)
		}
	}
	other := testBooking("cs_other", 5000)
	other.ConsultantID = "con_2"
	if _, _, err := store.InsertBookingIfAbsent(ctx, other); err != nil {
		t.Fatalf("insert other: %v", err)
	}

	bookings, err := store.ListBookingsByConsultant(ctx, "con_1")
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(bookings) != 3 {
		t.Fatalf("expected 3 bookings for con_1, got %d", len(bookings))
	}
	for _, booking := range bookings {
		if booking.ConsultantID != "con_1" {
			t.Fatalf("unexpected consultant in listing %+v", booking)
		}
	}
}

func TestBookingStore_KeepsEventCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)
	memory := core.NewMemoryBookingRepository()

	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	inserts := []struct {
		sessionID string
		createdAt time.Time
	}{
		{sessionID: "cs_a", createdAt: base.Add(2 * time.Hour)},
		{sessionID: "cs_b", createdAt: base},
		{sessionID: "cs_c", createdAt: base.Add(time.Hour)},
	}
	for _, insert := range inserts {
		booking := testBooking(insert.sessionID, 5000)
		booking.CreatedAt = insert.createdAt
		stored, _, err := store.InsertBookingIfAbsent(ctx, booking)
		if err != nil {
			t.Fatalf("insert %s: %v", insert.sessionID, err)
		}
		if !stored.CreatedAt.Equal(insert.createdAt) {
			t.Fatalf("expected created_at %s for %s, got %s", insert.createdAt, insert.sessionID, stored.CreatedAt)
		}
		if _, _, err := memory.InsertBookingIfAbsent(ctx, booking); err != nil {
			t.Fatalf("memory insert %s: %v", insert.sessionID, err)
		}
	}

	loaded, err := store.FindBookingBySessionID(ctx, "cs_b")
	if err != nil {
		t.Fatalf("find booking: %v", err)
	}
	if !loaded.CreatedAt.Equal(base) {
		t.Fatalf("expected created_at %s after reload, got %s", base, loaded.CreatedAt)
	}

	fromSQL, err := store.ListBookingsByConsultant(ctx, "con_1")
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	fromMemory, err := memory.ListBookingsByConsultant(ctx, "con_1")
	if err != nil {
		t.Fatalf("memory list bookings: %v", err)
	}
	want := []string{"cs_b", "cs_c", "cs_a"}
	if len(fromSQL) != len(want) || len(fromMemory) != len(want) {
		t.Fatalf("expected %d bookings, got sql=%d memory=%d", len(want), len(fromSQL), len(fromMemory))
	}
	for i, sessionID := range want {
		if fromSQL[i].ExternalSessionID != sessionID || fromMemory[i].ExternalSessionID != sessionID {
			t.Fatalf("position %d: expected %s, got sql=%s memory=%s",
				i, sessionID, fromSQL[i].ExternalSessionID, fromMemory[i].ExternalSessionID)
		}
		if !fromSQL[i].CreatedAt.Equal(fromMemory[i].CreatedAt) {
			t.Fatalf("created_at mismatch for %s: sql=%s memory=%s",
				sessionID, fromSQL[i].CreatedAt, fromMemory[i].CreatedAt)
		}
	}
}

func TestMigrate_RequiresClient(t *testing.T) {
	if err := sqlstore.Migrate(context.Background(), nil, sqlstore.Config{Driver: "sqlite3"}); err == nil {
		t.Fatalf("expected missing client error")
	}
}

func TestDeliveryStore_RecordCountsAttempts(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	deliveries := factory.DeliveryStore()

	first, err := deliveries.Record(ctx, webhooks.DeliveryRecord{
		EventID:   "evt_1",
		EventType: webhooks.EventCheckoutSessionCompleted,
		Status:    webhooks.DeliveryStatusFailed,
		LastError: "database unavailable",
	})
	if err != nil {
		t.Fatalf("record first delivery: %v", err)
	}
	if first.Attempts != 1 || first.Status != webhooks.DeliveryStatusFailed {
		t.Fatalf("unexpected first record %+v", first)
	}

	second, err := deliveries.Record(ctx, webhooks.DeliveryRecord{
		EventID:   "evt_1",
		EventType: webhooks.EventCheckoutSessionCompleted,
		Status:    webhooks.DeliveryStatusProcessed,
	})
	if err != nil {
		t.Fatalf("record redelivery: %v", err)
	}
	if second.Attempts != 2 || second.Status != webhooks.DeliveryStatusProcessed || second.LastError != "" {
		t.Fatalf("unexpected redelivery record %+v", second)
	}

	if _, err := deliveries.Record(ctx, webhooks.DeliveryRecord{}); err == nil {
		t.Fatalf("expected missing event id error")
	}
}

func TestProcessorWithSQLStore_DuplicateDeliveriesCreateOneBooking(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	seedStore(t, factory.BookingStore())

	verifier := webhooks.NewStripeSignatureVerifier("whsec_test", core.DefaultConfig().Webhook)
	processor := webhooks.NewProcessor(verifier, factory.BookingStore(), core.NewFeeCalculator(1000))
	processor.Deliveries = factory.DeliveryStore()

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_abc","client_reference_id":"pkg_1","metadata":{"consultant_id":"con_1"},"payment_status":"paid","amount_total":10000,"currency":"usd","payment_intent":"pi_1"}}}`)
	header := signatureHeader("whsec_test", time.Now().Unix(), payload)

	for i := 0; i < 2; i++ {
		result := processor.Process(ctx, payload, header)
		if !result.Success {
			t.Fatalf("delivery %d failed: %v", i, result.Error)
		}
		if want := i == 1; result.Duplicate != want {
			t.Fatalf("delivery %d: expected duplicate=%t", i, want)
		}
	}

	booking, err := factory.BookingStore().FindBookingBySessionID(ctx, "cs_abc")
	if err != nil {
		t.Fatalf("find booking: %v", err)
	}
	if booking.AmountTotal != 10000 || booking.PlatformFee != 1000 || booking.PayeeAmount != 9000 {
		t.Fatalf("unexpected booking amounts %+v", booking)
	}
	record, err := factory.DeliveryStore().Get(ctx, "evt_1")
	if err != nil {
		t.Fatalf("get delivery: %v", err)
	}
	if record.Attempts != 2 || record.Status != webhooks.DeliveryStatusDuplicate {
		t.Fatalf("unexpected delivery record %+v", record)
	}
}

func TestRepositoryFactory_ResolvesDBSources(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	fromDB, err := sqlstore.NewRepositoryFactoryFromDB(client.DB())
	if err != nil {
		t.Fatalf("factory from db: %v", err)
	}
	if fromDB.BookingStore() == nil || fromDB.DeliveryStore() == nil || fromDB.DB() == nil {
		t.Fatalf("expected stores from bun db")
	}
	if err := sqlstore.NewRepositoryFactory().BuildStores("not a client"); err == nil {
		t.Fatalf("expected unsupported client type error")
	}
	if err := sqlstore.NewRepositoryFactory().BuildStores(nil); err == nil {
		t.Fatalf("expected missing client error")
	}
}

func TestOpen_RejectsUnsupportedDriver(t *testing.T) {
	if _, err := sqlstore.Open(sqlstore.Config{Driver: "mysql", DSN: "user@/db"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
	if _, err := sqlstore.Open(sqlstore.Config{Driver: "sqlite"}); err == nil {
		t.Fatalf("expected missing dsn error")
	}
	if got := (sqlstore.Config{Driver: "sqlite"}).Dialect(); got != paymentmigrations.DialectSQLite {
		t.Fatalf("expected sqlite dialect, got %q", got)
	}
	if got := (sqlstore.Config{Driver: "postgres"}).Dialect(); got != paymentmigrations.DialectPostgres {
		t.Fatalf("expected postgres dialect, got %q", got)
	}
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	client, err := sqlstore.Open(sqlstore.Config{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:payments-open-%d?mode=memory&cache=shared&_foreign_keys=on", time.Now().UnixNano()),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = client.Close() }()

	if err := sqlstore.Migrate(ctx, client, sqlstore.Config{Driver: "sqlite3"}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if _, err := factory.BookingStore().CreateConsultant(ctx, core.Consultant{ID: "con_open"}); err != nil {
		t.Fatalf("create consultant after migrate: %v", err)
	}
}

func signatureHeader(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", timestamp, payload)))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func testBooking(sessionID string, amount int64) core.Booking {
	fees := core.NewFeeCalculator(1000)
	return core.Booking{
		PackageID:         "pkg_1",
		ConsultantID:      "con_1",
		ExternalSessionID: sessionID,
		PaymentIntentID:   "pi_" + sessionID,
		Status:            core.BookingStatusCompleted,
		PaymentStatus:     core.PaymentStatusPaid,
		AmountTotal:       amount,
		PlatformFee:       fees.PlatformFee(amount),
		PayeeAmount:       fees.PayeeAmount(amount),
		Currency:          "usd",
		CustomerRef:       "cus_1",
	}
}

func newSeededStore(t *testing.T) *sqlstore.BookingStore {
	t.Helper()
	client, cleanup := newSQLiteClient(t)
	t.Cleanup(cleanup)
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.BookingStore()
	seedStore(t, store)
	return store
}

func seedStore(t *testing.T, store *sqlstore.BookingStore) {
	t.Helper()
	ctx := context.Background()
	if _, err := store.CreateConsultant(ctx, core.Consultant{
		ID:          "con_1",
		DisplayName: "Ada",
		Account: &core.ConnectedAccount{
			ExternalAccountID: "acct_1",
			ChargesEnabled:    true,
			PayoutsEnabled:    true,
			DetailsSubmitted:  true,
		},
	}); err != nil {
		t.Fatalf("create consultant con_1: %v", err)
	}
	if _, err := store.CreateConsultant(ctx, core.Consultant{ID: "con_2", DisplayName: "Grace"}); err != nil {
		t.Fatalf("create consultant con_2: %v", err)
	}
	if _, err := store.CreatePackage(ctx, core.Package{
		ID:              "pkg_1",
		ConsultantID:    "con_1",
		Title:           "Strategy session",
		Price:           5000,
		ExternalPriceID: "price_x",
		IsActive:        true,
	}); err != nil {
		t.Fatalf("create package: %v", err)
	}
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:payments-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	schema, err := paymentmigrations.ForDialect(cfg.driver)
	if err != nil {
		_ = client.Close()
		t.Fatalf("resolve migrations: %v", err)
	}
	client.RegisterSQLMigrations(schema.FS)
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}
