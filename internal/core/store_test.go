package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"ticketdesk/internal/docstore"
	"ticketdesk/pkg/domain"
)

func newSeededAdapter(t *testing.T, docs map[string]string) *docstore.Adapter {
	t.Helper()
	m := docstore.NewMemory()
	for k, v := range docs {
		if err := m.Set(context.Background(), k, []byte(v)); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}
	return docstore.NewAdapter(m)
}

func TestLoadSeedsEmptyMedium(t *testing.T) {
	store := newTestStore(t)
	_ = store.View(context.Background(), func(v TransactionView) error {
		orgs := v.ListOrganizations()
		if len(orgs) != 1 || orgs[0].ID != domain.DefaultOrganizationID || !orgs[0].IsActive {
			t.Fatalf("expected seed organization, got %+v", orgs)
		}
		users := v.ListUsers()
		if len(users) != 2 {
			t.Fatalf("expected demo admin and super-admin, got %d users", len(users))
		}
		if users[0].ID != DemoAdminID || users[0].OrganizationID != domain.DefaultOrganizationID {
			t.Fatalf("unexpected demo admin %+v", users[0])
		}
		if users[1].ID != SuperAdminID || !users[1].IsSuperAdmin() || len(users[1].Permissions) != len(domain.AllPermissions()) {
			t.Fatalf("unexpected super-admin %+v", users[1])
		}
		if !IsHashed(users[0].PasswordHash) || !IsHashed(users[1].PasswordHash) {
			t.Fatalf("seed credentials must be hashed")
		}
		return nil
	})
}

func TestLoadReassertsSuperAdmin(t *testing.T) {
	adapter := newSeededAdapter(t, map[string]string{
		docstore.KeyUsers: `[
			{"id":"sys-admin","organizationId":"system","username":"root","password":"hacked","name":"Changed","role":"super_admin","permissions":[]},
			{"id":"u-x","organizationId":"org-default","username":"mallory","password":"pw","name":"Mallory","role":"super_admin","permissions":[]},
			{"id":"u-legacy","username":"legacy","password":"pw","name":"Legacy","role":"staff"}
		]`,
	})
	store := newTestStore(t, WithAdapter(adapter))

	_ = store.View(context.Background(), func(v TransactionView) error {
		users := v.ListUsers()
		supers := countWhere(users, func(u User) bool { return u.IsSuperAdmin() })
		if supers != 1 {
			t.Fatalf("expected exactly one super-admin, got %d", supers)
		}
		root, ok := v.FindUser(SuperAdminID)
		if !ok || root.Name != "Sistem Yöneticisi" || root.OrganizationID != domain.SystemOrganizationID {
			t.Fatalf("super-admin not reasserted: %+v", root)
		}
		if store.hasher.Verify(root.PasswordHash, "hacked") {
			t.Fatalf("persisted super-admin password must not survive")
		}
		legacy, ok := v.FindUser("u-legacy")
		if !ok || legacy.OrganizationID != domain.DefaultOrganizationID {
			t.Fatalf("expected legacy user bound to default organization, got %+v", legacy)
		}
		if !IsHashed(legacy.PasswordHash) || !store.hasher.Verify(legacy.PasswordHash, "pw") {
			t.Fatalf("expected cleartext password migrated to bcrypt")
		}
		return nil
	})

	var persisted []User
	if !adapter.Load(context.Background(), docstore.KeyUsers, &persisted, nil) {
		t.Fatalf("expected users document written back")
	}
	for _, u := range persisted {
		if !IsHashed(u.PasswordHash) {
			t.Fatalf("persisted user %s still carries cleartext credentials", u.ID)
		}
	}
}

func TestLoadFallsBackOnCorruptDocuments(t *testing.T) {
	adapter := newSeededAdapter(t, map[string]string{
		docstore.KeyOrganizations: `{not json`,
		docstore.KeyEvents:        `[{"id":"evt-1","name":"Old"}]`,
		docstore.KeyTables:        `null`,
	})
	store := newTestStore(t, WithAdapter(adapter))
	_ = store.View(context.Background(), func(v TransactionView) error {
		orgs := v.ListOrganizations()
		if len(orgs) != 1 || orgs[0].ID != domain.DefaultOrganizationID {
			t.Fatalf("expected seed organization after corrupt document, got %+v", orgs)
		}
		e, ok := v.FindEvent("evt-1")
		if !ok || e.OrganizationID != domain.DefaultOrganizationID || e.Categories == nil {
			t.Fatalf("expected legacy event defaults applied, got %+v", e)
		}
		if v.ListTables() == nil {
			t.Fatalf("expected empty table collection, got nil")
		}
		return nil
	})
}

func TestLoadAcceptsFormDates(t *testing.T) {
	adapter := newSeededAdapter(t, map[string]string{
		docstore.KeyOrganizations: `[
			{"id":"org-default","name":"Demo","subscriptionStatus":"active","isActive":true,"createdAt":"2024-01-01T00:00:00.000Z"},
			{"id":"org-x","name":"Venue X","subscriptionStatus":"active","subscriptionEndDate":"2026-12-31","isActive":true,"createdAt":"2024-06-01T09:00:00.000Z"},
			{"id":"org-y","name":"Venue Y","subscriptionStatus":"active","subscriptionEndDate":"","isActive":true}
		]`,
		docstore.KeyAnnouncements:    `[{"id":"ann-1","title":"Bakım","message":"m","startDate":"2025-01-01","endDate":"2025-12-31","isActive":true,"createdAt":"2024-12-30T10:00:00.000Z"}]`,
		docstore.KeySaaSTransactions: `[{"id":"tr-1","organizationId":"org-x","type":"payment","amount":300,"description":"d","date":"2025-02-01","processedBy":"root"}]`,
		docstore.KeySaaSExpenses:     `[{"id":"exp-1","title":"Sunucu","amount":50,"category":"server","date":""}]`,
		docstore.KeySales:            `[{"id":"s-1","eventId":"evt-1","tableId":"t-1","finalAmount":100,"paidAmount":40,"remainingDebt":60,"promisedPaymentDate":"2025-04-01","qrCode":"QR-1","history":[]}]`,
	})
	store := newTestStore(t, WithAdapter(adapter))

	_ = store.View(context.Background(), func(v TransactionView) error {
		if n := len(v.ListOrganizations()); n != 3 {
			t.Fatalf("expected 3 organizations, got %d", n)
		}
		x, ok := v.FindOrganization("org-x")
		if !ok || x.SubscriptionEndDate == nil || !x.SubscriptionEndDate.Equal(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("org-x end date not decoded: %+v", x)
		}
		if y, ok := v.FindOrganization("org-y"); !ok || y.SubscriptionEndDate != nil {
			t.Fatalf("empty end date must decode as unset: %+v", y)
		}
		anns := v.ListAnnouncements()
		if len(anns) != 1 || !anns[0].ActiveAt(fixedNow) {
			t.Fatalf("announcement not loaded or outside its window: %+v", anns)
		}
		if tr := v.ListSaaSTransactions(); len(tr) != 1 || tr[0].Date.Month() != time.February {
			t.Fatalf("ledger not loaded: %+v", tr)
		}
		if exp := v.ListSaaSExpenses(); len(exp) != 1 || !exp[0].Date.IsZero() {
			t.Fatalf("expenses not loaded: %+v", exp)
		}
		sale, ok := v.FindSale("s-1")
		if !ok || sale.PromisedPaymentDate == nil || sale.PromisedPaymentDate.Month() != time.April {
			t.Fatalf("sale not loaded: %+v", sale)
		}
		return nil
	})
}

func TestLoadDropsUnhashableCredential(t *testing.T) {
	long := strings.Repeat("p", 80)
	adapter := newSeededAdapter(t, map[string]string{
		docstore.KeyUsers: fmt.Sprintf(`[
			{"id":"u-1","organizationId":"org-default","username":"verbose","password":%q,"name":"Verbose","role":"staff","permissions":[]},
			{"id":"u-2","organizationId":"org-default","username":"plain","password":"pw","name":"Plain","role":"staff","permissions":[]}
		]`, long),
	})
	obs, logs := observer.New(zapcore.ErrorLevel)
	store := newTestStore(t, WithAdapter(adapter), WithStoreLogger(zap.New(obs)))

	_ = store.View(context.Background(), func(v TransactionView) error {
		u1, ok := v.FindUser("u-1")
		if !ok || u1.PasswordHash != "" {
			t.Fatalf("expected overlong credential dropped, got %+v", u1)
		}
		u2, ok := v.FindUser("u-2")
		if !ok || !store.hasher.Verify(u2.PasswordHash, "pw") {
			t.Fatalf("expected other users migrated, got %+v", u2)
		}
		return nil
	})
	if logs.FilterMessage("stored credential dropped").Len() != 1 {
		t.Fatalf("expected dropped credential logged, got %v", logs.All())
	}

	svc := NewService(store)
	if _, err := svc.Login(context.Background(), "verbose", long); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRunInTransactionPersistsTouchedCollections(t *testing.T) {
	medium := docstore.NewMemory()
	store := newTestStore(t, WithAdapter(docstore.NewAdapter(medium)))
	ctx := context.Background()

	if _, err := store.RunInTransaction(ctx, func(tx *Transaction) error {
		_, err := tx.CreateEvent(Event{ID: "evt-a", OrganizationID: domain.DefaultOrganizationID, Name: "A"})
		return err
	}); err != nil {
		t.Fatalf("create event: %v", err)
	}
	raw, err := medium.Get(ctx, docstore.KeyEvents)
	if err != nil {
		t.Fatalf("expected events document persisted: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("empty events document")
	}
	if _, err := medium.Get(ctx, docstore.KeyTables); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("untouched collection must not be written, got %v", err)
	}
}

func TestRunInTransactionDiscardsOnBlockingRule(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx *Transaction) error {
		_, err := tx.CreateEvent(Event{ID: "evt-orphan", OrganizationID: "org-missing"})
		return err
	})
	var rv RuleViolationError
	if !errors.As(err, &rv) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	_ = store.View(ctx, func(v TransactionView) error {
		if _, ok := v.FindEvent("evt-orphan"); ok {
			t.Fatalf("blocked transaction must not commit")
		}
		return nil
	})
}

func TestQuotaWarningFiresOnceAndKeepsState(t *testing.T) {
	ctx := context.Background()
	warnings := 0
	medium := docstore.NewQuotaMedium(docstore.NewMemory(), 2048)
	adapter := docstore.NewAdapter(medium, docstore.WithWarning(func(string, error) { warnings++ }))
	store := NewStore(NewDefaultRulesEngine(),
		WithAdapter(adapter),
		WithIDGenerator(&seqIDs{}),
		WithPasswordHasher(NewPasswordHasher(bcrypt.MinCost)),
	)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := 0; i < 40; i++ {
		if _, err := store.RunInTransaction(ctx, func(tx *Transaction) error {
			_, err := tx.CreateEvent(Event{OrganizationID: domain.DefaultOrganizationID, Name: fmt.Sprintf("Event %02d with a long enough name", i)})
			return err
		}); err != nil {
			t.Fatalf("transaction %d: %v", i, err)
		}
	}
	if warnings != 1 {
		t.Fatalf("expected one quota warning, got %d", warnings)
	}
	_ = store.View(ctx, func(v TransactionView) error {
		if n := len(v.ListEvents()); n != 40 {
			t.Fatalf("in-memory state must keep unsaved events, got %d", n)
		}
		return nil
	})
}

func TestNotificationBufferKeepsNewestFifty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		if _, err := store.RunInTransaction(ctx, func(tx *Transaction) error {
			tx.AddNotification(Notification{OrganizationID: domain.DefaultOrganizationID, Title: fmt.Sprintf("n-%d", i), Timestamp: fixedNow.Add(time.Duration(i) * time.Second)})
			return nil
		}); err != nil {
			t.Fatalf("add notification %d: %v", i, err)
		}
	}
	_ = store.View(ctx, func(v TransactionView) error {
		got := v.ListNotifications()
		if len(got) != NotificationLimit {
			t.Fatalf("expected %d notifications, got %d", NotificationLimit, len(got))
		}
		for i, n := range got {
			if want := fmt.Sprintf("n-%d", 59-i); n.Title != want {
				t.Fatalf("position %d: expected %s, got %s", i, want, n.Title)
			}
		}
		return nil
	})
}

func TestUpdateRejectsIDChange(t *testing.T) {
	store := newTestStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx *Transaction) error {
		_, err := tx.UpdateOrganization(domain.DefaultOrganizationID, func(o *Organization) error {
			o.ID = "other"
			return nil
		})
		return err
	})
	if err == nil {
		t.Fatalf("expected id mutation to fail")
	}
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx *Transaction) error {
		_, err := tx.UpdateTable("tbl-missing", func(*Table) error { return nil })
		return err
	})
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
