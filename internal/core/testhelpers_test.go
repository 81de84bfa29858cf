package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ticketdesk/internal/docstore"
)

var fixedNow = time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

// seqIDs issues predictable identifiers.
type seqIDs struct{ n int }

func (g *seqIDs) New(prefix string) string {
	g.n++
	return fmt.Sprintf("%s-%d", prefix, g.n)
}

func (g *seqIDs) QRCode() string {
	g.n++
	return fmt.Sprintf("QR-%08d", g.n)
}

func newTestStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()
	base := []StoreOption{
		WithIDGenerator(&seqIDs{}),
		WithStoreClock(func() time.Time { return fixedNow }),
		WithPasswordHasher(NewPasswordHasher(bcrypt.MinCost)),
	}
	store := NewStore(NewDefaultRulesEngine(), append(base, opts...)...)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load store: %v", err)
	}
	return store
}

// newTestService returns a loaded service and its super-admin.
func newTestService(t *testing.T, opts ...ServiceOption) (*Service, User) {
	t.Helper()
	svc := NewService(newTestStore(t), opts...)
	return svc, mustUser(t, svc, SuperAdminID)
}

func newTestServiceWithAdapter(t *testing.T, a *docstore.Adapter) (*Service, User) {
	t.Helper()
	svc := NewService(newTestStore(t, WithAdapter(a)))
	return svc, mustUser(t, svc, SuperAdminID)
}

func mustUser(t *testing.T, svc *Service, id string) User {
	t.Helper()
	var u User
	var ok bool
	_ = svc.Store().View(context.Background(), func(v TransactionView) error {
		u, ok = v.FindUser(id)
		return nil
	})
	if !ok {
		t.Fatalf("user %s not found", id)
	}
	return u
}

func snapshot(t *testing.T, svc *Service) TransactionView {
	t.Helper()
	var out TransactionView
	_ = svc.Store().View(context.Background(), func(v TransactionView) error {
		out = v
		return nil
	})
	return out
}

// registerTenant creates an organization with an admin named <name>-admin.
func registerTenant(t *testing.T, svc *Service, root User, name string) (Organization, User) {
	t.Helper()
	reg, _, err := svc.AddOrganization(context.Background(), root,
		Organization{Name: name, IsActive: true},
		UserDraft{Username: name + "-admin", Password: "pw", Name: name + " Admin"},
		0,
	)
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return reg.Organization, mustUser(t, svc, reg.Admin.ID)
}

func addStaff(t *testing.T, svc *Service, admin User, username string, perms ...Permission) User {
	t.Helper()
	u, _, err := svc.AddUser(context.Background(), admin, UserDraft{Username: username, Password: "pw", Name: username, Permissions: perms})
	if err != nil {
		t.Fatalf("add user %s: %v", username, err)
	}
	return mustUser(t, svc, u.ID)
}

func addEvent(t *testing.T, svc *Service, actor User, name string) Event {
	t.Helper()
	e, _, err := svc.AddEvent(context.Background(), actor, Event{Name: name, Date: "2025-06-01", Time: "20:00", Venue: "Hall"})
	if err != nil {
		t.Fatalf("add event %s: %v", name, err)
	}
	return e
}

func addCategory(t *testing.T, svc *Service, actor User, eventID string, price float64) Category {
	t.Helper()
	c, _, err := svc.AddCategory(context.Background(), actor, eventID, Category{Name: "VIP", PricePerPerson: price, Color: "#f00"})
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	return c
}

func addTable(t *testing.T, svc *Service, actor User, eventID, categoryID, number string, capacity int) Table {
	t.Helper()
	tbl, _, err := svc.AddTable(context.Background(), actor, Table{EventID: eventID, CategoryID: categoryID, Number: number, Capacity: capacity})
	if err != nil {
		t.Fatalf("add table %s: %v", number, err)
	}
	return tbl
}

func addSale(t *testing.T, svc *Service, actor User, tableID string, final, paid float64) Sale {
	t.Helper()
	s, _, err := svc.AddSale(context.Background(), actor, Sale{
		TableID:       tableID,
		CustomerName:  "Ayse",
		CustomerPhone: "555",
		FinalAmount:   final,
		PaidAmount:    paid,
	})
	if err != nil {
		t.Fatalf("add sale: %v", err)
	}
	return s
}

// venue builds one tenant with an event, a 100-per-person category, and a
// four-seat table.
type venue struct {
	org   Organization
	admin User
	event Event
	cat   Category
	table Table
}

func newVenue(t *testing.T, svc *Service, root User, name string) venue {
	t.Helper()
	org, admin := registerTenant(t, svc, root, name)
	e := addEvent(t, svc, admin, name+" Gala")
	c := addCategory(t, svc, admin, e.ID, 100)
	tbl := addTable(t, svc, admin, e.ID, c.ID, "A-1", 4)
	return venue{org: org, admin: admin, event: e, cat: c, table: tbl}
}

func countWhere[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, v := range items {
		if pred(v) {
			n++
		}
	}
	return n
}
