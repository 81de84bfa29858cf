package core

import (
	"fmt"
	"time"

	"ticketdesk/internal/ident"
	"ticketdesk/pkg/domain"
)

// NotificationLimit caps the system-wide notification buffer.
const NotificationLimit = 50

// helper to record and append change entries.
func (tx *Transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
	tx.dirty[change.Entity] = struct{}{}
}

// Now returns the transaction timestamp.
func (tx *Transaction) Now() time.Time { return tx.now }

// View exposes the in-flight state for reads inside the transaction.
func (tx *Transaction) View() TransactionView { return newTransactionView(&tx.state) }

func (tx *Transaction) newID(prefix string) string { return tx.store.ids.New(prefix) }

func updateIn[T any](tx *Transaction, entity EntityType, items []T, id string, idOf func(T) string, clone func(T) T, mutator func(*T) error) (T, error) {
	var zero T
	i := indexByID(items, id, idOf)
	if i < 0 {
		return zero, ErrNotFound{Entity: entity, ID: id}
	}
	before := clone(items[i])
	current := clone(items[i])
	if err := mutator(&current); err != nil {
		return zero, err
	}
	if idOf(current) != id {
		return zero, fmt.Errorf("%s %s: id is immutable", entity, id)
	}
	items[i] = clone(current)
	tx.recordChange(Change{Entity: entity, Action: ActionUpdate, Before: before, After: clone(current)})
	return clone(current), nil
}

func deleteIn[T any](tx *Transaction, entity EntityType, items []T, id string, idOf func(T) string) ([]T, error) {
	i := indexByID(items, id, idOf)
	if i < 0 {
		return items, ErrNotFound{Entity: entity, ID: id}
	}
	before := items[i]
	tx.recordChange(Change{Entity: entity, Action: ActionDelete, Before: before})
	return removeAt(items, i), nil
}

// CreateOrganization stores a new organization.
func (tx *Transaction) CreateOrganization(o Organization) (Organization, error) {
	if o.ID == "" {
		o.ID = tx.newID(ident.PrefixOrganization)
	}
	if indexByID(tx.state.organizations, o.ID, organizationID) >= 0 {
		return Organization{}, fmt.Errorf("organization %q already exists", o.ID)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = tx.now
	}
	if o.SubscriptionStatus == "" {
		o.SubscriptionStatus = domain.SubscriptionActive
	}
	tx.state.organizations = append(tx.state.organizations, cloneOrganization(o))
	tx.recordChange(Change{Entity: EntityOrganization, Action: ActionCreate, After: cloneOrganization(o)})
	return cloneOrganization(o), nil
}

// UpdateOrganization mutates an organization using the provided mutator function.
func (tx *Transaction) UpdateOrganization(id string, mutator func(*Organization) error) (Organization, error) {
	return updateIn(tx, EntityOrganization, tx.state.organizations, id, organizationID, cloneOrganization, mutator)
}

// DeleteOrganization removes an organization record only; see Service for the cascade.
func (tx *Transaction) DeleteOrganization(id string) error {
	var err error
	tx.state.organizations, err = deleteIn(tx, EntityOrganization, tx.state.organizations, id, organizationID)
	return err
}

// CreateUser stores a new user.
func (tx *Transaction) CreateUser(u User) (User, error) {
	if u.ID == "" {
		u.ID = tx.newID(ident.PrefixUser)
	}
	if indexByID(tx.state.users, u.ID, userID) >= 0 {
		return User{}, fmt.Errorf("user %q already exists", u.ID)
	}
	if u.Permissions == nil {
		u.Permissions = []Permission{}
	}
	tx.state.users = append(tx.state.users, cloneUser(u))
	tx.recordChange(Change{Entity: EntityUser, Action: ActionCreate, After: cloneUser(u)})
	return cloneUser(u), nil
}

// UpdateUser mutates a user.
func (tx *Transaction) UpdateUser(id string, mutator func(*User) error) (User, error) {
	return updateIn(tx, EntityUser, tx.state.users, id, userID, cloneUser, mutator)
}

// DeleteUser removes a user.
func (tx *Transaction) DeleteUser(id string) error {
	var err error
	tx.state.users, err = deleteIn(tx, EntityUser, tx.state.users, id, userID)
	return err
}

// CreateEvent stores a new event.
func (tx *Transaction) CreateEvent(e Event) (Event, error) {
	if e.ID == "" {
		e.ID = tx.newID(ident.PrefixEvent)
	}
	if indexByID(tx.state.events, e.ID, eventID) >= 0 {
		return Event{}, fmt.Errorf("event %q already exists", e.ID)
	}
	if e.Status == "" {
		e.Status = domain.EventActive
	}
	if e.Categories == nil {
		e.Categories = []Category{}
	}
	tx.state.events = append(tx.state.events, cloneEvent(e))
	tx.recordChange(Change{Entity: EntityEvent, Action: ActionCreate, After: cloneEvent(e)})
	return cloneEvent(e), nil
}

// UpdateEvent mutates an event, including its embedded categories.
func (tx *Transaction) UpdateEvent(id string, mutator func(*Event) error) (Event, error) {
	return updateIn(tx, EntityEvent, tx.state.events, id, eventID, cloneEvent, mutator)
}

// DeleteEvent removes an event. Tables and sales referencing it are kept.
func (tx *Transaction) DeleteEvent(id string) error {
	var err error
	tx.state.events, err = deleteIn(tx, EntityEvent, tx.state.events, id, eventID)
	return err
}

// CreateTable stores a new table.
func (tx *Transaction) CreateTable(t Table) (Table, error) {
	if t.ID == "" {
		t.ID = tx.newID(ident.PrefixTable)
	}
	if indexByID(tx.state.tables, t.ID, tableID) >= 0 {
		return Table{}, fmt.Errorf("table %q already exists", t.ID)
	}
	if t.Capacity <= 0 {
		return Table{}, ErrInvalidCapacity
	}
	if t.Status == "" {
		t.Status = domain.TableAvailable
	}
	tx.state.tables = append(tx.state.tables, cloneTable(t))
	tx.recordChange(Change{Entity: EntityTable, Action: ActionCreate, After: cloneTable(t)})
	return cloneTable(t), nil
}

// UpdateTable mutates a table.
func (tx *Transaction) UpdateTable(id string, mutator func(*Table) error) (Table, error) {
	return updateIn(tx, EntityTable, tx.state.tables, id, tableID, cloneTable, func(t *Table) error {
		if err := mutator(t); err != nil {
			return err
		}
		if t.Capacity <= 0 {
			return ErrInvalidCapacity
		}
		return nil
	})
}

// DeleteTable removes a table.
func (tx *Transaction) DeleteTable(id string) error {
	var err error
	tx.state.tables, err = deleteIn(tx, EntityTable, tx.state.tables, id, tableID)
	return err
}

// CreateSale stores a new sale. A missing QR code is generated.
func (tx *Transaction) CreateSale(s Sale) (Sale, error) {
	if s.ID == "" {
		s.ID = tx.newID(ident.PrefixSale)
	}
	if indexByID(tx.state.sales, s.ID, saleID) >= 0 {
		return Sale{}, fmt.Errorf("sale %q already exists", s.ID)
	}
	if s.QRCode == "" {
		s.QRCode = tx.store.ids.QRCode()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = tx.now
	}
	if s.History == nil {
		s.History = []HistoryEntry{}
	}
	tx.state.sales = append(tx.state.sales, cloneSale(s))
	tx.recordChange(Change{Entity: EntitySale, Action: ActionCreate, After: cloneSale(s)})
	return cloneSale(s), nil
}

// UpdateSale mutates a sale.
func (tx *Transaction) UpdateSale(id string, mutator func(*Sale) error) (Sale, error) {
	return updateIn(tx, EntitySale, tx.state.sales, id, saleID, cloneSale, mutator)
}

// DeleteSale removes a sale together with its history.
func (tx *Transaction) DeleteSale(id string) error {
	var err error
	tx.state.sales, err = deleteIn(tx, EntitySale, tx.state.sales, id, saleID)
	return err
}

// CreateSaaSTransaction prepends a ledger entry; the ledger is newest first.
func (tx *Transaction) CreateSaaSTransaction(t SaaSTransaction) (SaaSTransaction, error) {
	if t.ID == "" {
		t.ID = tx.newID(ident.PrefixTransaction)
	}
	if indexByID(tx.state.transactions, t.ID, transactionID) >= 0 {
		return SaaSTransaction{}, fmt.Errorf("transaction %q already exists", t.ID)
	}
	if t.Date.IsZero() {
		t.Date = tx.now
	}
	tx.state.transactions = append([]SaaSTransaction{t}, tx.state.transactions...)
	tx.recordChange(Change{Entity: EntitySaaSTransaction, Action: ActionCreate, After: t})
	return t, nil
}

// DeleteSaaSTransaction removes a ledger entry.
func (tx *Transaction) DeleteSaaSTransaction(id string) error {
	var err error
	tx.state.transactions, err = deleteIn(tx, EntitySaaSTransaction, tx.state.transactions, id, transactionID)
	return err
}

// CreateSaaSExpense prepends an operating cost.
func (tx *Transaction) CreateSaaSExpense(e SaaSExpense) (SaaSExpense, error) {
	if e.ID == "" {
		e.ID = tx.newID(ident.PrefixExpense)
	}
	if e.Date.IsZero() {
		e.Date = tx.now
	}
	if e.Category == "" {
		e.Category = domain.ExpenseOther
	}
	tx.state.expenses = append([]SaaSExpense{e}, tx.state.expenses...)
	tx.recordChange(Change{Entity: EntitySaaSExpense, Action: ActionCreate, After: e})
	return e, nil
}

// DeleteSaaSExpense removes an operating cost.
func (tx *Transaction) DeleteSaaSExpense(id string) error {
	var err error
	tx.state.expenses, err = deleteIn(tx, EntitySaaSExpense, tx.state.expenses, id, expenseID)
	return err
}

// CreateAnnouncement prepends an announcement.
func (tx *Transaction) CreateAnnouncement(a Announcement) (Announcement, error) {
	if a.ID == "" {
		a.ID = tx.newID(ident.PrefixAnnouncement)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = tx.now
	}
	tx.state.announcements = append([]Announcement{a}, tx.state.announcements...)
	tx.recordChange(Change{Entity: EntityAnnouncement, Action: ActionCreate, After: a})
	return a, nil
}

// DeleteAnnouncement removes an announcement. Seen flags are left in place.
func (tx *Transaction) DeleteAnnouncement(id string) error {
	var err error
	tx.state.announcements, err = deleteIn(tx, EntityAnnouncement, tx.state.announcements, id, announcementID)
	return err
}

// AddNotification prepends a notification and drops the oldest entries
// beyond NotificationLimit.
func (tx *Transaction) AddNotification(n Notification) Notification {
	if n.ID == "" {
		n.ID = tx.newID(ident.PrefixNotification)
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = tx.now
	}
	next := append([]Notification{n}, tx.state.notifications...)
	if len(next) > NotificationLimit {
		next = next[:NotificationLimit]
	}
	tx.state.notifications = next
	tx.recordChange(Change{Entity: EntityNotification, Action: ActionCreate, After: n})
	return n
}

// UpdateNotification mutates a notification.
func (tx *Transaction) UpdateNotification(id string, mutator func(*Notification) error) (Notification, error) {
	return updateIn(tx, EntityNotification, tx.state.notifications, id, notificationID, identity[Notification], mutator)
}

// DeleteNotification removes a notification.
func (tx *Transaction) DeleteNotification(id string) error {
	var err error
	tx.state.notifications, err = deleteIn(tx, EntityNotification, tx.state.notifications, id, notificationID)
	return err
}
