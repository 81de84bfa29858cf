package core

import "time"

// memoryState holds every collection in insertion order. Notifications are
// kept newest first.
type memoryState struct {
	organizations []Organization
	users         []User
	events        []Event
	tables        []Table
	sales         []Sale
	transactions  []SaaSTransaction
	expenses      []SaaSExpense
	announcements []Announcement
	notifications []Notification
}

func newMemoryState() memoryState {
	return memoryState{
		organizations: []Organization{},
		users:         []User{},
		events:        []Event{},
		tables:        []Table{},
		sales:         []Sale{},
		transactions:  []SaaSTransaction{},
		expenses:      []SaaSExpense{},
		announcements: []Announcement{},
		notifications: []Notification{},
	}
}

func (s memoryState) clone() memoryState {
	return memoryState{
		organizations: cloneSlice(s.organizations, cloneOrganization),
		users:         cloneSlice(s.users, cloneUser),
		events:        cloneSlice(s.events, cloneEvent),
		tables:        cloneSlice(s.tables, cloneTable),
		sales:         cloneSlice(s.sales, cloneSale),
		transactions:  cloneSlice(s.transactions, identity[SaaSTransaction]),
		expenses:      cloneSlice(s.expenses, identity[SaaSExpense]),
		announcements: cloneSlice(s.announcements, identity[Announcement]),
		notifications: cloneSlice(s.notifications, identity[Notification]),
	}
}

func cloneSlice[T any](in []T, fn func(T) T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

func identity[T any](v T) T { return v }

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	cp := *f
	return &cp
}

func cloneOrganization(o Organization) Organization {
	cp := o
	cp.SubscriptionEndDate = cloneTime(o.SubscriptionEndDate)
	return cp
}

func cloneUser(u User) User {
	cp := u
	cp.Permissions = append([]Permission(nil), u.Permissions...)
	return cp
}

func cloneEvent(e Event) Event {
	cp := e
	cp.Categories = append([]Category{}, e.Categories...)
	return cp
}

func cloneTable(t Table) Table {
	cp := t
	cp.PositionX = cloneFloat(t.PositionX)
	cp.PositionY = cloneFloat(t.PositionY)
	return cp
}

func cloneSale(s Sale) Sale {
	cp := s
	cp.PromisedPaymentDate = cloneTime(s.PromisedPaymentDate)
	cp.EntryTime = cloneTime(s.EntryTime)
	cp.History = append([]HistoryEntry{}, s.History...)
	return cp
}

func indexByID[T any](items []T, id string, idOf func(T) string) int {
	for i, v := range items {
		if idOf(v) == id {
			return i
		}
	}
	return -1
}

func removeAt[T any](items []T, i int) []T {
	return append(items[:i:i], items[i+1:]...)
}

func organizationID(o Organization) string   { return o.ID }
func userID(u User) string                   { return u.ID }
func eventID(e Event) string                 { return e.ID }
func tableID(t Table) string                 { return t.ID }
func saleID(s Sale) string                   { return s.ID }
func transactionID(t SaaSTransaction) string { return t.ID }
func expenseID(e SaaSExpense) string         { return e.ID }
func announcementID(a Announcement) string   { return a.ID }
func notificationID(n Notification) string   { return n.ID }
