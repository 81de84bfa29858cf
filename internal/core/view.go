package core

// TransactionView exposes a read-only snapshot of the transactional state to
// rules and service reads. Every accessor returns copies.
type TransactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return TransactionView{state: state}
}

// ListOrganizations returns all organizations.
func (v TransactionView) ListOrganizations() []Organization {
	return cloneSlice(v.state.organizations, cloneOrganization)
}

// ListUsers returns all users, credentials included.
func (v TransactionView) ListUsers() []User { return cloneSlice(v.state.users, cloneUser) }

// ListEvents returns all events.
func (v TransactionView) ListEvents() []Event { return cloneSlice(v.state.events, cloneEvent) }

// ListTables returns all tables.
func (v TransactionView) ListTables() []Table { return cloneSlice(v.state.tables, cloneTable) }

// ListSales returns all sales.
func (v TransactionView) ListSales() []Sale { return cloneSlice(v.state.sales, cloneSale) }

// ListSaaSTransactions returns the platform ledger, newest first.
func (v TransactionView) ListSaaSTransactions() []SaaSTransaction {
	return cloneSlice(v.state.transactions, identity[SaaSTransaction])
}

// ListSaaSExpenses returns platform operating costs, newest first.
func (v TransactionView) ListSaaSExpenses() []SaaSExpense {
	return cloneSlice(v.state.expenses, identity[SaaSExpense])
}

// ListAnnouncements returns announcements, newest first.
func (v TransactionView) ListAnnouncements() []Announcement {
	return cloneSlice(v.state.announcements, identity[Announcement])
}

// ListNotifications returns notifications, newest first.
func (v TransactionView) ListNotifications() []Notification {
	return cloneSlice(v.state.notifications, identity[Notification])
}

func find[T any](items []T, id string, idOf func(T) string, clone func(T) T) (T, bool) {
	if i := indexByID(items, id, idOf); i >= 0 {
		return clone(items[i]), true
	}
	var zero T
	return zero, false
}

// FindOrganization retrieves an organization by ID.
func (v TransactionView) FindOrganization(id string) (Organization, bool) {
	return find(v.state.organizations, id, organizationID, cloneOrganization)
}

// FindUser retrieves a user by ID.
func (v TransactionView) FindUser(id string) (User, bool) {
	return find(v.state.users, id, userID, cloneUser)
}

// FindEvent retrieves an event by ID.
func (v TransactionView) FindEvent(id string) (Event, bool) {
	return find(v.state.events, id, eventID, cloneEvent)
}

// FindTable retrieves a table by ID.
func (v TransactionView) FindTable(id string) (Table, bool) {
	return find(v.state.tables, id, tableID, cloneTable)
}

// FindSale retrieves a sale by ID.
func (v TransactionView) FindSale(id string) (Sale, bool) {
	return find(v.state.sales, id, saleID, cloneSale)
}

// FindSaleByQRCode retrieves the sale carrying code.
func (v TransactionView) FindSaleByQRCode(code string) (Sale, bool) {
	for _, s := range v.state.sales {
		if s.QRCode == code {
			return cloneSale(s), true
		}
	}
	return Sale{}, false
}

// UserName resolves a weak user reference for display.
func (v TransactionView) UserName(id string) string {
	if u, ok := v.FindUser(id); ok {
		return u.Name
	}
	return UnknownName
}

// EventOrganization resolves the tenant of an event; ok is false for
// dangling references.
func (v TransactionView) EventOrganization(id string) (string, bool) {
	if i := indexByID(v.state.events, id, eventID); i >= 0 {
		return v.state.events[i].OrganizationID, true
	}
	return "", false
}

// UnknownName renders a weak reference that no longer resolves.
const UnknownName = "Unknown / Deleted"
