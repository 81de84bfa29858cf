// Package domain defines the persistent entities, value types, and rule
// evaluation primitives used by ticketdesk.
package domain

import (
	"strings"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityOrganization identifies a tenant record.
	EntityOrganization EntityType = "organization"
	// EntityUser identifies an actor record.
	EntityUser EntityType = "user"
	// EntityEvent identifies an event record (categories are embedded).
	EntityEvent EntityType = "event"
	// EntityTable identifies a sellable table record.
	EntityTable EntityType = "table"
	// EntitySale identifies a ticket sale record.
	EntitySale EntityType = "sale"
	// EntitySaaSTransaction identifies a platform ledger entry.
	EntitySaaSTransaction EntityType = "saas_transaction"
	// EntitySaaSExpense identifies a platform operating cost.
	EntitySaaSExpense EntityType = "saas_expense"
	// EntityAnnouncement identifies a platform announcement.
	EntityAnnouncement EntityType = "announcement"
	// EntityNotification identifies an in-app notification.
	EntityNotification EntityType = "notification"
)

// Well-known organization identifiers.
const (
	// SystemOrganizationID is the pseudo-organization owning the super-admin.
	SystemOrganizationID = "system"
	// DefaultOrganizationID is the seed tenant used for legacy records.
	DefaultOrganizationID = "org-default"
)

// Role classifies an actor.
type Role string

// Actor roles.
const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
)

// SubscriptionStatus describes the commercial state of a tenant.
type SubscriptionStatus string

// Subscription states.
const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// DiscountType selects how a discount value is interpreted.
type DiscountType string

// Discount modes.
const (
	DiscountAmount     DiscountType = "amount"
	DiscountPercentage DiscountType = "percentage"
)

// EventStatus enumerates event lifecycle states.
type EventStatus string

// Event lifecycle states.
const (
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// TableStatus enumerates sellable table states.
type TableStatus string

// Table states.
const (
	TableAvailable TableStatus = "available"
	TableSold      TableStatus = "sold"
	TableReserved  TableStatus = "reserved"
)

// PaymentStatus summarizes how much of a sale has been paid.
type PaymentStatus string

// Payment states.
const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentFull    PaymentStatus = "full"
)

// TransactionType classifies platform ledger entries.
type TransactionType string

// Ledger entry types. Invoices and refunds increase what a tenant owes,
// payments decrease it.
const (
	TransactionInvoice TransactionType = "invoice"
	TransactionPayment TransactionType = "payment"
	TransactionRefund  TransactionType = "refund"
)

// ExpenseCategory classifies platform operating costs.
type ExpenseCategory string

// Expense categories.
const (
	ExpenseServer    ExpenseCategory = "server"
	ExpenseMarketing ExpenseCategory = "marketing"
	ExpenseStaff     ExpenseCategory = "staff"
	ExpenseOther     ExpenseCategory = "other"
)

// NotificationType classifies in-app notifications.
type NotificationType string

// Notification types.
const (
	NotificationSale    NotificationType = "sale"
	NotificationAlert   NotificationType = "alert"
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
)

// Sale history actions.
const (
	HistorySale           = "SALE"
	HistoryEdit           = "EDIT"
	HistoryEntryApproval  = "ENTRY APPROVAL"
	HistoryDebtCollection = "DEBT COLLECTION & ENTRY"
)

// Organization is a tenant of the platform.
type Organization struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	CommercialTitle     string             `json:"commercialTitle,omitempty"`
	TaxID               string             `json:"taxId,omitempty"`
	TaxOffice           string             `json:"taxOffice,omitempty"`
	Address             string             `json:"address,omitempty"`
	Phone               string             `json:"phone,omitempty"`
	ContactPerson       string             `json:"contactPerson,omitempty"`
	ContactEmail        string             `json:"contactEmail,omitempty"`
	SubscriptionStatus  SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionEndDate *time.Time         `json:"subscriptionEndDate,omitempty"`
	LicensePrice        float64            `json:"licensePrice,omitempty"`
	DiscountType        DiscountType       `json:"discountType,omitempty"`
	DiscountValue       float64            `json:"discountValue,omitempty"`
	MaxUsers            int                `json:"maxUsers,omitempty"`
	IsActive            bool               `json:"isActive"`
	CreatedAt           time.Time          `json:"createdAt"`
}

// User is an actor that can authenticate against the store.
type User struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organizationId"`
	Username       string       `json:"username"`
	PasswordHash   string       `json:"password,omitempty"`
	Name           string       `json:"name"`
	Role           Role         `json:"role"`
	Permissions    []Permission `json:"permissions"`
}

// IsSuperAdmin reports whether the user is the platform-wide operator.
func (u User) IsSuperAdmin() bool { return u.Role == RoleSuperAdmin }

// HasPermission reports whether the user carries the capability token.
func (u User) HasPermission(p Permission) bool {
	for _, have := range u.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// Public returns a copy without credential material.
func (u User) Public() User {
	cp := u
	cp.PasswordHash = ""
	cp.Permissions = append([]Permission(nil), u.Permissions...)
	return cp
}

// Category is a price tier owned by an event.
type Category struct {
	ID             string  `json:"id"`
	EventID        string  `json:"eventId"`
	Name           string  `json:"name"`
	PricePerPerson float64 `json:"pricePerPerson"`
	Color          string  `json:"color"`
}

// Event is a ticketed occasion owned by one organization.
type Event struct {
	ID             string      `json:"id"`
	OrganizationID string      `json:"organizationId"`
	Name           string      `json:"name"`
	Organizer      string      `json:"organizer,omitempty"`
	Logo           string      `json:"logo,omitempty"`
	Date           string      `json:"date"`
	Time           string      `json:"time"`
	Venue          string      `json:"venue"`
	Location       string      `json:"location"`
	Status         EventStatus `json:"status"`
	Categories     []Category  `json:"categories"`
}

// FindCategory looks up an embedded category by ID.
func (e Event) FindCategory(id string) (Category, bool) {
	for _, c := range e.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Table is a sellable seating unit of an event. CategoryID is a weak
// reference: the category may have been deleted since.
type Table struct {
	ID         string      `json:"id"`
	EventID    string      `json:"eventId"`
	CategoryID string      `json:"categoryId"`
	Number     string      `json:"number"`
	Capacity   int         `json:"capacity"`
	TotalPrice float64     `json:"totalPrice"`
	Status     TableStatus `json:"status"`
	PositionX  *float64    `json:"positionX,omitempty"`
	PositionY  *float64    `json:"positionY,omitempty"`
}

// NumberKey returns the case-insensitive uniqueness key of the table number.
func (t Table) NumberKey() string { return strings.ToLower(t.Number) }

// HistoryEntry is an append-only audit record on a sale.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	StaffID   string    `json:"staffId"`
	StaffName string    `json:"staffName"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

// Sale is a ticket sold for one table of an event.
type Sale struct {
	ID                  string         `json:"id"`
	EventID             string         `json:"eventId"`
	TableID             string         `json:"tableId"`
	SoldBy              string         `json:"soldBy"`
	CustomerName        string         `json:"customerName"`
	CustomerPhone       string         `json:"customerPhone"`
	CustomerEmail       string         `json:"customerEmail,omitempty"`
	OriginalAmount      float64        `json:"originalAmount"`
	DiscountType        DiscountType   `json:"discountType,omitempty"`
	DiscountValue       float64        `json:"discountValue,omitempty"`
	FinalAmount         float64        `json:"finalAmount"`
	TotalAmount         float64        `json:"totalAmount"`
	PaidAmount          float64        `json:"paidAmount"`
	RemainingDebt       float64        `json:"remainingDebt"`
	PromisedPaymentDate *time.Time     `json:"promisedPaymentDate,omitempty"`
	SalesNote           string         `json:"salesNote,omitempty"`
	PaymentStatus       PaymentStatus  `json:"paymentStatus"`
	QRCode              string         `json:"qrCode"`
	TicketUsed          bool           `json:"ticketUsed"`
	PeopleEntered       int            `json:"peopleEntered"`
	EntryTime           *time.Time     `json:"entryTime,omitempty"`
	EntryNote           string         `json:"entryNote,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	History             []HistoryEntry `json:"history"`
}

// Amount returns the billable amount, honouring legacy records that only
// carried TotalAmount.
func (s Sale) Amount() float64 {
	if s.FinalAmount == 0 && s.TotalAmount != 0 {
		return s.TotalAmount
	}
	return s.FinalAmount
}

// SaaSTransaction is a platform ledger entry between the operator and a tenant.
type SaaSTransaction struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organizationId"`
	Type           TransactionType `json:"type"`
	Amount         float64         `json:"amount"`
	Description    string          `json:"description"`
	Date           time.Time       `json:"date"`
	ProcessedBy    string          `json:"processedBy"`
}

// SaaSExpense is a platform operating cost, not tenant scoped.
type SaaSExpense struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Amount   float64         `json:"amount"`
	Category ExpenseCategory `json:"category"`
	Date     time.Time       `json:"date"`
}

// Announcement is shown to tenant users within its date window.
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// ActiveAt reports whether the announcement is enabled and inside its window.
func (a Announcement) ActiveAt(now time.Time) bool {
	return a.IsActive && !now.Before(a.StartDate) && !now.After(a.EndDate)
}

// Notification is an in-app message scoped to an organization.
type Notification struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organizationId"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	Timestamp      time.Time        `json:"timestamp"`
	IsRead         bool             `json:"isRead"`
	RelatedSaleID  string           `json:"relatedSaleId,omitempty"`
}
