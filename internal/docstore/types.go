// Package docstore persists named JSON documents on a durable key-value
// medium. It is the only package allowed to import the infra media.
package docstore

import "ticketdesk/internal/docstore/core"

type (
	// Driver identifies a medium implementation.
	Driver = core.Driver
	// Medium is the raw key-value interface implemented by every driver.
	Medium = core.Medium
)

const (
	DriverMemory     = core.DriverMemory
	DriverFilesystem = core.DriverFilesystem
	DriverSQLite     = core.DriverSQLite
	DriverPostgres   = core.DriverPostgres
	DriverS3         = core.DriverS3
	DriverRedis      = core.DriverRedis
)

var (
	// ErrNotFound is returned by Medium.Get for absent keys.
	ErrNotFound = core.ErrNotFound
	// ErrQuotaExceeded is returned when a write would exceed the storage budget.
	ErrQuotaExceeded = core.ErrQuotaExceeded
)

// Document keys.
const (
	KeyOrganizations    = "app_orgs"
	KeySaaSExpenses     = "app_saas_expenses"
	KeySaaSTransactions = "app_saas_transactions"
	KeyAnnouncements    = "app_announcements"
	KeyUsers            = "app_users"
	KeyEvents           = "app_events"
	KeyTables           = "app_tables"
	KeySales            = "app_sales"
	KeyNotifications    = "app_notifications"
	KeyCurrentUser      = "app_user"

	seenAnnouncementPrefix = "seen_announcement_"
)

// SeenAnnouncementKey returns the flag key recording that announcement id
// was dismissed.
func SeenAnnouncementKey(id string) string { return seenAnnouncementPrefix + id }
