package domain

// Permission is a named capability granted to an actor independent of role.
type Permission string

// Capability tokens checked by the service guard layer.
const (
	PermViewDashboard       Permission = "VIEW_DASHBOARD"
	PermManageEvents        Permission = "MANAGE_EVENTS"
	PermViewSales           Permission = "VIEW_SALES"
	PermMakeSales           Permission = "MAKE_SALES"
	PermViewCustomers       Permission = "VIEW_CUSTOMERS"
	PermScanTickets         Permission = "SCAN_TICKETS"
	PermManageStaff         Permission = "MANAGE_STAFF"
	PermManageOrganizations Permission = "MANAGE_ORGANIZATIONS"
)

// AllPermissions lists every capability, in display order.
func AllPermissions() []Permission {
	return []Permission{
		PermManageOrganizations,
		PermViewDashboard,
		PermManageEvents,
		PermViewSales,
		PermMakeSales,
		PermViewCustomers,
		PermScanTickets,
		PermManageStaff,
	}
}

// TenantAdminPermissions is the default grant for a tenant's first admin.
func TenantAdminPermissions() []Permission {
	return []Permission{
		PermViewDashboard,
		PermManageEvents,
		PermViewSales,
		PermMakeSales,
		PermViewCustomers,
		PermScanTickets,
		PermManageStaff,
	}
}
