package core

import (
	"context"
	"fmt"

	"ticketdesk/internal/ident"
	"ticketdesk/internal/sanitize"
	"ticketdesk/pkg/domain"
)

// UserDraft carries the input for a new user, password in clear.
type UserDraft struct {
	OrganizationID string
	Username       string
	Password       string
	Name           string
	Role           domain.Role
	Permissions    []Permission
}

// OrganizationRegistration is the outcome of AddOrganization. Invoice and
// Payment are nil when their amount was not positive.
type OrganizationRegistration struct {
	Organization Organization
	Admin        User
	Invoice      *SaaSTransaction
	Payment      *SaaSTransaction
}

func sanitizeOrganization(o Organization) Organization {
	o.Name = sanitize.String(o.Name)
	o.CommercialTitle = sanitize.String(o.CommercialTitle)
	o.TaxID = sanitize.String(o.TaxID)
	o.TaxOffice = sanitize.String(o.TaxOffice)
	o.Address = sanitize.String(o.Address)
	o.Phone = sanitize.String(o.Phone)
	o.ContactPerson = sanitize.String(o.ContactPerson)
	o.ContactEmail = sanitize.String(o.ContactEmail)
	o.LicensePrice = sanitize.Number(o.LicensePrice)
	o.DiscountValue = sanitize.Number(o.DiscountValue)
	return o
}

// licenseDescription names the invoice line for a registration.
func licenseDescription(list, discount float64) string {
	if discount > 0 {
		return fmt.Sprintf("License fee (list: %.2f - discount: %.2f)", list, discount)
	}
	return "License fee (opening)"
}

// AddOrganization registers a tenant with its first admin and the opening
// ledger entries. Everything commits together or not at all.
func (s *Service) AddOrganization(ctx context.Context, actor User, org Organization, admin UserDraft, initialPayment float64) (OrganizationRegistration, Result, error) {
	var out OrganizationRegistration
	res, err := s.write(ctx, "add_organization", actor, domain.PermManageOrganizations, func(tx *Transaction, actor User) (string, error) {
		org = sanitizeOrganization(org)
		if org.ID == "" {
			org.ID = tx.newID(ident.PrefixOrganization)
		}
		created, err := tx.CreateOrganization(org)
		if err != nil {
			return org.ID, err
		}
		out.Organization = created

		admin.OrganizationID = created.ID
		if admin.Role == "" {
			admin.Role = domain.RoleAdmin
		}
		if admin.Permissions == nil {
			admin.Permissions = domain.TenantAdminPermissions()
		}
		u, err := s.createUser(tx, actor, admin)
		if err != nil {
			return created.ID, err
		}
		out.Admin = u.Public()

		// The ledger is newest first; the invoice must end up above the payment.
		payment := sanitize.Number(initialPayment)
		if payment > 0 {
			tr, err := tx.CreateSaaSTransaction(SaaSTransaction{
				ID:             tx.newID(ident.PrefixPayment),
				OrganizationID: created.ID,
				Type:           domain.TransactionPayment,
				Amount:         payment,
				Description:    "License down payment",
				ProcessedBy:    actor.Name,
			})
			if err != nil {
				return created.ID, err
			}
			out.Payment = &tr
		}
		discount := domain.ResolveDiscount(created.LicensePrice, created.DiscountType, created.DiscountValue)
		if net := domain.NetPrice(created.LicensePrice, created.DiscountType, created.DiscountValue); net > 0 {
			tr, err := tx.CreateSaaSTransaction(SaaSTransaction{
				ID:             tx.newID(ident.PrefixInvoice),
				OrganizationID: created.ID,
				Type:           domain.TransactionInvoice,
				Amount:         net,
				Description:    licenseDescription(created.LicensePrice, discount),
				ProcessedBy:    actor.Name,
			})
			if err != nil {
				return created.ID, err
			}
			out.Invoice = &tr
		}
		return created.ID, nil
	})
	if err != nil {
		return OrganizationRegistration{}, res, err
	}
	return out, res, nil
}

// UpdateOrganization replaces an organization by ID. A missing organization
// is a no-op and returns the zero value.
func (s *Service) UpdateOrganization(ctx context.Context, actor User, org Organization) (Organization, Result, error) {
	var updated Organization
	res, err := s.write(ctx, "update_organization", actor, domain.PermManageOrganizations, func(tx *Transaction, _ User) (string, error) {
		if _, ok := tx.View().FindOrganization(org.ID); !ok {
			return org.ID, nil
		}
		clean := sanitizeOrganization(org)
		var err error
		updated, err = tx.UpdateOrganization(org.ID, func(o *Organization) error {
			createdAt := o.CreatedAt
			*o = clean
			if o.CreatedAt.IsZero() {
				o.CreatedAt = createdAt
			}
			if o.SubscriptionStatus == "" {
				o.SubscriptionStatus = domain.SubscriptionActive
			}
			return nil
		})
		return org.ID, err
	})
	return updated, res, err
}

// DeleteOrganization removes a tenant and everything scoped to it: users,
// events, the tables and sales of those events, ledger entries, and
// notifications. The system organization is protected; a missing
// organization is a no-op.
func (s *Service) DeleteOrganization(ctx context.Context, actor User, orgID string) (Result, error) {
	return s.write(ctx, "delete_organization", actor, domain.PermManageOrganizations, func(tx *Transaction, _ User) (string, error) {
		if orgID == domain.SystemOrganizationID {
			return orgID, ErrProtectedEntity
		}
		view := tx.View()
		if _, ok := view.FindOrganization(orgID); !ok {
			return orgID, nil
		}
		events := make(map[string]struct{})
		for _, e := range view.ListEvents() {
			if e.OrganizationID == orgID {
				events[e.ID] = struct{}{}
			}
		}
		for _, t := range view.ListTables() {
			if _, ok := events[t.EventID]; ok {
				if err := tx.DeleteTable(t.ID); err != nil {
					return orgID, err
				}
			}
		}
		for _, sale := range view.ListSales() {
			if _, ok := events[sale.EventID]; ok {
				if err := tx.DeleteSale(sale.ID); err != nil {
					return orgID, err
				}
			}
		}
		for id := range events {
			if err := tx.DeleteEvent(id); err != nil {
				return orgID, err
			}
		}
		for _, u := range view.ListUsers() {
			if u.OrganizationID == orgID && !u.IsSuperAdmin() {
				if err := tx.DeleteUser(u.ID); err != nil {
					return orgID, err
				}
			}
		}
		for _, t := range view.ListSaaSTransactions() {
			if t.OrganizationID == orgID {
				if err := tx.DeleteSaaSTransaction(t.ID); err != nil {
					return orgID, err
				}
			}
		}
		for _, n := range view.ListNotifications() {
			if n.OrganizationID == orgID {
				if err := tx.DeleteNotification(n.ID); err != nil {
					return orgID, err
				}
			}
		}
		return orgID, tx.DeleteOrganization(orgID)
	})
}

// ListOrganizations returns every organization to super-admins and the
// actor's own organization to everybody else.
func (s *Service) ListOrganizations(ctx context.Context, actor User) ([]Organization, error) {
	var out []Organization
	err := s.read(ctx, "list_organizations", actor, "", func(view TransactionView, actor User) error {
		for _, o := range view.ListOrganizations() {
			if sameTenant(actor, o.ID) {
				out = append(out, o)
			}
		}
		return nil
	})
	return out, err
}
