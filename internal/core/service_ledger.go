package core

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"ticketdesk/internal/ident"
	"ticketdesk/internal/sanitize"
	"ticketdesk/pkg/domain"
)

// AddSaaSTransaction records a platform ledger entry for a tenant. Entries
// without an organization are rejected and logged.
func (s *Service) AddSaaSTransaction(ctx context.Context, actor User, t SaaSTransaction) (SaaSTransaction, Result, error) {
	var created SaaSTransaction
	res, err := s.write(ctx, "add_saas_transaction", actor, domain.PermManageOrganizations, func(tx *Transaction, actor User) (string, error) {
		if t.OrganizationID == "" {
			s.logger.Error("ledger entry rejected without organization",
				zap.String("type", string(t.Type)),
				zap.Float64("amount", t.Amount),
				zap.String("actor", actor.ID),
			)
			return "", ErrMissingOrganization
		}
		t.Amount = sanitize.Number(t.Amount)
		if t.Amount <= 0 {
			return "", ErrInvalidAmount
		}
		t.ID = tx.newID(ident.PrefixTransaction)
		t.Description = sanitize.String(t.Description)
		t.ProcessedBy = sanitize.String(t.ProcessedBy)
		if t.ProcessedBy == "" {
			t.ProcessedBy = actor.Name
		}
		var err error
		created, err = tx.CreateSaaSTransaction(t)
		return created.ID, err
	})
	return created, res, err
}

// DeleteSaaSTransaction removes a ledger entry. A missing entry is a no-op.
func (s *Service) DeleteSaaSTransaction(ctx context.Context, actor User, id string) (Result, error) {
	return s.write(ctx, "delete_saas_transaction", actor, domain.PermManageOrganizations, func(tx *Transaction, _ User) (string, error) {
		if err := tx.DeleteSaaSTransaction(id); err != nil && !IsNotFound(err) {
			return id, err
		}
		return id, nil
	})
}

// ListSaaSTransactions returns the ledger, newest first.
func (s *Service) ListSaaSTransactions(ctx context.Context, actor User) ([]SaaSTransaction, error) {
	var out []SaaSTransaction
	err := s.read(ctx, "list_saas_transactions", actor, domain.PermManageOrganizations, func(view TransactionView, _ User) error {
		out = view.ListSaaSTransactions()
		return nil
	})
	return out, err
}

// balance folds the ledger of orgID. Invoices and refunds raise what the
// tenant owes, payments lower it.
func balance(entries []SaaSTransaction, orgID string) float64 {
	total := 0.0
	for _, t := range entries {
		if t.OrganizationID != orgID {
			continue
		}
		switch t.Type {
		case domain.TransactionInvoice, domain.TransactionRefund:
			total += t.Amount
		case domain.TransactionPayment:
			total -= t.Amount
		}
	}
	return total
}

// OrganizationBalance returns what orgID owes the platform. Positive means
// the tenant owes, negative means it holds a credit.
func (s *Service) OrganizationBalance(ctx context.Context, actor User, orgID string) (float64, error) {
	var out float64
	err := s.read(ctx, "organization_balance", actor, "", func(view TransactionView, actor User) error {
		if !sameTenant(actor, orgID) {
			return ErrForbidden
		}
		out = balance(view.ListSaaSTransactions(), orgID)
		return nil
	})
	return out, err
}

// AddSaaSExpense records a platform operating cost.
func (s *Service) AddSaaSExpense(ctx context.Context, actor User, e SaaSExpense) (SaaSExpense, Result, error) {
	var created SaaSExpense
	res, err := s.write(ctx, "add_saas_expense", actor, domain.PermManageOrganizations, func(tx *Transaction, _ User) (string, error) {
		e.ID = tx.newID(ident.PrefixExpense)
		e.Title = sanitize.String(e.Title)
		e.Amount = sanitize.Number(e.Amount)
		var err error
		created, err = tx.CreateSaaSExpense(e)
		return created.ID, err
	})
	return created, res, err
}

// DeleteSaaSExpense removes an operating cost. A missing entry is a no-op.
func (s *Service) DeleteSaaSExpense(ctx context.Context, actor User, id string) (Result, error) {
	return s.write(ctx, "delete_saas_expense", actor, domain.PermManageOrganizations, func(tx *Transaction, _ User) (string, error) {
		if err := tx.DeleteSaaSExpense(id); err != nil && !IsNotFound(err) {
			return id, err
		}
		return id, nil
	})
}

// ListSaaSExpenses returns operating costs, newest first.
func (s *Service) ListSaaSExpenses(ctx context.Context, actor User) ([]SaaSExpense, error) {
	var out []SaaSExpense
	err := s.read(ctx, "list_saas_expenses", actor, domain.PermManageOrganizations, func(view TransactionView, _ User) error {
		out = view.ListSaaSExpenses()
		return nil
	})
	return out, err
}

// AddAnnouncement publishes an announcement to tenant users.
func (s *Service) AddAnnouncement(ctx context.Context, actor User, a Announcement) (Announcement, Result, error) {
	var created Announcement
	res, err := s.write(ctx, "add_announcement", actor, domain.PermManageOrganizations, func(tx *Transaction, _ User) (string, error) {
		a.ID = tx.newID(ident.PrefixAnnouncement)
		a.Title = sanitize.String(a.Title)
		a.Message = sanitize.String(a.Message)
		a.CreatedAt = tx.now
		var err error
		created, err = tx.CreateAnnouncement(a)
		return created.ID, err
	})
	return created, res, err
}

// DeleteAnnouncement removes an announcement. Seen flags are kept.
func (s *Service) DeleteAnnouncement(ctx context.Context, actor User, id string) (Result, error) {
	return s.write(ctx, "delete_announcement", actor, domain.PermManageOrganizations, func(tx *Transaction, _ User) (string, error) {
		if err := tx.DeleteAnnouncement(id); err != nil && !IsNotFound(err) {
			return id, err
		}
		return id, nil
	})
}

// ListAnnouncements returns every announcement, newest first.
func (s *Service) ListAnnouncements(ctx context.Context, actor User) ([]Announcement, error) {
	var out []Announcement
	err := s.read(ctx, "list_announcements", actor, "", func(view TransactionView, _ User) error {
		out = view.ListAnnouncements()
		return nil
	})
	return out, err
}

// Notifications returns the notifications of the actor's organization,
// newest first. Super-admins see all of them.
func (s *Service) Notifications(ctx context.Context, actor User) ([]Notification, error) {
	var out []Notification
	err := s.read(ctx, "notifications", actor, "", func(view TransactionView, actor User) error {
		out = []Notification{}
		for _, n := range view.ListNotifications() {
			if sameTenant(actor, n.OrganizationID) {
				out = append(out, n)
			}
		}
		return nil
	})
	return out, err
}

// MarkNotificationRead flags one notification as read. A missing
// notification is a no-op.
func (s *Service) MarkNotificationRead(ctx context.Context, actor User, id string) (Result, error) {
	return s.write(ctx, "mark_notification_read", actor, "", func(tx *Transaction, actor User) (string, error) {
		for _, n := range tx.View().ListNotifications() {
			if n.ID != id {
				continue
			}
			if !sameTenant(actor, n.OrganizationID) {
				return id, ErrForbidden
			}
			_, err := tx.UpdateNotification(id, func(n *Notification) error {
				n.IsRead = true
				return nil
			})
			return id, err
		}
		return id, nil
	})
}

// ClearAllNotifications marks every unread notification of the actor's own
// organization as read and returns how many changed.
func (s *Service) ClearAllNotifications(ctx context.Context, actor User) (int, Result, error) {
	cleared := 0
	res, err := s.write(ctx, "clear_all_notifications", actor, "", func(tx *Transaction, actor User) (string, error) {
		for _, n := range tx.View().ListNotifications() {
			if n.OrganizationID != actor.OrganizationID || n.IsRead {
				continue
			}
			if _, err := tx.UpdateNotification(n.ID, func(n *Notification) error {
				n.IsRead = true
				return nil
			}); err != nil {
				return "", err
			}
			cleared++
		}
		return "", nil
	})
	if err != nil {
		return 0, res, err
	}
	return cleared, res, nil
}

// LicenseStatus describes the subscription window of a tenant actor.
// DaysLeft is nil for super-admins and organizations without an end date.
type LicenseStatus struct {
	DaysLeft *int
	Expired  bool
}

// License derives the actor's license status at now.
func (s *Service) License(ctx context.Context, actor User, now time.Time) (LicenseStatus, error) {
	var out LicenseStatus
	err := s.read(ctx, "license", actor, "", func(view TransactionView, actor User) error {
		if actor.IsSuperAdmin() {
			return nil
		}
		org, ok := view.FindOrganization(actor.OrganizationID)
		if !ok {
			return nil
		}
		out = licenseStatus(org, now)
		return nil
	})
	return out, err
}

func licenseStatus(org Organization, now time.Time) LicenseStatus {
	if org.SubscriptionEndDate == nil {
		return LicenseStatus{}
	}
	days := int(math.Ceil(org.SubscriptionEndDate.Sub(now).Hours() / 24))
	return LicenseStatus{DaysLeft: &days, Expired: days <= 0 || !org.IsActive}
}
