package core

import (
	"context"
	"fmt"
	"strconv"

	"ticketdesk/internal/ident"
	"ticketdesk/internal/sanitize"
	"ticketdesk/pkg/domain"
)

// Ticket check outcomes.
const (
	TicketInvalid    = "INVALID"
	TicketWrongEvent = "WRONG_EVENT"
	TicketFull       = "FULL"
	TicketSuccess    = "SUCCESS"
)

// TicketCheck is the outcome of scanning a ticket code at the door.
type TicketCheck struct {
	Valid   bool
	Code    string
	Message string
	Sale    *Sale
	Table   *Table
}

func formatAmount(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func (tx *Transaction) history(staff User, action, details string) HistoryEntry {
	return HistoryEntry{
		ID:        tx.newID(ident.PrefixHistory),
		Date:      tx.now,
		StaffID:   staff.ID,
		StaffName: staff.Name,
		Action:    action,
		Details:   details,
	}
}

func tableNumber(view TransactionView, tableID string) string {
	if t, ok := view.FindTable(tableID); ok {
		return t.Number
	}
	return UnknownName
}

// guardSale resolves a sale and checks the actor's tenant through the sale's
// event.
func guardSale(view TransactionView, actor User, saleID string) (Sale, bool, error) {
	sale, ok := view.FindSale(saleID)
	if !ok {
		return Sale{}, false, nil
	}
	if !visibleThroughEvent(view, actor, sale.EventID) {
		return Sale{}, true, ErrForbidden
	}
	return sale, true, nil
}

// AddSale records a ticket sale for an available table, marks the table
// sold, and notifies the event's organization. Amounts are trusted as
// supplied; the remaining debt and payment status are derived from them.
func (s *Service) AddSale(ctx context.Context, actor User, sale Sale) (Sale, Result, error) {
	var created Sale
	res, err := s.write(ctx, "add_sale", actor, domain.PermMakeSales, func(tx *Transaction, actor User) (string, error) {
		view := tx.View()
		table, ok := view.FindTable(sale.TableID)
		if !ok {
			return "", ErrNotFound{Entity: EntityTable, ID: sale.TableID}
		}
		e, err := guardEvent(view, actor, table.EventID)
		if err != nil {
			return "", err
		}
		if table.Status == domain.TableSold {
			return "", ErrTableUnavailable
		}
		sale.QRCode = sanitize.String(sale.QRCode)
		if sale.QRCode != "" {
			if _, taken := view.FindSaleByQRCode(sale.QRCode); taken {
				return "", ErrDuplicateQRCode
			}
		}

		sale.ID = tx.newID(ident.PrefixSale)
		sale.EventID = e.ID
		sale.SoldBy = actor.ID
		sale.CustomerName = sanitize.String(sale.CustomerName)
		sale.CustomerPhone = sanitize.String(sale.CustomerPhone)
		sale.CustomerEmail = sanitize.String(sale.CustomerEmail)
		sale.SalesNote = sanitize.String(sale.SalesNote)
		sale.OriginalAmount = sanitize.Number(sale.OriginalAmount)
		sale.DiscountValue = sanitize.Number(sale.DiscountValue)
		sale.FinalAmount = sanitize.Number(sale.Amount())
		sale.TotalAmount = sale.FinalAmount
		sale.PaidAmount = sanitize.Number(sale.PaidAmount)
		sale.RemainingDebt = domain.RemainingDebt(sale.FinalAmount, sale.PaidAmount)
		sale.PaymentStatus = domain.PaymentStatusFor(sale.FinalAmount, sale.PaidAmount)
		sale.TicketUsed = false
		sale.PeopleEntered = 0
		sale.EntryTime = nil
		sale.EntryNote = ""
		sale.CreatedAt = tx.now
		sale.History = []HistoryEntry{tx.history(actor, domain.HistorySale, formatAmount(sale.PaidAmount)+" collected")}

		created, err = tx.CreateSale(sale)
		if err != nil {
			return sale.ID, err
		}
		if _, err := tx.UpdateTable(table.ID, func(t *Table) error {
			t.Status = domain.TableSold
			return nil
		}); err != nil {
			return created.ID, err
		}
		tx.AddNotification(Notification{
			OrganizationID: e.OrganizationID,
			Type:           domain.NotificationSale,
			Title:          "New ticket sale",
			Message:        fmt.Sprintf("Table %s sold to %s (%s)", table.Number, created.CustomerName, formatAmount(created.FinalAmount)),
			RelatedSaleID:  created.ID,
		})
		return created.ID, nil
	})
	return created, res, err
}

// CancelSale deletes a sale with its history and frees its table. A missing
// sale is a no-op.
func (s *Service) CancelSale(ctx context.Context, actor User, saleID string) (Result, error) {
	return s.write(ctx, "cancel_sale", actor, domain.PermMakeSales, func(tx *Transaction, actor User) (string, error) {
		view := tx.View()
		sale, ok, err := guardSale(view, actor, saleID)
		if !ok || err != nil {
			return saleID, err
		}
		if _, found := view.FindTable(sale.TableID); found {
			if _, err := tx.UpdateTable(sale.TableID, func(t *Table) error {
				t.Status = domain.TableAvailable
				return nil
			}); err != nil {
				return saleID, err
			}
		}
		if err := tx.DeleteSale(saleID); err != nil {
			return saleID, err
		}
		tx.AddNotification(Notification{
			OrganizationID: tenantOfEvent(view, sale.EventID, actor),
			Type:           domain.NotificationAlert,
			Title:          "Ticket cancelled",
			Message:        fmt.Sprintf("Sale for %s was cancelled", sale.CustomerName),
		})
		return saleID, nil
	})
}

// UpdateSaleAndTable moves a sale to targetTableID when it differs from the
// current table, and always appends an EDIT history entry. capacityHint is
// accepted for compatibility and not applied.
func (s *Service) UpdateSaleAndTable(ctx context.Context, actor User, saleID, targetTableID string, capacityHint *int) (Sale, Result, error) {
	_ = capacityHint
	var updated Sale
	res, err := s.write(ctx, "update_sale_and_table", actor, domain.PermMakeSales, func(tx *Transaction, actor User) (string, error) {
		view := tx.View()
		sale, ok, err := guardSale(view, actor, saleID)
		if err != nil {
			return saleID, err
		}
		if !ok {
			return saleID, ErrNotFound{Entity: EntitySale, ID: saleID}
		}
		details := "Sale updated."
		moving := targetTableID != "" && targetTableID != sale.TableID
		if moving {
			target, found := view.FindTable(targetTableID)
			if !found {
				return saleID, ErrNotFound{Entity: EntityTable, ID: targetTableID}
			}
			if !visibleThroughEvent(view, actor, target.EventID) {
				return saleID, ErrForbidden
			}
			if target.EventID != sale.EventID {
				return saleID, ErrTableEventMismatch
			}
			if target.Status == domain.TableSold {
				return saleID, ErrTableUnavailable
			}
			from := tableNumber(view, sale.TableID)
			if _, found := view.FindTable(sale.TableID); found {
				if _, err := tx.UpdateTable(sale.TableID, func(t *Table) error {
					t.Status = domain.TableAvailable
					return nil
				}); err != nil {
					return saleID, err
				}
			}
			if _, err := tx.UpdateTable(targetTableID, func(t *Table) error {
				t.Status = domain.TableSold
				return nil
			}); err != nil {
				return saleID, err
			}
			details = fmt.Sprintf("Table changed: %s -> %s", from, target.Number)
			tx.AddNotification(Notification{
				OrganizationID: tenantOfEvent(view, sale.EventID, actor),
				Type:           domain.NotificationInfo,
				Title:          "Table changed",
				Message:        fmt.Sprintf("%s moved: %s -> %s", sale.CustomerName, from, target.Number),
				RelatedSaleID:  saleID,
			})
		}
		entry := tx.history(actor, domain.HistoryEdit, details)
		updated, err = tx.UpdateSale(saleID, func(s *Sale) error {
			if moving {
				s.TableID = targetTableID
			}
			s.History = append(s.History, entry)
			return nil
		})
		return saleID, err
	})
	return updated, res, err
}

// CheckTicket validates a scanned code against currentEventID without
// mutating anything. A sale whose table no longer exists counts as full.
func (s *Service) CheckTicket(ctx context.Context, actor User, currentEventID, qrCode string) (TicketCheck, error) {
	var out TicketCheck
	err := s.read(ctx, "check_ticket", actor, domain.PermScanTickets, func(view TransactionView, actor User) error {
		out = checkTicket(view, actor, currentEventID, qrCode)
		return nil
	})
	return out, err
}

func checkTicket(view TransactionView, actor User, currentEventID, qrCode string) TicketCheck {
	sale, ok := view.FindSaleByQRCode(qrCode)
	if !ok || qrCode == "" {
		return TicketCheck{Code: TicketInvalid, Message: "Invalid QR code."}
	}
	if org, ok := view.EventOrganization(sale.EventID); ok && !sameTenant(actor, org) {
		return TicketCheck{Code: TicketWrongEvent, Message: "Ticket belongs to another organization!"}
	}
	if sale.EventID != currentEventID {
		return TicketCheck{Code: TicketWrongEvent, Message: "Ticket is for another event!", Sale: &sale}
	}
	table, found := view.FindTable(sale.TableID)
	capacity := 0
	if found {
		capacity = table.Capacity
	}
	var tp *Table
	if found {
		tp = &table
	}
	if sale.PeopleEntered >= capacity {
		return TicketCheck{Code: TicketFull, Message: "Capacity reached!", Sale: &sale, Table: tp}
	}
	return TicketCheck{Valid: true, Code: TicketSuccess, Message: "Valid ticket", Sale: &sale, Table: tp}
}

// ApproveEntry admits count people on a sale. Entry over capacity is not
// clamped. An authorizer override, or entry with outstanding debt, raises an
// alert notification.
func (s *Service) ApproveEntry(ctx context.Context, actor User, saleID string, count int, note string, authorizer *User) (Sale, Result, error) {
	var updated Sale
	res, err := s.write(ctx, "approve_entry", actor, domain.PermScanTickets, func(tx *Transaction, actor User) (string, error) {
		if count < 0 {
			return saleID, ErrInvalidCount
		}
		view := tx.View()
		sale, ok, err := guardSale(view, actor, saleID)
		if err != nil {
			return saleID, err
		}
		if !ok {
			return saleID, ErrNotFound{Entity: EntitySale, ID: saleID}
		}
		staff := actor
		if authorizer != nil {
			staff = *authorizer
		}
		note = sanitize.String(note)
		shown := note
		if shown == "" {
			shown = "None"
		}
		entry := tx.history(staff, domain.HistoryEntryApproval, fmt.Sprintf("%d people entered. Note: %s", count, shown))
		if authorizer != nil || sale.RemainingDebt > 0 {
			approver := "System"
			if authorizer != nil {
				approver = authorizer.Name
			}
			tx.AddNotification(Notification{
				OrganizationID: tenantOfEvent(view, sale.EventID, actor),
				Type:           domain.NotificationAlert,
				Title:          "Risky entry / authorized override",
				Message:        fmt.Sprintf("Entry with debt or manual override for %s. Approved by: %s", sale.CustomerName, approver),
				RelatedSaleID:  saleID,
			})
		}
		now := tx.now
		updated, err = tx.UpdateSale(saleID, func(s *Sale) error {
			s.TicketUsed = true
			s.PeopleEntered += count
			s.EntryTime = &now
			s.EntryNote = note
			s.History = append(s.History, entry)
			return nil
		})
		return saleID, err
	})
	return updated, res, err
}

// CollectDebtAndApprove settles the sale in full at the door and admits
// count people.
func (s *Service) CollectDebtAndApprove(ctx context.Context, actor User, saleID string, count int, authorizer *User) (Sale, Result, error) {
	var updated Sale
	res, err := s.write(ctx, "collect_debt_and_approve", actor, domain.PermScanTickets, func(tx *Transaction, actor User) (string, error) {
		if count < 0 {
			return saleID, ErrInvalidCount
		}
		view := tx.View()
		sale, ok, err := guardSale(view, actor, saleID)
		if err != nil {
			return saleID, err
		}
		if !ok {
			return saleID, ErrNotFound{Entity: EntitySale, ID: saleID}
		}
		staff := actor
		if authorizer != nil {
			staff = *authorizer
		}
		debt := sale.RemainingDebt
		entry := tx.history(staff, domain.HistoryDebtCollection, fmt.Sprintf("%s collected and %d people admitted", formatAmount(debt), count))
		if debt > 0 {
			tx.AddNotification(Notification{
				OrganizationID: tenantOfEvent(view, sale.EventID, actor),
				Type:           domain.NotificationSuccess,
				Title:          "Debt collected",
				Message:        fmt.Sprintf("Debt of %s (%s) collected at the door", sale.CustomerName, formatAmount(debt)),
				RelatedSaleID:  saleID,
			})
		}
		now := tx.now
		updated, err = tx.UpdateSale(saleID, func(s *Sale) error {
			s.PaidAmount = s.Amount()
			s.RemainingDebt = 0
			s.PaymentStatus = domain.PaymentFull
			s.TicketUsed = true
			s.PeopleEntered += count
			s.EntryTime = &now
			s.History = append(s.History, entry)
			return nil
		})
		return saleID, err
	})
	return updated, res, err
}

// VisibleSales returns the sales whose event belongs to the actor's
// organization.
func (s *Service) VisibleSales(ctx context.Context, actor User) ([]Sale, error) {
	var out []Sale
	err := s.read(ctx, "visible_sales", actor, "", func(view TransactionView, actor User) error {
		out = visibleSales(view, actor)
		return nil
	})
	return out, err
}

func visibleSales(view TransactionView, actor User) []Sale {
	out := []Sale{}
	for _, sale := range view.ListSales() {
		if visibleThroughEvent(view, actor, sale.EventID) {
			out = append(out, sale)
		}
	}
	return out
}
