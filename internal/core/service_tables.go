package core

import (
	"context"
	"strings"

	"ticketdesk/internal/ident"
	"ticketdesk/internal/sanitize"
	"ticketdesk/pkg/domain"
)

// tableNumberTaken reports whether number is used, case-insensitively, by a
// table of eventID other than excludeID.
func tableNumberTaken(view TransactionView, eventID, number, excludeID string) bool {
	key := strings.ToLower(number)
	for _, t := range view.ListTables() {
		if t.EventID == eventID && t.ID != excludeID && t.NumberKey() == key {
			return true
		}
	}
	return false
}

// priceTable sanitizes a table and derives its price from the event's
// category when the category still exists.
func priceTable(e Event, t Table) Table {
	t.Number = sanitize.String(t.Number)
	t.TotalPrice = sanitize.Number(t.TotalPrice)
	if c, ok := e.FindCategory(t.CategoryID); ok {
		t.TotalPrice = float64(t.Capacity) * c.PricePerPerson
	}
	return t
}

// CheckTableNumberExists reports whether number is already used in eventID.
func (s *Service) CheckTableNumberExists(ctx context.Context, actor User, eventID, number, excludeID string) (bool, error) {
	var taken bool
	err := s.read(ctx, "check_table_number", actor, "", func(view TransactionView, actor User) error {
		if _, err := guardEvent(view, actor, eventID); err != nil {
			return err
		}
		taken = tableNumberTaken(view, eventID, sanitize.String(number), excludeID)
		return nil
	})
	return taken, err
}

// AddTable creates a table in t.EventID. A duplicate number fails with
// ErrDuplicateTableNumber and nothing is written.
func (s *Service) AddTable(ctx context.Context, actor User, t Table) (Table, Result, error) {
	var created Table
	res, err := s.write(ctx, "add_table", actor, domain.PermManageEvents, func(tx *Transaction, actor User) (string, error) {
		view := tx.View()
		e, err := guardEvent(view, actor, t.EventID)
		if err != nil {
			return "", err
		}
		t = priceTable(e, t)
		if tableNumberTaken(view, e.ID, t.Number, "") {
			return "", ErrDuplicateTableNumber
		}
		t.ID = tx.newID(ident.PrefixTable)
		t.Status = domain.TableAvailable
		created, err = tx.CreateTable(t)
		return created.ID, err
	})
	return created, res, err
}

// AddBulkTables inserts tables into eventID, silently dropping entries whose
// number collides with an existing table or an earlier entry of the batch,
// and entries without a positive capacity. It returns how many were
// inserted.
func (s *Service) AddBulkTables(ctx context.Context, actor User, eventID string, tables []Table) (int, Result, error) {
	inserted := 0
	res, err := s.write(ctx, "add_bulk_tables", actor, domain.PermManageEvents, func(tx *Transaction, actor User) (string, error) {
		view := tx.View()
		e, err := guardEvent(view, actor, eventID)
		if err != nil {
			return eventID, err
		}
		seen := make(map[string]struct{})
		for _, t := range view.ListTables() {
			if t.EventID == eventID {
				seen[t.NumberKey()] = struct{}{}
			}
		}
		for _, t := range tables {
			t.EventID = eventID
			t = priceTable(e, t)
			if _, dup := seen[t.NumberKey()]; dup || t.Capacity <= 0 {
				continue
			}
			seen[t.NumberKey()] = struct{}{}
			t.ID = tx.newID(ident.PrefixTable)
			t.Status = domain.TableAvailable
			if _, err := tx.CreateTable(t); err != nil {
				return eventID, err
			}
			inserted++
		}
		return eventID, nil
	})
	if err != nil {
		return 0, res, err
	}
	return inserted, res, nil
}

// UpdateTable replaces a table's number, category, capacity, and layout.
// Status and event are owned by the sale flow and kept.
func (s *Service) UpdateTable(ctx context.Context, actor User, t Table) (Table, Result, error) {
	var updated Table
	res, err := s.write(ctx, "update_table", actor, domain.PermManageEvents, func(tx *Transaction, actor User) (string, error) {
		view := tx.View()
		cur, ok := view.FindTable(t.ID)
		if !ok {
			return t.ID, ErrNotFound{Entity: EntityTable, ID: t.ID}
		}
		e, err := guardEvent(view, actor, cur.EventID)
		if err != nil {
			return t.ID, err
		}
		t.EventID = cur.EventID
		t = priceTable(e, t)
		if tableNumberTaken(view, cur.EventID, t.Number, t.ID) {
			return t.ID, ErrDuplicateTableNumber
		}
		updated, err = tx.UpdateTable(t.ID, func(dst *Table) error {
			dst.Number = t.Number
			dst.CategoryID = t.CategoryID
			dst.Capacity = t.Capacity
			dst.TotalPrice = t.TotalPrice
			dst.PositionX = t.PositionX
			dst.PositionY = t.PositionY
			if t.Status == domain.TableReserved || (t.Status == domain.TableAvailable && dst.Status == domain.TableReserved) {
				dst.Status = t.Status
			}
			return nil
		})
		return t.ID, err
	})
	return updated, res, err
}

// DeleteTable removes one table. A missing table is a no-op.
func (s *Service) DeleteTable(ctx context.Context, actor User, tableID string) (Result, error) {
	return s.write(ctx, "delete_table", actor, domain.PermManageEvents, func(tx *Transaction, actor User) (string, error) {
		view := tx.View()
		t, ok := view.FindTable(tableID)
		if !ok {
			return tableID, nil
		}
		if !sameTenant(actor, tenantOfEvent(view, t.EventID, actor)) {
			return tableID, ErrForbidden
		}
		return tableID, tx.DeleteTable(tableID)
	})
}

// DeleteAllTables removes every table of eventID and returns how many were
// removed.
func (s *Service) DeleteAllTables(ctx context.Context, actor User, eventID string) (int, Result, error) {
	removed := 0
	res, err := s.write(ctx, "delete_all_tables", actor, domain.PermManageEvents, func(tx *Transaction, actor User) (string, error) {
		view := tx.View()
		if _, err := guardEvent(view, actor, eventID); err != nil {
			return eventID, err
		}
		for _, t := range view.ListTables() {
			if t.EventID != eventID {
				continue
			}
			if err := tx.DeleteTable(t.ID); err != nil {
				return eventID, err
			}
			removed++
		}
		return eventID, nil
	})
	if err != nil {
		return 0, res, err
	}
	return removed, res, nil
}

// VisibleTables returns the tables whose event belongs to the actor's
// organization. Tables of deleted events are visible to super-admins only.
func (s *Service) VisibleTables(ctx context.Context, actor User) ([]Table, error) {
	var out []Table
	err := s.read(ctx, "visible_tables", actor, "", func(view TransactionView, actor User) error {
		out = visibleTables(view, actor)
		return nil
	})
	return out, err
}

func visibleTables(view TransactionView, actor User) []Table {
	out := []Table{}
	for _, t := range view.ListTables() {
		if visibleThroughEvent(view, actor, t.EventID) {
			out = append(out, t)
		}
	}
	return out
}

// visibleThroughEvent derives tenant membership from the referenced event,
// never from a denormalized field on the row itself.
func visibleThroughEvent(view TransactionView, actor User, eventID string) bool {
	if actor.IsSuperAdmin() {
		return true
	}
	org, ok := view.EventOrganization(eventID)
	return ok && org == actor.OrganizationID
}
