package core

import (
	"context"
	"math"

	"ticketdesk/internal/ident"
	"ticketdesk/internal/sanitize"
	"ticketdesk/pkg/domain"
)

func sanitizeEvent(e Event) Event {
	e.Name = sanitize.String(e.Name)
	e.Organizer = sanitize.String(e.Organizer)
	e.Date = sanitize.String(e.Date)
	e.Time = sanitize.String(e.Time)
	e.Venue = sanitize.String(e.Venue)
	e.Location = sanitize.String(e.Location)
	return e
}

func sanitizeCategory(c Category) Category {
	c.Name = sanitize.String(c.Name)
	c.Color = sanitize.String(c.Color)
	c.PricePerPerson = math.Max(0, sanitize.Number(c.PricePerPerson))
	return c
}

// AddEvent creates an event owned by the actor's organization, or by the
// organization a super-admin names.
func (s *Service) AddEvent(ctx context.Context, actor User, e Event) (Event, Result, error) {
	var created Event
	res, err := s.write(ctx, "add_event", actor, domain.PermManageEvents, func(tx *Transaction, actor User) (string, error) {
		e = sanitizeEvent(e)
		e.ID = tx.newID(ident.PrefixEvent)
		e.OrganizationID = targetOrganization(actor, e.OrganizationID)
		cats := make([]Category, 0, len(e.Categories))
		for _, c := range e.Categories {
			c = sanitizeCategory(c)
			c.ID = tx.newID(ident.PrefixCategory)
			c.EventID = e.ID
			cats = append(cats, c)
		}
		e.Categories = cats
		var err error
		created, err = tx.CreateEvent(e)
		return created.ID, err
	})
	return created, res, err
}

// UpdateEvent replaces an event's descriptive fields. The owner cannot be
// changed by tenant actors; nil categories keep the stored list.
func (s *Service) UpdateEvent(ctx context.Context, actor User, e Event) (Event, Result, error) {
	var updated Event
	res, err := s.write(ctx, "update_event", actor, domain.PermManageEvents, func(tx *Transaction, actor User) (string, error) {
		if _, err := guardEvent(tx.View(), actor, e.ID); err != nil {
			return e.ID, err
		}
		clean := sanitizeEvent(e)
		var err error
		updated, err = tx.UpdateEvent(e.ID, func(cur *Event) error {
			owner, cats := cur.OrganizationID, cur.Categories
			*cur = clean
			if !actor.IsSuperAdmin() || cur.OrganizationID == "" {
				cur.OrganizationID = owner
			}
			if clean.Categories == nil {
				cur.Categories = cats
			}
			if cur.Status == "" {
				cur.Status = domain.EventActive
			}
			return nil
		})
		return e.ID, err
	})
	return updated, res, err
}

// DeleteEvent removes an event. Its tables and sales stay behind as
// dangling references. A missing event is a no-op.
func (s *Service) DeleteEvent(ctx context.Context, actor User, eventID string) (Result, error) {
	return s.write(ctx, "delete_event", actor, domain.PermManageEvents, func(tx *Transaction, actor User) (string, error) {
		if _, ok := tx.View().FindEvent(eventID); !ok {
			return eventID, nil
		}
		if _, err := guardEvent(tx.View(), actor, eventID); err != nil {
			return eventID, err
		}
		return eventID, tx.DeleteEvent(eventID)
	})
}

// VisibleEvents returns the events the actor may see.
func (s *Service) VisibleEvents(ctx context.Context, actor User) ([]Event, error) {
	var out []Event
	err := s.read(ctx, "visible_events", actor, "", func(view TransactionView, actor User) error {
		out = visibleEvents(view, actor)
		return nil
	})
	return out, err
}

func visibleEvents(view TransactionView, actor User) []Event {
	out := []Event{}
	for _, e := range view.ListEvents() {
		if sameTenant(actor, e.OrganizationID) {
			out = append(out, e)
		}
	}
	return out
}

// AddCategory appends a price tier to an event.
func (s *Service) AddCategory(ctx context.Context, actor User, eventID string, c Category) (Category, Result, error) {
	var created Category
	res, err := s.write(ctx, "add_category", actor, domain.PermManageEvents, func(tx *Transaction, actor User) (string, error) {
		if _, err := guardEvent(tx.View(), actor, eventID); err != nil {
			return eventID, err
		}
		created = sanitizeCategory(c)
		created.ID = tx.newID(ident.PrefixCategory)
		created.EventID = eventID
		_, err := tx.UpdateEvent(eventID, func(e *Event) error {
			e.Categories = append(e.Categories, created)
			return nil
		})
		return eventID, err
	})
	return created, res, err
}

// UpdateCategory replaces a price tier of an event.
func (s *Service) UpdateCategory(ctx context.Context, actor User, eventID string, c Category) (Category, Result, error) {
	var updated Category
	res, err := s.write(ctx, "update_category", actor, domain.PermManageEvents, func(tx *Transaction, actor User) (string, error) {
		e, err := guardEvent(tx.View(), actor, eventID)
		if err != nil {
			return eventID, err
		}
		if _, ok := e.FindCategory(c.ID); !ok {
			return eventID, ErrNotFound{Entity: "category", ID: c.ID}
		}
		updated = sanitizeCategory(c)
		updated.EventID = eventID
		_, err = tx.UpdateEvent(eventID, func(e *Event) error {
			for i := range e.Categories {
				if e.Categories[i].ID == c.ID {
					e.Categories[i] = updated
				}
			}
			return nil
		})
		return eventID, err
	})
	return updated, res, err
}

// DeleteCategory removes a price tier. Tables keep their reference to it.
func (s *Service) DeleteCategory(ctx context.Context, actor User, eventID, categoryID string) (Result, error) {
	return s.write(ctx, "delete_category", actor, domain.PermManageEvents, func(tx *Transaction, actor User) (string, error) {
		e, err := guardEvent(tx.View(), actor, eventID)
		if err != nil {
			return eventID, err
		}
		if _, ok := e.FindCategory(categoryID); !ok {
			return eventID, nil
		}
		_, err = tx.UpdateEvent(eventID, func(e *Event) error {
			kept := e.Categories[:0]
			for _, c := range e.Categories {
				if c.ID != categoryID {
					kept = append(kept, c)
				}
			}
			e.Categories = kept
			return nil
		})
		return eventID, err
	})
}
