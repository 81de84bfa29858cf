package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ticketdesk/internal/docstore"
)

// Session is one authenticated consumer: the current actor, the selected
// event, and transient UI flags. The selected event is never persisted.
type Session struct {
	svc *Service

	mu             sync.Mutex
	actor          User
	currentEventID string
	menuOpen       bool
}

// Login authenticates username and password against the stored bcrypt
// hashes. Unknown users and wrong passwords fail alike with
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	var found User
	err := s.run(ctx, "login", User{}, func(ctx context.Context) (string, error) {
		return "", s.store.View(ctx, func(view TransactionView) error {
			for _, u := range view.ListUsers() {
				if u.Username == username && u.PasswordHash != "" && s.store.hasher.Verify(u.PasswordHash, password) {
					found = u
					return nil
				}
			}
			return ErrInvalidCredentials
		})
	})
	if err != nil {
		s.logger.Info("login failed")
		return nil, err
	}
	sess := &Session{svc: s, actor: found.Public()}
	if err := s.store.adapter.Save(ctx, docstore.KeyCurrentUser, sess.actor); err != nil {
		s.logger.Warn("current user not persisted", zap.Error(err))
	}
	if err := sess.reconcile(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// Resume restores the session of the persisted current user. The stored
// copy is re-resolved so deleted users cannot come back.
func (s *Service) Resume(ctx context.Context) (*Session, error) {
	var stored User
	if !s.store.adapter.Load(ctx, docstore.KeyCurrentUser, &stored, nil) || stored.ID == "" {
		return nil, ErrNotAuthenticated
	}
	var current User
	err := s.store.View(ctx, func(view TransactionView) error {
		u, ok := view.FindUser(stored.ID)
		if !ok {
			return ErrNotAuthenticated
		}
		current = u.Public()
		return nil
	})
	if err != nil {
		_ = s.store.adapter.Remove(ctx, docstore.KeyCurrentUser)
		return nil, err
	}
	sess := &Session{svc: s, actor: current}
	if err := sess.reconcile(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// Actor returns the current actor; the zero User after Logout.
func (sess *Session) Actor() User {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.actor.Public()
}

// Authenticated reports whether the session still has an actor.
func (sess *Session) Authenticated() bool {
	return sess.Actor().ID != ""
}

// Logout clears the actor, the event selection, and transient UI flags.
func (sess *Session) Logout(ctx context.Context) error {
	sess.mu.Lock()
	sess.actor = User{}
	sess.currentEventID = ""
	sess.menuOpen = false
	sess.mu.Unlock()
	return sess.svc.store.adapter.Remove(ctx, docstore.KeyCurrentUser)
}

// MenuOpen reports the transient navigation menu flag.
func (sess *Session) MenuOpen() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.menuOpen
}

// ToggleMenu flips the navigation menu flag.
func (sess *Session) ToggleMenu() {
	sess.mu.Lock()
	sess.menuOpen = !sess.menuOpen
	sess.mu.Unlock()
}

// CloseMenu clears the navigation menu flag.
func (sess *Session) CloseMenu() {
	sess.mu.Lock()
	sess.menuOpen = false
	sess.mu.Unlock()
}

// reconcile re-establishes the selection invariant: with visible events,
// the selection points at one of them, defaulting to the first; without
// any, it is empty.
func (sess *Session) reconcile(ctx context.Context) error {
	actor := sess.Actor()
	if actor.ID == "" {
		return nil
	}
	var visible []Event
	err := sess.svc.store.View(ctx, func(view TransactionView) error {
		current, err := authorize(view, actor, "")
		if err != nil {
			return err
		}
		visible = visibleEvents(view, current)
		return nil
	})
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if len(visible) == 0 {
		sess.currentEventID = ""
		return nil
	}
	for _, e := range visible {
		if e.ID == sess.currentEventID {
			return nil
		}
	}
	sess.currentEventID = visible[0].ID
	return nil
}

// CurrentEvent returns the selected event. ok is false when nothing is
// selected.
func (sess *Session) CurrentEvent(ctx context.Context) (Event, bool, error) {
	if err := sess.reconcile(ctx); err != nil {
		return Event{}, false, err
	}
	id := sess.currentEvent()
	if id == "" {
		return Event{}, false, nil
	}
	var e Event
	var ok bool
	err := sess.svc.store.View(ctx, func(view TransactionView) error {
		e, ok = view.FindEvent(id)
		return nil
	})
	return e, ok, err
}

func (sess *Session) currentEvent() string {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.currentEventID
}

func (sess *Session) requireEvent(ctx context.Context) (string, error) {
	if err := sess.reconcile(ctx); err != nil {
		return "", err
	}
	id := sess.currentEvent()
	if id == "" {
		return "", ErrNoCurrentEvent
	}
	return id, nil
}

// SelectEvent makes eventID the working event.
func (sess *Session) SelectEvent(ctx context.Context, eventID string) error {
	actor := sess.Actor()
	err := sess.svc.store.View(ctx, func(view TransactionView) error {
		current, err := authorize(view, actor, "")
		if err != nil {
			return err
		}
		_, err = guardEvent(view, current, eventID)
		return err
	})
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.currentEventID = eventID
	sess.mu.Unlock()
	return nil
}

// AddEvent creates an event and refreshes the selection.
func (sess *Session) AddEvent(ctx context.Context, e Event) (Event, error) {
	created, _, err := sess.svc.AddEvent(ctx, sess.Actor(), e)
	if err != nil {
		return Event{}, err
	}
	return created, sess.reconcile(ctx)
}

// DeleteEvent removes an event and clears or moves the selection if it
// pointed there.
func (sess *Session) DeleteEvent(ctx context.Context, eventID string) error {
	if _, err := sess.svc.DeleteEvent(ctx, sess.Actor(), eventID); err != nil {
		return err
	}
	return sess.reconcile(ctx)
}

// AddCategory adds a price tier to the selected event.
func (sess *Session) AddCategory(ctx context.Context, c Category) (Category, error) {
	id, err := sess.requireEvent(ctx)
	if err != nil {
		return Category{}, err
	}
	created, _, err := sess.svc.AddCategory(ctx, sess.Actor(), id, c)
	return created, err
}

// UpdateCategory replaces a price tier of the selected event.
func (sess *Session) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	id, err := sess.requireEvent(ctx)
	if err != nil {
		return Category{}, err
	}
	updated, _, err := sess.svc.UpdateCategory(ctx, sess.Actor(), id, c)
	return updated, err
}

// DeleteCategory removes a price tier of the selected event.
func (sess *Session) DeleteCategory(ctx context.Context, categoryID string) error {
	id, err := sess.requireEvent(ctx)
	if err != nil {
		return err
	}
	_, err = sess.svc.DeleteCategory(ctx, sess.Actor(), id, categoryID)
	return err
}

// CheckTableNumberExists checks number within the selected event.
func (sess *Session) CheckTableNumberExists(ctx context.Context, number, excludeID string) (bool, error) {
	id, err := sess.requireEvent(ctx)
	if err != nil {
		return false, err
	}
	return sess.svc.CheckTableNumberExists(ctx, sess.Actor(), id, number, excludeID)
}

// AddTable creates a table in the selected event.
func (sess *Session) AddTable(ctx context.Context, t Table) (Table, error) {
	id, err := sess.requireEvent(ctx)
	if err != nil {
		return Table{}, err
	}
	t.EventID = id
	created, _, err := sess.svc.AddTable(ctx, sess.Actor(), t)
	return created, err
}

// AddBulkTables inserts tables into the selected event.
func (sess *Session) AddBulkTables(ctx context.Context, tables []Table) (int, error) {
	id, err := sess.requireEvent(ctx)
	if err != nil {
		return 0, err
	}
	n, _, err := sess.svc.AddBulkTables(ctx, sess.Actor(), id, tables)
	return n, err
}

// DeleteAllTables removes every table of the selected event.
func (sess *Session) DeleteAllTables(ctx context.Context) (int, error) {
	id, err := sess.requireEvent(ctx)
	if err != nil {
		return 0, err
	}
	n, _, err := sess.svc.DeleteAllTables(ctx, sess.Actor(), id)
	return n, err
}

// CheckTicket validates a scanned code against the selected event.
func (sess *Session) CheckTicket(ctx context.Context, qrCode string) (TicketCheck, error) {
	if err := sess.reconcile(ctx); err != nil {
		return TicketCheck{}, err
	}
	return sess.svc.CheckTicket(ctx, sess.Actor(), sess.currentEvent(), qrCode)
}

// License derives the session actor's license status.
func (sess *Session) License(ctx context.Context) (LicenseStatus, error) {
	return sess.svc.License(ctx, sess.Actor(), sess.svc.Now())
}

// PendingAnnouncement returns the first announcement the tenant actor has
// not dismissed and that is active at now. Super-admins get none.
func (sess *Session) PendingAnnouncement(ctx context.Context, now time.Time) (Announcement, bool, error) {
	actor := sess.Actor()
	if actor.IsSuperAdmin() {
		return Announcement{}, false, nil
	}
	all, err := sess.svc.ListAnnouncements(ctx, actor)
	if err != nil {
		return Announcement{}, false, err
	}
	adapter := sess.svc.store.adapter
	for _, a := range all {
		if a.ActiveAt(now) && !adapter.Flag(ctx, docstore.SeenAnnouncementKey(a.ID)) {
			return a, true, nil
		}
	}
	return Announcement{}, false, nil
}

// DismissAnnouncement records that the announcement was seen.
func (sess *Session) DismissAnnouncement(ctx context.Context, id string) error {
	return sess.svc.store.adapter.SetFlag(ctx, docstore.SeenAnnouncementKey(id))
}
