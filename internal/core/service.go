package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ticketdesk/pkg/domain"
)

// Service exposes the guarded, transactional operations consumers call.
// Every operation takes the acting user explicitly.
type Service struct {
	store   *Store
	logger  *zap.Logger
	clock   ClockFunc
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
}

// ServiceOption configures optional service dependencies.
type ServiceOption func(*Service)

// WithClock overrides the clock used for audit timestamps and license math.
func WithClock(clock ClockFunc) ServiceOption {
	return func(s *Service) { s.clock = clock }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(r AuditRecorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.audit = r
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(r MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store *Store, opts ...ServiceOption) *Service {
	if store == nil {
		store = NewStore(NewDefaultRulesEngine())
	}
	svc := &Service{
		store:   store,
		logger:  zap.NewNop(),
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  NoopTracer{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.clock == nil {
		svc.clock = ClockFunc(store.Now)
	}
	return svc
}

// NewInMemoryService creates a service over a fresh memory-backed store
// loaded with the seed dataset.
func NewInMemoryService(ctx context.Context, engine *RulesEngine, opts ...ServiceOption) (*Service, error) {
	store := NewStore(engine)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	return NewService(store, opts...), nil
}

// Store returns the underlying store.
func (s *Service) Store() *Store { return s.store }

// Now returns the service clock reading.
func (s *Service) Now() time.Time { return s.clock.Now() }

// run wraps an operation with tracing, metrics, and audit. fn returns the
// identifier of the affected entity, if any.
func (s *Service) run(ctx context.Context, op string, actor User, fn func(ctx context.Context) (string, error)) error {
	ctx, span := s.tracer.Start(ctx, op)
	started := time.Now()
	entityID, err := fn(ctx)
	elapsed := time.Since(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	if err != nil {
		s.recordAuditError(ctx, op, actor.ID, entityID, elapsed, err)
		return err
	}
	s.recordAuditSuccess(ctx, op, actor.ID, entityID, elapsed)
	return nil
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, actorID, entityID string, d time.Duration) {
	meta, ok := auditedOperations[op]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		ActorID:   actorID,
		Status:    AuditStatusSuccess,
		Duration:  d,
		Timestamp: s.clock.Now(),
	})
}

func (s *Service) recordAuditError(ctx context.Context, op, actorID, entityID string, d time.Duration, err error) {
	meta, ok := auditedOperations[op]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		ActorID:   actorID,
		Status:    AuditStatusError,
		Error:     err.Error(),
		Duration:  d,
		Timestamp: s.clock.Now(),
	})
}

// authorize re-resolves actor against the current state and checks perm.
// The stored record wins over the caller's copy so revoked permissions take
// effect immediately. An empty perm only requires authentication.
func authorize(view TransactionView, actor User, perm Permission) (User, error) {
	current, ok := view.FindUser(actor.ID)
	if !ok || actor.ID == "" {
		return User{}, ErrNotAuthenticated
	}
	if current.IsSuperAdmin() || perm == "" {
		return current, nil
	}
	if !current.HasPermission(perm) {
		return User{}, ErrForbidden
	}
	return current, nil
}

// sameTenant reports whether actor may act on records of orgID.
func sameTenant(actor User, orgID string) bool {
	return actor.IsSuperAdmin() || actor.OrganizationID == orgID
}

// guardEvent resolves an event and checks the actor's tenant against its owner.
func guardEvent(view TransactionView, actor User, eventID string) (Event, error) {
	e, ok := view.FindEvent(eventID)
	if !ok {
		return Event{}, ErrNotFound{Entity: EntityEvent, ID: eventID}
	}
	if !sameTenant(actor, e.OrganizationID) {
		return Event{}, ErrForbidden
	}
	return e, nil
}

// targetOrganization picks the tenant for records created by actor:
// super-admins may name one, falling back to the demo tenant; everybody else
// is pinned to their own.
func targetOrganization(actor User, requested string) string {
	if actor.IsSuperAdmin() {
		if requested == "" {
			return domain.DefaultOrganizationID
		}
		return requested
	}
	return actor.OrganizationID
}

// tenantOfEvent resolves the organization that owns eventID, falling back to
// the actor's organization for dangling references.
func tenantOfEvent(view TransactionView, eventID string, actor User) string {
	if org, ok := view.EventOrganization(eventID); ok {
		return org
	}
	return actor.OrganizationID
}

// read runs fn over a snapshot after authorizing actor.
func (s *Service) read(ctx context.Context, op string, actor User, perm Permission, fn func(view TransactionView, actor User) error) error {
	return s.run(ctx, op, actor, func(ctx context.Context) (string, error) {
		return "", s.store.View(ctx, func(view TransactionView) error {
			current, err := authorize(view, actor, perm)
			if err != nil {
				return err
			}
			return fn(view, current)
		})
	})
}

// write runs fn inside a transaction after authorizing actor.
func (s *Service) write(ctx context.Context, op string, actor User, perm Permission, fn func(tx *Transaction, actor User) (string, error)) (Result, error) {
	var res Result
	err := s.run(ctx, op, actor, func(ctx context.Context) (string, error) {
		var id string
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx *Transaction) error {
			current, err := authorize(tx.View(), actor, perm)
			if err != nil {
				return err
			}
			id, err = fn(tx, current)
			return err
		})
		return id, err
	})
	return res, err
}
