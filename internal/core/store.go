package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ticketdesk/internal/docstore"
	"ticketdesk/internal/ident"
)

// IDGenerator issues prefixed identifiers and ticket codes.
type IDGenerator interface {
	New(prefix string) string
	QRCode() string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithAdapter sets the durable document adapter. Without one the store
// persists to a private in-memory medium.
func WithAdapter(a *docstore.Adapter) StoreOption {
	return func(s *Store) {
		if a != nil {
			s.adapter = a
		}
	}
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(g IDGenerator) StoreOption {
	return func(s *Store) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithStoreClock overrides the transaction clock.
func WithStoreClock(fn func() time.Time) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.nowFn = fn
		}
	}
}

// WithStoreLogger sets the store logger.
func WithStoreLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPasswordHasher sets the bcrypt cost used for stored credentials.
func WithPasswordHasher(h PasswordHasher) StoreOption {
	return func(s *Store) { s.hasher = h }
}

// WithSeedCredentials sets the passwords of the seeded super-admin and demo
// tenant admin.
func WithSeedCredentials(rootPassword, demoAdminPassword string) StoreOption {
	return func(s *Store) {
		if rootPassword != "" {
			s.seeds.root = rootPassword
		}
		if demoAdminPassword != "" {
			s.seeds.demoAdmin = demoAdminPassword
		}
	}
}

// Default seed passwords, used when WithSeedCredentials does not override
// them.
const (
	DefaultSuperAdminPassword = "root"
	DefaultDemoAdminPassword  = "123"
)

type seedCredentials struct {
	root      string
	demoAdmin string
}

// Store is the transactional in-memory domain store. Every committed
// transaction persists the collections it touched through the adapter.
type Store struct {
	mu      sync.RWMutex
	state   memoryState
	engine  *RulesEngine
	adapter *docstore.Adapter
	ids     IDGenerator
	nowFn   func() time.Time
	logger  *zap.Logger
	hasher  PasswordHasher
	seeds   seedCredentials
}

// NewStore constructs an empty store backed by the provided rules engine.
// Call Load to populate it from the adapter.
func NewStore(engine *RulesEngine, opts ...StoreOption) *Store {
	if engine == nil {
		engine = NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		ids:    ident.New(),
		nowFn:  func() time.Time { return time.Now().UTC() },
		logger: zap.NewNop(),
		hasher: NewPasswordHasher(0),
		seeds:  seedCredentials{root: DefaultSuperAdminPassword, demoAdmin: DefaultDemoAdminPassword},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.adapter == nil {
		s.adapter = docstore.NewAdapter(docstore.NewMemory(), docstore.WithLogger(s.logger))
	}
	return s
}

// Adapter returns the durable document adapter.
func (s *Store) Adapter() *docstore.Adapter { return s.adapter }

// RulesEngine returns the engine evaluated on every transaction.
func (s *Store) RulesEngine() *RulesEngine { return s.engine }

// Now returns the store clock reading.
func (s *Store) Now() time.Time { return s.nowFn() }

// Transaction represents a mutation set applied to the store state.
type Transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	dirty   map[EntityType]struct{}
	now     time.Time
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Blocking rule violations discard the copy; otherwise it is committed and
// the touched collections are persisted.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx *Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Transaction{
		store: s,
		state: s.state.clone(),
		dirty: make(map[EntityType]struct{}),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, RuleViolationError{Result: res}
		}
		for _, v := range res.Violations {
			if v.Severity == SeverityWarn {
				s.logger.Warn("rule warning",
					zap.String("rule", v.Rule),
					zap.String("entity", string(v.Entity)),
					zap.String("entity_id", v.EntityID),
					zap.String("message", v.Message),
				)
			}
		}
	}

	s.state = tx.state
	s.persist(ctx, tx.dirty)
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// persistOrder fixes the write order of collections touched by a transaction.
var persistOrder = []EntityType{
	EntityOrganization,
	EntityUser,
	EntityEvent,
	EntityTable,
	EntitySale,
	EntitySaaSTransaction,
	EntitySaaSExpense,
	EntityAnnouncement,
	EntityNotification,
}

func (s *Store) persist(ctx context.Context, dirty map[EntityType]struct{}) {
	for _, entity := range persistOrder {
		if _, ok := dirty[entity]; !ok {
			continue
		}
		key, value := s.state.document(entity)
		// Write failures are logged by the adapter; the committed state stands.
		_ = s.adapter.Save(ctx, key, value)
	}
}

func (s memoryState) document(entity EntityType) (string, any) {
	switch entity {
	case EntityOrganization:
		return docstore.KeyOrganizations, s.organizations
	case EntityUser:
		return docstore.KeyUsers, s.users
	case EntityEvent:
		return docstore.KeyEvents, s.events
	case EntityTable:
		return docstore.KeyTables, s.tables
	case EntitySale:
		return docstore.KeySales, s.sales
	case EntitySaaSTransaction:
		return docstore.KeySaaSTransactions, s.transactions
	case EntitySaaSExpense:
		return docstore.KeySaaSExpenses, s.expenses
	case EntityAnnouncement:
		return docstore.KeyAnnouncements, s.announcements
	default:
		return docstore.KeyNotifications, s.notifications
	}
}
