package core

import "ticketdesk/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewTableNumberUniqueRule())
	engine.Register(NewSaleQRUniqueRule())
	engine.Register(NewSaleDebtConsistencyRule())
	engine.Register(NewEventTenantReferenceRule())
	engine.Register(NewUserTenantReferenceRule())
	engine.Register(NewSingleSuperAdminRule())
	engine.Register(NewUsernameUniqueRule())
	engine.Register(NewEntryCapacityRule())
	return engine
}

// FullScanChanges synthesizes a create change for every record in view so
// change-driven rules can audit a whole dataset.
func FullScanChanges(view TransactionView) []Change {
	var changes []Change
	for _, o := range view.ListOrganizations() {
		changes = append(changes, Change{Entity: EntityOrganization, Action: ActionCreate, After: o})
	}
	for _, u := range view.ListUsers() {
		changes = append(changes, Change{Entity: EntityUser, Action: ActionCreate, After: u})
	}
	for _, e := range view.ListEvents() {
		changes = append(changes, Change{Entity: EntityEvent, Action: ActionCreate, After: e})
	}
	for _, t := range view.ListTables() {
		changes = append(changes, Change{Entity: EntityTable, Action: ActionCreate, After: t})
	}
	for _, s := range view.ListSales() {
		changes = append(changes, Change{Entity: EntitySale, Action: ActionCreate, After: s})
	}
	return changes
}

// changed collects the post-images of created or updated records of entity.
func changed[T any](changes []domain.Change, entity domain.EntityType) []T {
	var out []T
	for _, c := range changes {
		if c.Entity != entity || c.After == nil {
			continue
		}
		if v, ok := c.After.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func touches(changes []domain.Change, entity domain.EntityType) bool {
	for _, c := range changes {
		if c.Entity == entity {
			return true
		}
	}
	return false
}
