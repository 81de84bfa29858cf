package core

import (
	"context"
	"fmt"

	"ticketdesk/pkg/domain"
)

// NewEntryCapacityRule warns when more people were admitted on a sale than
// its table seats. Entry is never clamped.
func NewEntryCapacityRule() domain.Rule {
	return entryCapacityRule{}
}

type entryCapacityRule struct{}

func (entryCapacityRule) Name() string { return "entry_capacity" }

func (r entryCapacityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, s := range changed[domain.Sale](changes, domain.EntitySale) {
		if s.PeopleEntered == 0 {
			continue
		}
		capacity := 0
		if t, ok := view.FindTable(s.TableID); ok {
			capacity = t.Capacity
		}
		if s.PeopleEntered <= capacity {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("sale %s admitted %d people, table %s seats %d", s.ID, s.PeopleEntered, s.TableID, capacity),
			Entity:   domain.EntitySale,
			EntityID: s.ID,
		})
	}
	return res, nil
}
