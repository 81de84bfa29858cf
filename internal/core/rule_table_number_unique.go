package core

import (
	"context"
	"fmt"

	"ticketdesk/pkg/domain"
)

// NewTableNumberUniqueRule blocks tables whose number collides,
// case-insensitively, with another table of the same event.
func NewTableNumberUniqueRule() domain.Rule {
	return tableNumberUniqueRule{}
}

type tableNumberUniqueRule struct{}

func (tableNumberUniqueRule) Name() string { return "table_number_unique" }

func (r tableNumberUniqueRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	touched := changed[domain.Table](changes, domain.EntityTable)
	if len(touched) == 0 {
		return res, nil
	}
	tables := view.ListTables()
	reported := make(map[string]struct{})
	for _, t := range touched {
		if _, ok := reported[t.ID]; ok {
			continue
		}
		for _, other := range tables {
			if other.ID == t.ID || other.EventID != t.EventID || other.NumberKey() != t.NumberKey() {
				continue
			}
			reported[t.ID] = struct{}{}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("table number %q already used by %s in event %s", t.Number, other.ID, t.EventID),
				Entity:   domain.EntityTable,
				EntityID: t.ID,
			})
			break
		}
	}
	return res, nil
}
