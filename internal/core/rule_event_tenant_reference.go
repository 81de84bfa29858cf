package core

import (
	"context"
	"fmt"

	"ticketdesk/pkg/domain"
)

// NewEventTenantReferenceRule blocks events owned by an organization that
// does not exist.
func NewEventTenantReferenceRule() domain.Rule {
	return eventTenantReferenceRule{}
}

type eventTenantReferenceRule struct{}

func (eventTenantReferenceRule) Name() string { return "event_tenant_reference" }

func (r eventTenantReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, e := range changed[domain.Event](changes, domain.EntityEvent) {
		if _, ok := view.FindOrganization(e.OrganizationID); ok {
			continue
		}
		// Skip events removed later in the same transaction.
		if _, ok := view.FindEvent(e.ID); !ok {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("event %s references missing organization %q", e.ID, e.OrganizationID),
			Entity:   domain.EntityEvent,
			EntityID: e.ID,
		})
	}
	return res, nil
}
