package core

import (
	"context"
	"fmt"

	"ticketdesk/pkg/domain"
)

// NewUserTenantReferenceRule blocks tenant users bound to an organization
// that does not exist. The super-admin belongs to the system pseudo-tenant
// and is exempt.
func NewUserTenantReferenceRule() domain.Rule {
	return userTenantReferenceRule{}
}

type userTenantReferenceRule struct{}

func (userTenantReferenceRule) Name() string { return "user_tenant_reference" }

func (r userTenantReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	users := changed[domain.User](changes, domain.EntityUser)
	if len(users) == 0 {
		return res, nil
	}
	present := make(map[string]struct{})
	for _, u := range view.ListUsers() {
		present[u.ID] = struct{}{}
	}
	for _, u := range users {
		if u.IsSuperAdmin() {
			continue
		}
		if _, ok := view.FindOrganization(u.OrganizationID); ok {
			continue
		}
		if _, ok := present[u.ID]; !ok {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("user %s references missing organization %q", u.ID, u.OrganizationID),
			Entity:   domain.EntityUser,
			EntityID: u.ID,
		})
	}
	return res, nil
}
