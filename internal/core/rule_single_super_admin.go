package core

import (
	"context"
	"fmt"

	"ticketdesk/pkg/domain"
)

// NewSingleSuperAdminRule blocks any user change that leaves the system with
// other than exactly one super-admin.
func NewSingleSuperAdminRule() domain.Rule {
	return singleSuperAdminRule{}
}

type singleSuperAdminRule struct{}

func (singleSuperAdminRule) Name() string { return "single_super_admin" }

func (r singleSuperAdminRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touches(changes, domain.EntityUser) {
		return res, nil
	}
	var ids []string
	for _, u := range view.ListUsers() {
		if u.IsSuperAdmin() {
			ids = append(ids, u.ID)
		}
	}
	if len(ids) == 1 {
		return res, nil
	}
	res.Violations = append(res.Violations, domain.Violation{
		Rule:     r.Name(),
		Severity: domain.SeverityBlock,
		Message:  fmt.Sprintf("expected exactly one super admin, found %d %v", len(ids), ids),
		Entity:   domain.EntityUser,
	})
	return res, nil
}
