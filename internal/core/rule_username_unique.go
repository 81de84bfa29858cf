package core

import (
	"context"
	"fmt"

	"ticketdesk/pkg/domain"
)

// NewUsernameUniqueRule blocks users whose login name is already taken.
// Login scans every user, so names are unique system-wide.
func NewUsernameUniqueRule() domain.Rule {
	return usernameUniqueRule{}
}

type usernameUniqueRule struct{}

func (usernameUniqueRule) Name() string { return "username_unique" }

func (r usernameUniqueRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	touched := changed[domain.User](changes, domain.EntityUser)
	if len(touched) == 0 {
		return res, nil
	}
	users := view.ListUsers()
	for _, u := range touched {
		for _, other := range users {
			if other.ID == u.ID || other.Username != u.Username {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("username %q already used by %s", u.Username, other.ID),
				Entity:   domain.EntityUser,
				EntityID: u.ID,
			})
			break
		}
	}
	return res, nil
}
