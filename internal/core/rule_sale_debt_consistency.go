package core

import (
	"context"
	"fmt"
	"math"

	"ticketdesk/pkg/domain"
)

// NewSaleDebtConsistencyRule blocks sales whose remaining debt disagrees
// with max(0, final - paid).
func NewSaleDebtConsistencyRule() domain.Rule {
	return saleDebtConsistencyRule{}
}

type saleDebtConsistencyRule struct{}

func (saleDebtConsistencyRule) Name() string { return "sale_debt_consistency" }

func (r saleDebtConsistencyRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, s := range changed[domain.Sale](changes, domain.EntitySale) {
		want := domain.RemainingDebt(s.Amount(), s.PaidAmount)
		if math.Abs(s.RemainingDebt-want) <= domain.DebtTolerance {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("sale %s remaining debt %.2f, expected %.2f", s.ID, s.RemainingDebt, want),
			Entity:   domain.EntitySale,
			EntityID: s.ID,
		})
	}
	return res, nil
}
