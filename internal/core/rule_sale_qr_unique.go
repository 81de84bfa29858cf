package core

import (
	"context"
	"fmt"

	"ticketdesk/pkg/domain"
)

// NewSaleQRUniqueRule blocks sales carrying a ticket code already issued to
// another sale.
func NewSaleQRUniqueRule() domain.Rule {
	return saleQRUniqueRule{}
}

type saleQRUniqueRule struct{}

func (saleQRUniqueRule) Name() string { return "sale_qr_unique" }

func (r saleQRUniqueRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	touched := changed[domain.Sale](changes, domain.EntitySale)
	if len(touched) == 0 {
		return res, nil
	}
	owners := make(map[string][]string)
	for _, s := range view.ListSales() {
		owners[s.QRCode] = append(owners[s.QRCode], s.ID)
	}
	for _, s := range touched {
		if len(owners[s.QRCode]) < 2 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("qr code %s shared by sales %v", s.QRCode, owners[s.QRCode]),
			Entity:   domain.EntitySale,
			EntityID: s.ID,
		})
	}
	return res, nil
}
