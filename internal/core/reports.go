package core

import (
	"context"
	"sort"

	"ticketdesk/pkg/domain"
)

// EventStats summarizes the sales of one event.
type EventStats struct {
	TotalRevenue   float64
	TotalCollected float64
	TotalDebt      float64
	TicketsSold    int
	TablesTotal    int
	TablesSold     int
	OccupancyRate  float64
}

// StaffPerformance aggregates the sales of one seller.
type StaffPerformance struct {
	StaffID   string
	StaffName string
	Count     int
	Revenue   float64
	Collected float64
	Debt      float64
}

// CategorySales counts sold tables of one category.
type CategorySales struct {
	CategoryID string
	Name       string
	Color      string
	Sold       int
	Total      int
}

// OrganizationFinance is the ledger position of one tenant.
type OrganizationFinance struct {
	OrganizationID string
	Name           string
	Balance        float64
}

// PlatformFinance is the operator's profit and loss.
type PlatformFinance struct {
	TotalInvoiced float64
	TotalPayments float64
	TotalRefunds  float64
	TotalExpenses float64
	NetProfit     float64
	Organizations []OrganizationFinance
}

func eventSales(view TransactionView, eventID string) []Sale {
	var out []Sale
	for _, s := range view.ListSales() {
		if s.EventID == eventID {
			out = append(out, s)
		}
	}
	return out
}

// EventStats computes revenue, collection, debt, and occupancy of eventID.
func (s *Service) EventStats(ctx context.Context, actor User, eventID string) (EventStats, error) {
	var out EventStats
	err := s.read(ctx, "event_stats", actor, domain.PermViewDashboard, func(view TransactionView, actor User) error {
		if _, err := guardEvent(view, actor, eventID); err != nil {
			return err
		}
		for _, sale := range eventSales(view, eventID) {
			out.TotalRevenue += sale.Amount()
			out.TotalCollected += sale.PaidAmount
			out.TotalDebt += sale.RemainingDebt
			out.TicketsSold++
		}
		for _, t := range view.ListTables() {
			if t.EventID != eventID {
				continue
			}
			out.TablesTotal++
			if t.Status == domain.TableSold {
				out.TablesSold++
			}
		}
		if out.TablesTotal > 0 {
			out.OccupancyRate = float64(out.TablesSold) / float64(out.TablesTotal) * 100
		}
		return nil
	})
	return out, err
}

// StaffPerformance ranks the sellers of eventID by revenue. Sellers that no
// longer exist are reported under UnknownName.
func (s *Service) StaffPerformance(ctx context.Context, actor User, eventID string) ([]StaffPerformance, error) {
	var out []StaffPerformance
	err := s.read(ctx, "staff_performance", actor, domain.PermViewDashboard, func(view TransactionView, actor User) error {
		if _, err := guardEvent(view, actor, eventID); err != nil {
			return err
		}
		byStaff := make(map[string]*StaffPerformance)
		var order []string
		for _, sale := range eventSales(view, eventID) {
			p, ok := byStaff[sale.SoldBy]
			if !ok {
				p = &StaffPerformance{StaffID: sale.SoldBy, StaffName: view.UserName(sale.SoldBy)}
				byStaff[sale.SoldBy] = p
				order = append(order, sale.SoldBy)
			}
			p.Count++
			p.Revenue += sale.Amount()
			p.Collected += sale.PaidAmount
			p.Debt += sale.RemainingDebt
		}
		out = make([]StaffPerformance, 0, len(order))
		for _, id := range order {
			out = append(out, *byStaff[id])
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
		return nil
	})
	return out, err
}

// CategorySales counts sold and total tables per category of eventID, in
// category order.
func (s *Service) CategorySales(ctx context.Context, actor User, eventID string) ([]CategorySales, error) {
	var out []CategorySales
	err := s.read(ctx, "category_sales", actor, domain.PermViewDashboard, func(view TransactionView, actor User) error {
		e, err := guardEvent(view, actor, eventID)
		if err != nil {
			return err
		}
		index := make(map[string]int, len(e.Categories))
		out = make([]CategorySales, 0, len(e.Categories))
		for i, c := range e.Categories {
			index[c.ID] = i
			out = append(out, CategorySales{CategoryID: c.ID, Name: c.Name, Color: c.Color})
		}
		for _, t := range view.ListTables() {
			i, ok := index[t.CategoryID]
			if t.EventID != eventID || !ok {
				continue
			}
			out[i].Total++
			if t.Status == domain.TableSold {
				out[i].Sold++
			}
		}
		return nil
	})
	return out, err
}

// DebtorSales lists sales of eventID with outstanding debt.
func (s *Service) DebtorSales(ctx context.Context, actor User, eventID string) ([]Sale, error) {
	var out []Sale
	err := s.read(ctx, "debtor_sales", actor, domain.PermViewCustomers, func(view TransactionView, actor User) error {
		if _, err := guardEvent(view, actor, eventID); err != nil {
			return err
		}
		out = []Sale{}
		for _, sale := range eventSales(view, eventID) {
			if sale.RemainingDebt > 0 {
				out = append(out, sale)
			}
		}
		return nil
	})
	return out, err
}

// PlatformFinance folds the ledger and operating costs. Net profit is
// invoiced minus refunds minus expenses.
func (s *Service) PlatformFinance(ctx context.Context, actor User) (PlatformFinance, error) {
	var out PlatformFinance
	err := s.read(ctx, "platform_finance", actor, domain.PermManageOrganizations, func(view TransactionView, _ User) error {
		entries := view.ListSaaSTransactions()
		for _, t := range entries {
			switch t.Type {
			case domain.TransactionInvoice:
				out.TotalInvoiced += t.Amount
			case domain.TransactionPayment:
				out.TotalPayments += t.Amount
			case domain.TransactionRefund:
				out.TotalRefunds += t.Amount
			}
		}
		for _, e := range view.ListSaaSExpenses() {
			out.TotalExpenses += e.Amount
		}
		out.NetProfit = out.TotalInvoiced - out.TotalRefunds - out.TotalExpenses
		for _, o := range view.ListOrganizations() {
			out.Organizations = append(out.Organizations, OrganizationFinance{
				OrganizationID: o.ID,
				Name:           o.Name,
				Balance:        balance(entries, o.ID),
			})
		}
		return nil
	})
	return out, err
}
