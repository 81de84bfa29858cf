package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ticketdesk/pkg/domain"
)

func TestSaleThenCancelFreesTable(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	v := newVenue(t, svc, root, "Org1")
	require.Equal(t, 400.0, v.table.TotalPrice)

	sale := addSale(t, svc, v.admin, v.table.ID, 400, 400)
	require.Equal(t, domain.PaymentFull, sale.PaymentStatus)
	require.Equal(t, v.admin.ID, sale.SoldBy)
	require.NotEmpty(t, sale.QRCode)
	require.Len(t, sale.History, 1)
	require.Equal(t, domain.HistorySale, sale.History[0].Action)
	require.Equal(t, "400 collected", sale.History[0].Details)

	tbl, _ := snapshot(t, svc).FindTable(v.table.ID)
	require.Equal(t, domain.TableSold, tbl.Status)

	notes, err := svc.Notifications(ctx, v.admin)
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	require.Equal(t, domain.NotificationSale, notes[0].Type)
	require.Equal(t, v.org.ID, notes[0].OrganizationID)

	_, err = svc.CancelSale(ctx, v.admin, sale.ID)
	require.NoError(t, err)

	view := snapshot(t, svc)
	tbl, _ = view.FindTable(v.table.ID)
	require.Equal(t, domain.TableAvailable, tbl.Status)
	_, found := view.FindSale(sale.ID)
	require.False(t, found)
}

func TestPartialPaymentThenDebtCollection(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	v := newVenue(t, svc, root, "Org1")

	sale := addSale(t, svc, v.admin, v.table.ID, 500, 300)
	require.Equal(t, 200.0, sale.RemainingDebt)
	require.Equal(t, domain.PaymentPartial, sale.PaymentStatus)

	check, err := svc.CheckTicket(ctx, v.admin, v.event.ID, sale.QRCode)
	require.NoError(t, err)
	require.Equal(t, TicketSuccess, check.Code)
	require.True(t, check.Valid)
	require.NotNil(t, check.Table)
	require.Equal(t, v.table.ID, check.Table.ID)

	updated, _, err := svc.CollectDebtAndApprove(ctx, v.admin, sale.ID, 2, nil)
	require.NoError(t, err)
	require.Equal(t, 0.0, updated.RemainingDebt)
	require.Equal(t, domain.PaymentFull, updated.PaymentStatus)
	require.Equal(t, 500.0, updated.PaidAmount)
	require.Equal(t, 2, updated.PeopleEntered)
	require.True(t, updated.TicketUsed)
	require.NotNil(t, updated.EntryTime)
	last := updated.History[len(updated.History)-1]
	require.Equal(t, domain.HistoryDebtCollection, last.Action)

	notes, err := svc.Notifications(ctx, v.admin)
	require.NoError(t, err)
	require.Equal(t, domain.NotificationSuccess, notes[0].Type)
}

func TestAddSaleRejectsSoldTable(t *testing.T) {
	svc, root := newTestService(t)
	v := newVenue(t, svc, root, "Org1")
	addSale(t, svc, v.admin, v.table.ID, 400, 400)

	_, _, err := svc.AddSale(context.Background(), v.admin, Sale{TableID: v.table.ID, FinalAmount: 400, PaidAmount: 400})
	require.ErrorIs(t, err, ErrTableUnavailable)
	require.Len(t, snapshot(t, svc).ListSales(), 1)
}

func TestAddSaleRejectsDuplicateCode(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	v := newVenue(t, svc, root, "Org1")
	first := addSale(t, svc, v.admin, v.table.ID, 400, 400)
	other := addTable(t, svc, v.admin, v.event.ID, v.cat.ID, "A-2", 2)

	_, _, err := svc.AddSale(ctx, v.admin, Sale{TableID: other.ID, QRCode: first.QRCode, FinalAmount: 200})
	require.ErrorIs(t, err, ErrDuplicateQRCode)
}

func TestCheckTicketOutcomes(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	v := newVenue(t, svc, root, "Org1")
	sale := addSale(t, svc, v.admin, v.table.ID, 400, 400)

	second := addEvent(t, svc, v.admin, "Second Night")
	other := newVenue(t, svc, root, "Org2")

	cases := []struct {
		name    string
		actor   User
		eventID string
		code    string
		want    string
		message string
	}{
		{"unknown code", v.admin, v.event.ID, "QR-NOPE", TicketInvalid, "Invalid QR code."},
		{"empty code", v.admin, v.event.ID, "", TicketInvalid, "Invalid QR code."},
		{"other event same org", v.admin, second.ID, sale.QRCode, TicketWrongEvent, "Ticket is for another event!"},
		{"other organization", other.admin, other.event.ID, sale.QRCode, TicketWrongEvent, "Ticket belongs to another organization!"},
		{"valid", v.admin, v.event.ID, sale.QRCode, TicketSuccess, "Valid ticket"},
		{"super-admin on the right event", root, v.event.ID, sale.QRCode, TicketSuccess, "Valid ticket"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.CheckTicket(ctx, tc.actor, tc.eventID, tc.code)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Code)
			require.Equal(t, tc.message, got.Message)
			require.Equal(t, tc.want == TicketSuccess, got.Valid)
		})
	}
}

func TestCheckTicketCapacityBoundary(t *testing.T) {
	cases := []struct {
		capacity int
		entered  int
		want     string
	}{
		{4, 0, TicketSuccess},
		{4, 3, TicketSuccess},
		{4, 4, TicketFull},
		{4, 5, TicketFull},
		{1, 0, TicketSuccess},
		{1, 1, TicketFull},
	}
	for _, tc := range cases {
		ctx := context.Background()
		svc, root := newTestService(t)
		_, admin := registerTenant(t, svc, root, "Org1")
		e := addEvent(t, svc, admin, "Gala")
		tbl := addTable(t, svc, admin, e.ID, "", "T-1", tc.capacity)
		sale := addSale(t, svc, admin, tbl.ID, 100, 100)
		if tc.entered > 0 {
			_, _, err := svc.ApproveEntry(ctx, admin, sale.ID, tc.entered, "", nil)
			require.NoError(t, err)
		}
		got, err := svc.CheckTicket(ctx, admin, e.ID, sale.QRCode)
		require.NoError(t, err)
		require.Equalf(t, tc.want, got.Code, "capacity %d entered %d", tc.capacity, tc.entered)
	}
}

func TestCheckTicketRequiresScanPermission(t *testing.T) {
	svc, root := newTestService(t)
	v := newVenue(t, svc, root, "Org1")
	seller := addStaff(t, svc, v.admin, "seller", domain.PermMakeSales)
	_, err := svc.CheckTicket(context.Background(), seller, v.event.ID, "QR-1")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestApproveEntryRecordsHistoryAndAlerts(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	v := newVenue(t, svc, root, "Org1")
	paid := addSale(t, svc, v.admin, v.table.ID, 400, 400)

	updated, _, err := svc.ApproveEntry(ctx, v.admin, paid.ID, 3, "", nil)
	require.NoError(t, err)
	require.Equal(t, 3, updated.PeopleEntered)
	require.True(t, updated.TicketUsed)
	last := updated.History[len(updated.History)-1]
	require.Equal(t, domain.HistoryEntryApproval, last.Action)
	require.Equal(t, "3 people entered. Note: None", last.Details)

	notes, err := svc.Notifications(ctx, v.admin)
	require.NoError(t, err)
	require.Equal(t, 0, countWhere(notes, func(n Notification) bool { return n.Type == domain.NotificationAlert }))

	manager := addStaff(t, svc, v.admin, "manager", domain.PermScanTickets)
	updated, _, err = svc.ApproveEntry(ctx, v.admin, paid.ID, 2, "VIP guest", &manager)
	require.NoError(t, err)
	require.Equal(t, 5, updated.PeopleEntered, "entry over capacity is not clamped")
	last = updated.History[len(updated.History)-1]
	require.Equal(t, manager.ID, last.StaffID)
	require.Equal(t, "2 people entered. Note: VIP guest", last.Details)

	notes, err = svc.Notifications(ctx, v.admin)
	require.NoError(t, err)
	require.Equal(t, domain.NotificationAlert, notes[0].Type)
	require.True(t, strings.Contains(notes[0].Message, manager.Name))
}

func TestApproveEntryWithDebtAlerts(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	v := newVenue(t, svc, root, "Org1")
	sale := addSale(t, svc, v.admin, v.table.ID, 500, 300)

	_, _, err := svc.ApproveEntry(ctx, v.admin, sale.ID, 2, "pays later", nil)
	require.NoError(t, err)
	notes, err := svc.Notifications(ctx, v.admin)
	require.NoError(t, err)
	require.Equal(t, domain.NotificationAlert, notes[0].Type)
	require.Contains(t, notes[0].Message, "System")

	_, _, err = svc.ApproveEntry(ctx, v.admin, sale.ID, -1, "", nil)
	require.ErrorIs(t, err, ErrInvalidCount)
}

func TestUpdateSaleAndTable(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	v := newVenue(t, svc, root, "Org1")
	sale := addSale(t, svc, v.admin, v.table.ID, 400, 400)
	target := addTable(t, svc, v.admin, v.event.ID, v.cat.ID, "B-7", 6)

	hint := 10
	moved, _, err := svc.UpdateSaleAndTable(ctx, v.admin, sale.ID, target.ID, &hint)
	require.NoError(t, err)
	require.Equal(t, target.ID, moved.TableID)
	last := moved.History[len(moved.History)-1]
	require.Equal(t, domain.HistoryEdit, last.Action)
	require.Equal(t, "Table changed: A-1 -> B-7", last.Details)

	view := snapshot(t, svc)
	oldTbl, _ := view.FindTable(v.table.ID)
	newTbl, _ := view.FindTable(target.ID)
	require.Equal(t, domain.TableAvailable, oldTbl.Status)
	require.Equal(t, domain.TableSold, newTbl.Status)
	require.Equal(t, 6, newTbl.Capacity, "capacity hint is not applied")

	notes, err := svc.Notifications(ctx, v.admin)
	require.NoError(t, err)
	require.Equal(t, domain.NotificationInfo, notes[0].Type)

	same, _, err := svc.UpdateSaleAndTable(ctx, v.admin, sale.ID, target.ID, nil)
	require.NoError(t, err)
	require.Equal(t, "Sale updated.", same.History[len(same.History)-1].Details)
	require.Len(t, same.History, 3)
}

func TestUpdateSaleAndTableRejectsSoldTarget(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	v := newVenue(t, svc, root, "Org1")
	first := addSale(t, svc, v.admin, v.table.ID, 400, 400)
	busy := addTable(t, svc, v.admin, v.event.ID, v.cat.ID, "A-2", 2)
	addSale(t, svc, v.admin, busy.ID, 200, 200)

	_, _, err := svc.UpdateSaleAndTable(ctx, v.admin, first.ID, busy.ID, nil)
	require.ErrorIs(t, err, ErrTableUnavailable)
	s, _ := snapshot(t, svc).FindSale(first.ID)
	require.Equal(t, v.table.ID, s.TableID)
	require.Len(t, s.History, 1)
}

func TestUpdateSaleAndTableStaysWithinEvent(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	v := newVenue(t, svc, root, "Org1")
	sale := addSale(t, svc, v.admin, v.table.ID, 400, 400)
	otherEvent := addEvent(t, svc, v.admin, "Org1 Matinee")
	foreign := addTable(t, svc, v.admin, otherEvent.ID, "", "T-9", 4)

	_, _, err := svc.UpdateSaleAndTable(ctx, v.admin, sale.ID, foreign.ID, nil)
	require.ErrorIs(t, err, ErrTableEventMismatch)

	view := snapshot(t, svc)
	s, _ := view.FindSale(sale.ID)
	require.Equal(t, v.table.ID, s.TableID)
	require.Equal(t, v.event.ID, s.EventID)
	require.Len(t, s.History, 1)
	tbl, _ := view.FindTable(foreign.ID)
	require.Equal(t, domain.TableAvailable, tbl.Status)

	check, err := svc.CheckTicket(ctx, v.admin, v.event.ID, sale.QRCode)
	require.NoError(t, err)
	require.Equal(t, TicketSuccess, check.Code)
}

func TestSalesTenantIsolation(t *testing.T) {
	ctx := context.Background()
	svc, root := newTestService(t)
	a := newVenue(t, svc, root, "OrgA")
	b := newVenue(t, svc, root, "OrgB")
	saleA := addSale(t, svc, a.admin, a.table.ID, 400, 400)
	addSale(t, svc, b.admin, b.table.ID, 400, 400)

	visible, err := svc.VisibleSales(ctx, b.admin)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.NotEqual(t, saleA.ID, visible[0].ID)

	all, err := svc.VisibleSales(ctx, root)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = svc.CancelSale(ctx, b.admin, saleA.ID)
	require.ErrorIs(t, err, ErrForbidden)
	_, _, err = svc.AddSale(ctx, b.admin, Sale{TableID: a.table.ID, FinalAmount: 1})
	require.ErrorIs(t, err, ErrForbidden)

	notes, err := svc.Notifications(ctx, b.admin)
	require.NoError(t, err)
	for _, n := range notes {
		require.Equal(t, b.org.ID, n.OrganizationID)
	}
}

func TestCancelMissingSaleIsNoop(t *testing.T) {
	svc, root := newTestService(t)
	v := newVenue(t, svc, root, "Org1")
	_, err := svc.CancelSale(context.Background(), v.admin, "sale-missing")
	require.NoError(t, err)
}
