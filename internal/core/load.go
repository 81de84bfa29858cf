package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ticketdesk/internal/docstore"
	"ticketdesk/pkg/domain"
)

// Seed identifiers.
const (
	SuperAdminID    = "sys-admin"
	SuperAdminLogin = "root"
	DemoAdminID     = "admin-1"
	DemoAdminLogin  = "admin"
)

func seedOrganization(now time.Time) Organization {
	return Organization{
		ID:                 domain.DefaultOrganizationID,
		Name:               "Demo Organizasyon",
		CommercialTitle:    "Demo Turizm Ltd. Şti.",
		SubscriptionStatus: domain.SubscriptionActive,
		IsActive:           true,
		CreatedAt:          now,
	}
}

func superAdmin(hash string) User {
	return User{
		ID:             SuperAdminID,
		OrganizationID: domain.SystemOrganizationID,
		Username:       SuperAdminLogin,
		PasswordHash:   hash,
		Name:           "Sistem Yöneticisi",
		Role:           domain.RoleSuperAdmin,
		Permissions:    domain.AllPermissions(),
	}
}

func demoAdmin(hash string) User {
	return User{
		ID:             DemoAdminID,
		OrganizationID: domain.DefaultOrganizationID,
		Username:       DemoAdminLogin,
		PasswordHash:   hash,
		Name:           "Firma Yöneticisi",
		Role:           domain.RoleAdmin,
		Permissions:    domain.TenantAdminPermissions(),
	}
}

// Load replaces the in-memory state with the persisted documents. Missing or
// corrupt documents fall back to their seed defaults. The super-admin
// definition is reasserted and stored credentials are migrated to bcrypt;
// the resulting users document is written back.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	a := s.adapter
	st := memoryState{
		organizations: docstore.GetOr(ctx, a, docstore.KeyOrganizations, []Organization{seedOrganization(now)}),
		events:        docstore.GetOr(ctx, a, docstore.KeyEvents, []Event{}),
		tables:        docstore.GetOr(ctx, a, docstore.KeyTables, []Table{}),
		sales:         docstore.GetOr(ctx, a, docstore.KeySales, []Sale{}),
		transactions:  docstore.GetOr(ctx, a, docstore.KeySaaSTransactions, []SaaSTransaction{}),
		expenses:      docstore.GetOr(ctx, a, docstore.KeySaaSExpenses, []SaaSExpense{}),
		announcements: docstore.GetOr(ctx, a, docstore.KeyAnnouncements, []Announcement{}),
		notifications: docstore.GetOr(ctx, a, docstore.KeyNotifications, []Notification{}),
	}

	users := docstore.GetOr(ctx, a, docstore.KeyUsers, []User{})
	if len(users) == 0 {
		hash, err := s.hasher.Hash(s.seeds.demoAdmin)
		if err != nil {
			return fmt.Errorf("hash seed credentials: %w", err)
		}
		users = []User{demoAdmin(hash)}
	}
	rootHash, err := s.hasher.Hash(s.seeds.root)
	if err != nil {
		return fmt.Errorf("hash seed credentials: %w", err)
	}
	reasserted := make([]User, 0, len(users)+1)
	migrated, dropped := 0, 0
	for _, u := range users {
		if u.Username == SuperAdminLogin || u.IsSuperAdmin() || u.ID == SuperAdminID {
			continue
		}
		if u.OrganizationID == "" {
			u.OrganizationID = domain.DefaultOrganizationID
		}
		if u.Permissions == nil {
			u.Permissions = []Permission{}
		}
		if u.PasswordHash != "" && !IsHashed(u.PasswordHash) {
			hash, err := s.hasher.Hash(u.PasswordHash)
			if err != nil {
				// The user keeps the account but cannot log in until an admin
				// recreates the credential.
				s.logger.Error("stored credential dropped", zap.String("user_id", u.ID), zap.Error(err))
				u.PasswordHash = ""
				dropped++
			} else {
				u.PasswordHash = hash
				migrated++
			}
		}
		reasserted = append(reasserted, u)
	}
	st.users = append(reasserted, superAdmin(rootHash))

	for i := range st.events {
		if st.events[i].OrganizationID == "" {
			st.events[i].OrganizationID = domain.DefaultOrganizationID
		}
		if st.events[i].Categories == nil {
			st.events[i].Categories = []Category{}
		}
	}
	for i := range st.sales {
		if st.sales[i].History == nil {
			st.sales[i].History = []HistoryEntry{}
		}
	}
	if len(st.notifications) > NotificationLimit {
		st.notifications = st.notifications[:NotificationLimit]
	}
	st.normalize()

	s.state = st
	if err := s.adapter.Save(ctx, docstore.KeyUsers, st.users); err != nil {
		s.logger.Warn("users document not written back", zap.Error(err))
	}
	s.logger.Info("state loaded",
		zap.Int("organizations", len(st.organizations)),
		zap.Int("users", len(st.users)),
		zap.Int("events", len(st.events)),
		zap.Int("tables", len(st.tables)),
		zap.Int("sales", len(st.sales)),
		zap.Int("migrated_credentials", migrated),
		zap.Int("dropped_credentials", dropped),
	)
	return nil
}

// normalize replaces nil collections decoded from "null" documents.
func (s *memoryState) normalize() {
	if s.organizations == nil {
		s.organizations = []Organization{}
	}
	if s.events == nil {
		s.events = []Event{}
	}
	if s.tables == nil {
		s.tables = []Table{}
	}
	if s.sales == nil {
		s.sales = []Sale{}
	}
	if s.transactions == nil {
		s.transactions = []SaaSTransaction{}
	}
	if s.expenses == nil {
		s.expenses = []SaaSExpense{}
	}
	if s.announcements == nil {
		s.announcements = []Announcement{}
	}
	if s.notifications == nil {
		s.notifications = []Notification{}
	}
}
