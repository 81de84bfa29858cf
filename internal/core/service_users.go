package core

import (
	"context"
	"fmt"

	"ticketdesk/internal/ident"
	"ticketdesk/internal/sanitize"
	"ticketdesk/pkg/domain"
)

// createUser applies the tenant and privilege policy for new users and
// stores the hashed credentials.
func (s *Service) createUser(tx *Transaction, actor User, draft UserDraft) (User, error) {
	if draft.Role == domain.RoleSuperAdmin {
		return User{}, ErrForbidden
	}
	if draft.Role == "" {
		draft.Role = domain.RoleStaff
	}
	perms := append([]Permission{}, draft.Permissions...)
	if !actor.IsSuperAdmin() {
		for _, p := range perms {
			if p == domain.PermManageOrganizations {
				return User{}, ErrForbidden
			}
		}
	}
	username := sanitize.StringN(draft.Username, sanitize.NameMaxLen)
	if username == "" {
		return User{}, fmt.Errorf("username required")
	}
	hash, err := s.store.hasher.Hash(draft.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return tx.CreateUser(User{
		ID:             tx.newID(ident.PrefixUser),
		OrganizationID: draft.OrganizationID,
		Username:       username,
		PasswordHash:   hash,
		Name:           sanitize.StringN(draft.Name, sanitize.NameMaxLen),
		Role:           draft.Role,
		Permissions:    perms,
	})
}

// AddUser creates a user. Tenant actors always create inside their own
// organization; super-admins may target any organization.
func (s *Service) AddUser(ctx context.Context, actor User, draft UserDraft) (User, Result, error) {
	var created User
	res, err := s.write(ctx, "add_user", actor, domain.PermManageStaff, func(tx *Transaction, actor User) (string, error) {
		draft.OrganizationID = targetOrganization(actor, draft.OrganizationID)
		if _, ok := tx.View().FindOrganization(draft.OrganizationID); !ok {
			return "", ErrNotFound{Entity: EntityOrganization, ID: draft.OrganizationID}
		}
		u, err := s.createUser(tx, actor, draft)
		if err != nil {
			return "", err
		}
		created = u.Public()
		return u.ID, nil
	})
	return created, res, err
}

// DeleteUser removes a user without touching the sales or history entries
// that reference it. The super-admin cannot be deleted; a missing user is a
// no-op.
func (s *Service) DeleteUser(ctx context.Context, actor User, userID string) (Result, error) {
	return s.write(ctx, "delete_user", actor, domain.PermManageStaff, func(tx *Transaction, actor User) (string, error) {
		target, ok := tx.View().FindUser(userID)
		if !ok {
			return userID, nil
		}
		if target.IsSuperAdmin() {
			return userID, ErrProtectedEntity
		}
		if !sameTenant(actor, target.OrganizationID) {
			return userID, ErrForbidden
		}
		return userID, tx.DeleteUser(userID)
	})
}

// VisibleUsers returns the users the actor may see, without credentials.
func (s *Service) VisibleUsers(ctx context.Context, actor User) ([]User, error) {
	var out []User
	err := s.read(ctx, "visible_users", actor, "", func(view TransactionView, actor User) error {
		out = visibleUsers(view, actor)
		return nil
	})
	return out, err
}

func visibleUsers(view TransactionView, actor User) []User {
	out := []User{}
	for _, u := range view.ListUsers() {
		if sameTenant(actor, u.OrganizationID) {
			out = append(out, u.Public())
		}
	}
	return out
}
