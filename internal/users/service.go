package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/payintrack/payintrack/internal/audit"
	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/shared"
)

var validate = validator.New()

// RoleSource yields the current role snapshot. Satisfied by the roles
// watcher.
type RoleSource interface {
	Roles() []authz.Role
	ByID(id string) (authz.Role, bool)
}

// CreateInput carries the fields for a new account.
type CreateInput struct {
	Username string `json:"username" validate:"required,min=3,max=40"`
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	RoleID   string `json:"roleId" validate:"required"`
}

// UpdateInput carries the changeable fields of an account. Password is
// optional; an empty value keeps the current credential. RoleID is optional
// and only the superadmin role may change it.
type UpdateInput struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
	RoleID   string `json:"roleId"`
}

// Service applies the authorization rules for account management.
type Service struct {
	store   *Store
	roles   RoleSource
	audit   audit.Recorder
	denials shared.DenialRecorder
}

// NewService constructs a Service.
func NewService(store *Store, roles RoleSource, recorder audit.Recorder, denials shared.DenialRecorder) *Service {
	if denials == nil {
		denials = shared.NopDenialRecorder{}
	}
	return &Service{store: store, roles: roles, audit: recorder, denials: denials}
}

// userManagementGate labels denials of the combined user_add/user_edit/
// user_delete gate in the denial metric, where no single permission was
// checked.
const userManagementGate = "user_management"

// List returns every account with credentials stripped. Reserved for user
// managers: the caller needs at least one of the user_* permissions.
func (s *Service) List(ctx context.Context, actor *authz.User) ([]authz.User, error) {
	if !s.canManageUsers(actor) {
		s.denials.RecordDenial(userManagementGate)
		return nil, shared.ErrAccessDenied
	}
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]authz.User, 0, len(users))
	for _, user := range users {
		out = append(out, user.Sanitize())
	}
	return out, nil
}

func (s *Service) canManageUsers(actor *authz.User) bool {
	roles := s.roles.Roles()
	return authz.HasPermission(actor, authz.PermUserAdd, roles) ||
		authz.HasPermission(actor, authz.PermUserEdit, roles) ||
		authz.HasPermission(actor, authz.PermUserDelete, roles)
}

// Get returns a single account with credentials stripped. Callers may always
// fetch their own account; anything else needs user management rights.
func (s *Service) Get(ctx context.Context, actor *authz.User, id string) (authz.User, error) {
	if (actor == nil || actor.ID != id) && !s.canManageUsers(actor) {
		s.denials.RecordDenial(userManagementGate)
		return authz.User{}, shared.ErrAccessDenied
	}
	user, err := s.store.Get(ctx, id)
	if err != nil {
		return authz.User{}, err
	}
	return user.Sanitize(), nil
}

// Authenticate checks a username/password pair and returns the matching
// account. Every failure mode collapses into ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (authz.User, error) {
	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return authz.User{}, shared.ErrInvalidCredentials
		}
		return authz.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return authz.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Create adds a new account.
func (s *Service) Create(ctx context.Context, actor *authz.User, input CreateInput) (authz.User, error) {
	if !authz.HasPermission(actor, authz.PermUserAdd, s.roles.Roles()) {
		s.denials.RecordDenial(string(authz.PermUserAdd))
		return authz.User{}, shared.ErrAccessDenied
	}
	if err := validate.Struct(input); err != nil {
		return authz.User{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if _, ok := s.roles.ByID(input.RoleID); !ok {
		return authz.User{}, fmt.Errorf("%w: unknown role %q", shared.ErrValidation, input.RoleID)
	}

	username := NormalizeUsername(input.Username)
	if _, err := s.store.GetByUsername(ctx, username); err == nil {
		return authz.User{}, shared.ErrConflict
	} else if !errors.Is(err, shared.ErrNotFound) {
		return authz.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return authz.User{}, err
	}
	user := authz.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         input.Name,
		RoleID:       input.RoleID,
		PasswordHash: string(hash),
	}
	if err := s.store.Put(ctx, user); err != nil {
		return authz.User{}, err
	}
	s.recordAudit(ctx, actor, audit.ActionCreate, user.ID, fmt.Sprintf("Created user %q", user.Username))
	return user.Sanitize(), nil
}

// Update changes an account's name, credential or role. Self-edit is always
// allowed; editing others requires user_edit or the superadmin role; role
// reassignment is superadmin-only. The protected account keeps its role.
func (s *Service) Update(ctx context.Context, actor *authz.User, id string, input UpdateInput) (authz.User, error) {
	if !authz.CanEditUser(actor, id, s.roles.Roles()) {
		s.denials.RecordDenial(string(authz.PermUserEdit))
		return authz.User{}, shared.ErrAccessDenied
	}
	if err := validate.Struct(input); err != nil {
		return authz.User{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	user, err := s.store.Get(ctx, id)
	if err != nil {
		return authz.User{}, err
	}

	if input.RoleID != "" && input.RoleID != user.RoleID {
		if !authz.IsSuperAdmin(actor) {
			s.denials.RecordDenial(string(authz.PermUserEdit))
			return authz.User{}, shared.ErrAccessDenied
		}
		if user.Protected || user.ID == authz.ProtectedUserID {
			return authz.User{}, shared.ErrProtectedEntity
		}
		if _, ok := s.roles.ByID(input.RoleID); !ok {
			return authz.User{}, fmt.Errorf("%w: unknown role %q", shared.ErrValidation, input.RoleID)
		}
		user.RoleID = input.RoleID
	}

	user.Name = input.Name
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return authz.User{}, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.store.Put(ctx, user); err != nil {
		return authz.User{}, err
	}
	s.recordAudit(ctx, actor, audit.ActionUpdate, user.ID, fmt.Sprintf("Updated user %q", user.Username))
	return user.Sanitize(), nil
}

// Delete removes an account. Self-deletion is never allowed, and the seeded
// super-admin account cannot be removed by anyone.
func (s *Service) Delete(ctx context.Context, actor *authz.User, id string) error {
	if actor != nil && actor.ID == id && authz.HasPermission(actor, authz.PermUserDelete, s.roles.Roles()) {
		return shared.ErrSelfDeletion
	}
	if !authz.CanDeleteUser(actor, id, s.roles.Roles()) {
		s.denials.RecordDenial(string(authz.PermUserDelete))
		return shared.ErrAccessDenied
	}

	user, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Protected || user.ID == authz.ProtectedUserID {
		return shared.ErrProtectedEntity
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, audit.ActionDelete, id, fmt.Sprintf("Deleted user %q", user.Username))
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor *authz.User, action, entityID, details string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, audit.Entry{
		Action:   action,
		Entity:   "user",
		EntityID: entityID,
		Details:  details,
		User:     actor.Username,
	})
}
