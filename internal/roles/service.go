package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/payintrack/payintrack/internal/audit"
	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/shared"
)

var validate = validator.New()

// CreateInput carries the fields for a new role.
type CreateInput struct {
	Name        string             `json:"name" validate:"required,min=2,max=60"`
	Permissions []authz.Permission `json:"permissions" validate:"required"`
}

// UpdateInput carries the replacement fields for an existing role.
type UpdateInput struct {
	Name        string             `json:"name" validate:"required,min=2,max=60"`
	Permissions []authz.Permission `json:"permissions" validate:"required"`
}

// Service applies permission gates and protection rules on top of the store.
type Service struct {
	store    *Store
	snapshot *Watcher
	audit    audit.Recorder
	denials  shared.DenialRecorder
}

// NewService constructs a Service.
func NewService(store *Store, snapshot *Watcher, recorder audit.Recorder, denials shared.DenialRecorder) *Service {
	if denials == nil {
		denials = shared.NopDenialRecorder{}
	}
	return &Service{store: store, snapshot: snapshot, audit: recorder, denials: denials}
}

// List returns every role. Listing is unrestricted: clients need role names
// to render assignment pickers, and permission sets are not secrets.
func (s *Service) List(ctx context.Context) ([]authz.Role, error) {
	return s.store.List(ctx)
}

// Get returns a single role.
func (s *Service) Get(ctx context.Context, id string) (authz.Role, error) {
	return s.store.Get(ctx, id)
}

// Create adds a new role. The id is derived from the name; a collision with
// an existing role is a conflict.
func (s *Service) Create(ctx context.Context, actor *authz.User, input CreateInput) (authz.Role, error) {
	if !authz.HasPermission(actor, authz.PermRoleAdd, s.snapshot.Roles()) {
		s.denials.RecordDenial(string(authz.PermRoleAdd))
		return authz.Role{}, shared.ErrAccessDenied
	}
	if err := validate.Struct(input); err != nil {
		return authz.Role{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	perms, err := normalizePermissions(input.Permissions)
	if err != nil {
		return authz.Role{}, err
	}

	role := authz.Role{
		ID:          slugify(input.Name),
		Name:        strings.TrimSpace(input.Name),
		Permissions: perms,
	}
	if role.ID == "" {
		return authz.Role{}, fmt.Errorf("%w: role name %q yields an empty id", shared.ErrValidation, input.Name)
	}
	if _, err := s.store.Get(ctx, role.ID); err == nil {
		return authz.Role{}, shared.ErrConflict
	} else if !errors.Is(err, shared.ErrNotFound) {
		return authz.Role{}, err
	}

	if err := s.store.Put(ctx, role); err != nil {
		return authz.Role{}, err
	}
	s.recordAudit(ctx, actor, audit.ActionCreate, role.ID, fmt.Sprintf("Created role %q", role.Name))
	return role, nil
}

// Update replaces the name and permission set of an existing role. The two
// reserved roles cannot be changed.
func (s *Service) Update(ctx context.Context, actor *authz.User, id string, input UpdateInput) (authz.Role, error) {
	if !authz.HasPermission(actor, authz.PermRoleEdit, s.snapshot.Roles()) {
		s.denials.RecordDenial(string(authz.PermRoleEdit))
		return authz.Role{}, shared.ErrAccessDenied
	}
	if isReservedRole(id) {
		return authz.Role{}, shared.ErrProtectedEntity
	}
	if err := validate.Struct(input); err != nil {
		return authz.Role{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	perms, err := normalizePermissions(input.Permissions)
	if err != nil {
		return authz.Role{}, err
	}

	role, err := s.store.Get(ctx, id)
	if err != nil {
		return authz.Role{}, err
	}
	role.Name = strings.TrimSpace(input.Name)
	role.Permissions = perms

	if err := s.store.Put(ctx, role); err != nil {
		return authz.Role{}, err
	}
	s.recordAudit(ctx, actor, audit.ActionUpdate, role.ID, fmt.Sprintf("Updated role %q", role.Name))
	return role, nil
}

// Delete removes a role. The two reserved roles cannot be deleted.
func (s *Service) Delete(ctx context.Context, actor *authz.User, id string) error {
	if !authz.HasPermission(actor, authz.PermRoleDelete, s.snapshot.Roles()) {
		s.denials.RecordDenial(string(authz.PermRoleDelete))
		return shared.ErrAccessDenied
	}
	if isReservedRole(id) {
		return shared.ErrProtectedEntity
	}
	role, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, audit.ActionDelete, id, fmt.Sprintf("Deleted role %q", role.Name))
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor *authz.User, action, entityID, details string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, audit.Entry{
		Action:   action,
		Entity:   "role",
		EntityID: entityID,
		Details:  details,
		User:     actor.Username,
	})
}

func isReservedRole(id string) bool {
	return id == authz.RoleSuperAdmin || id == authz.RoleGuest
}

// normalizePermissions deduplicates and validates against the catalog.
func normalizePermissions(perms []authz.Permission) ([]authz.Permission, error) {
	seen := make(map[authz.Permission]struct{}, len(perms))
	out := make([]authz.Permission, 0, len(perms))
	for _, p := range perms {
		if !authz.IsKnownPermission(p) {
			return nil, fmt.Errorf("%w: unknown permission %q", shared.ErrValidation, p)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
