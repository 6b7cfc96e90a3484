// Package mentors manages the mentor directory.
package mentors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/payintrack/payintrack/internal/audit"
	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/docstore"
	"github.com/payintrack/payintrack/internal/shared"
)

// Collection is the docstore collection holding mentor documents.
const Collection = "mentors"

var validate = validator.New()

// Mentor is a person who mentors payin contributors.
type Mentor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Notes string `json:"notes,omitempty"`

	CreatedBy     string `json:"createdBy,omitempty"`
	CreatedByName string `json:"createdByName,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedBy     string `json:"updatedBy,omitempty"`
	UpdatedByName string `json:"updatedByName,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// Input carries the writable fields of a mentor.
type Input struct {
	Name  string `json:"name" validate:"required,min=2,max=120"`
	Phone string `json:"phone" validate:"max=32"`
	Notes string `json:"notes" validate:"max=500"`
}

// RoleSource yields the current role snapshot.
type RoleSource interface {
	Roles() []authz.Role
}

// Service applies the permission gates and audit stamping for mentors.
type Service struct {
	docs    docstore.Store
	roles   RoleSource
	audit   audit.Recorder
	denials shared.DenialRecorder
	now     func() time.Time
}

// NewService constructs a Service.
func NewService(docs docstore.Store, roles RoleSource, recorder audit.Recorder, denials shared.DenialRecorder) *Service {
	if denials == nil {
		denials = shared.NopDenialRecorder{}
	}
	return &Service{docs: docs, roles: roles, audit: recorder, denials: denials, now: time.Now}
}

// List returns every mentor ordered by name.
func (s *Service) List(ctx context.Context) ([]Mentor, error) {
	docs, err := s.docs.List(ctx, Collection)
	if err != nil {
		return nil, err
	}
	out := make([]Mentor, 0, len(docs))
	for _, raw := range docs {
		var rec Mentor
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns a single mentor.
func (s *Service) Get(ctx context.Context, id string) (Mentor, error) {
	var rec Mentor
	err := s.docs.Get(ctx, Collection, id, &rec)
	if errors.Is(err, docstore.ErrNoDocument) {
		return Mentor{}, shared.ErrNotFound
	}
	if err != nil {
		return Mentor{}, err
	}
	return rec, nil
}

// Create adds a mentor.
func (s *Service) Create(ctx context.Context, actor *authz.User, input Input) (Mentor, error) {
	if !authz.HasPermission(actor, authz.PermMentorAdd, s.roles.Roles()) {
		s.denials.RecordDenial(string(authz.PermMentorAdd))
		return Mentor{}, shared.ErrAccessDenied
	}
	if err := validate.Struct(input); err != nil {
		return Mentor{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	rec := Mentor{
		ID:            uuid.NewString(),
		Name:          input.Name,
		Phone:         input.Phone,
		Notes:         input.Notes,
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
		CreatedAt:     s.now().UTC().Format(time.RFC3339),
	}
	if err := s.docs.Put(ctx, Collection, rec.ID, rec); err != nil {
		return Mentor{}, err
	}
	s.recordAudit(ctx, actor, audit.ActionCreate, rec.ID, fmt.Sprintf("Created mentor %q", rec.Name))
	return rec, nil
}

// Update replaces the writable fields.
func (s *Service) Update(ctx context.Context, actor *authz.User, id string, input Input) (Mentor, error) {
	if !authz.HasPermission(actor, authz.PermMentorEdit, s.roles.Roles()) {
		s.denials.RecordDenial(string(authz.PermMentorEdit))
		return Mentor{}, shared.ErrAccessDenied
	}
	if err := validate.Struct(input); err != nil {
		return Mentor{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	rec, err := s.Get(ctx, id)
	if err != nil {
		return Mentor{}, err
	}
	rec.Name = input.Name
	rec.Phone = input.Phone
	rec.Notes = input.Notes
	rec.UpdatedBy = actor.ID
	rec.UpdatedByName = actor.Name
	rec.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.docs.Put(ctx, Collection, rec.ID, rec); err != nil {
		return Mentor{}, err
	}
	s.recordAudit(ctx, actor, audit.ActionUpdate, rec.ID, fmt.Sprintf("Updated mentor %q", rec.Name))
	return rec, nil
}

// Delete removes a mentor.
func (s *Service) Delete(ctx context.Context, actor *authz.User, id string) error {
	if !authz.HasPermission(actor, authz.PermMentorDelete, s.roles.Roles()) {
		s.denials.RecordDenial(string(authz.PermMentorDelete))
		return shared.ErrAccessDenied
	}
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, Collection, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, audit.ActionDelete, id, fmt.Sprintf("Deleted mentor %q", rec.Name))
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor *authz.User, action, entityID, details string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, audit.Entry{
		Action:   action,
		Entity:   "mentor",
		EntityID: entityID,
		Details:  details,
		User:     actor.Username,
	})
}
