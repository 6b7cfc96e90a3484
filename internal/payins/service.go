package payins

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

// Collection is the docstore collection holding payin documents.
const Collection = "payins"

var validate = validator.New()

// RoleSource yields the current role snapshot.
type RoleSource interface {
	Roles() []authz.Role
}

// Service applies the permission gates and audit stamping for payins.
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

// List returns every payin, newest date first.
func (s *Service) List(ctx context.Context) ([]Payin, error) {
	docs, err := s.docs.List(ctx, Collection)
	if err != nil {
		return nil, err
	}
	payins := make([]Payin, 0, len(docs))
	for _, raw := range docs {
		var p Payin
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		payins = append(payins, p)
	}
	sort.Slice(payins, func(i, j int) bool {
		if payins[i].Date != payins[j].Date {
			return payins[i].Date > payins[j].Date
		}
		return payins[i].ID < payins[j].ID
	})
	return payins, nil
}

// Get returns a single payin.
func (s *Service) Get(ctx context.Context, id string) (Payin, error) {
	var p Payin
	err := s.docs.Get(ctx, Collection, id, &p)
	if errors.Is(err, docstore.ErrNoDocument) {
		return Payin{}, shared.ErrNotFound
	}
	if err != nil {
		return Payin{}, err
	}
	return p, nil
}

// Create adds a payin, stamping the creating principal.
func (s *Service) Create(ctx context.Context, actor *authz.User, input Input) (Payin, error) {
	if !authz.HasPermission(actor, authz.PermPayinAdd, s.roles.Roles()) {
		s.denials.RecordDenial(string(authz.PermPayinAdd))
		return Payin{}, shared.ErrAccessDenied
	}
	if err := validate.Struct(input); err != nil {
		return Payin{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	now := s.now().UTC().Format(time.RFC3339)
	p := Payin{
		ID:            uuid.NewString(),
		Name:          input.Name,
		Amount:        input.Amount,
		Referror:      input.Referror,
		Mentor:        input.Mentor,
		Date:          input.Date,
		IsEncoded:     input.IsEncoded,
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
		CreatedAt:     now,
	}
	if p.IsEncoded {
		p.EncodedDate = s.now().UTC().Format("2006-01-02")
	}
	if err := s.docs.Put(ctx, Collection, p.ID, p); err != nil {
		return Payin{}, err
	}
	s.recordAudit(ctx, actor, audit.ActionCreate, p.ID, fmt.Sprintf("Created payin %q (%.2f)", p.Name, p.Amount))
	return p, nil
}

// Update replaces the writable fields, stamping the updating principal. The
// encoded date is set the first time a payin flips to encoded and cleared
// when it flips back.
func (s *Service) Update(ctx context.Context, actor *authz.User, id string, input Input) (Payin, error) {
	if !authz.HasPermission(actor, authz.PermPayinEdit, s.roles.Roles()) {
		s.denials.RecordDenial(string(authz.PermPayinEdit))
		return Payin{}, shared.ErrAccessDenied
	}
	if err := validate.Struct(input); err != nil {
		return Payin{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return Payin{}, err
	}
	wasEncoded := p.IsEncoded
	p.Name = input.Name
	p.Amount = input.Amount
	p.Referror = input.Referror
	p.Mentor = input.Mentor
	p.Date = input.Date
	p.IsEncoded = input.IsEncoded
	switch {
	case p.IsEncoded && !wasEncoded:
		p.EncodedDate = s.now().UTC().Format("2006-01-02")
	case !p.IsEncoded:
		p.EncodedDate = ""
	}
	p.UpdatedBy = actor.ID
	p.UpdatedByName = actor.Name
	p.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.docs.Put(ctx, Collection, p.ID, p); err != nil {
		return Payin{}, err
	}
	s.recordAudit(ctx, actor, audit.ActionUpdate, p.ID, fmt.Sprintf("Updated payin %q", p.Name))
	return p, nil
}

// Delete removes a payin.
func (s *Service) Delete(ctx context.Context, actor *authz.User, id string) error {
	if !authz.HasPermission(actor, authz.PermPayinDelete, s.roles.Roles()) {
		s.denials.RecordDenial(string(authz.PermPayinDelete))
		return shared.ErrAccessDenied
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, Collection, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, audit.ActionDelete, id, fmt.Sprintf("Deleted payin %q", p.Name))
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor *authz.User, action, entityID, details string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, audit.Entry{
		Action:   action,
		Entity:   "payin",
		EntityID: entityID,
		Details:  details,
		User:     actor.Username,
	})
}
