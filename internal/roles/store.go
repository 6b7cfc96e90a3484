// Package roles manages the role catalog: persistence, live snapshot and the
// permission sets every authorization decision is resolved against.
package roles

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/docstore"
	"github.com/payintrack/payintrack/internal/shared"
)

// Collection is the docstore collection holding role documents.
const Collection = "roles"

// Store persists roles in the document store.
type Store struct {
	docs docstore.Store
}

// NewStore constructs a Store.
func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// Get loads a single role.
func (s *Store) Get(ctx context.Context, id string) (authz.Role, error) {
	var role authz.Role
	err := s.docs.Get(ctx, Collection, id, &role)
	if errors.Is(err, docstore.ErrNoDocument) {
		return authz.Role{}, shared.ErrNotFound
	}
	if err != nil {
		return authz.Role{}, err
	}
	return role, nil
}

// List returns every role, ordered by id for stable output.
func (s *Store) List(ctx context.Context) ([]authz.Role, error) {
	docs, err := s.docs.List(ctx, Collection)
	if err != nil {
		return nil, err
	}
	roles := make([]authz.Role, 0, len(docs))
	for _, raw := range docs {
		var role authz.Role
		if err := json.Unmarshal(raw, &role); err != nil {
			continue
		}
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

// Put creates or replaces a role document.
func (s *Store) Put(ctx context.Context, role authz.Role) error {
	return s.docs.Put(ctx, Collection, role.ID, role)
}

// Delete removes a role document.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, Collection, id)
}

// SeedDefaults writes the built-in roles when the collection is empty. A
// non-empty collection is left untouched so operator customisations and
// permissioned deletions of built-ins survive restarts; the two reserved
// roles can never be deleted, so they always remain present.
func (s *Store) SeedDefaults(ctx context.Context) error {
	docs, err := s.docs.List(ctx, Collection)
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		return nil
	}
	for _, role := range authz.DefaultRoles() {
		if err := s.docs.Put(ctx, Collection, role.ID, role); err != nil {
			return err
		}
	}
	return nil
}
