// Package users manages account records: persistence, seeding of the default
// super-admin and the credential check used at login.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/docstore"
	"github.com/payintrack/payintrack/internal/shared"
)

// Collection is the docstore collection holding user documents.
const Collection = "users"

// Store persists users in the document store.
type Store struct {
	docs docstore.Store
}

// NewStore constructs a Store.
func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// Get loads a single user including the password hash.
func (s *Store) Get(ctx context.Context, id string) (authz.User, error) {
	var user authz.User
	err := s.docs.Get(ctx, Collection, id, &user)
	if errors.Is(err, docstore.ErrNoDocument) {
		return authz.User{}, shared.ErrNotFound
	}
	if err != nil {
		return authz.User{}, err
	}
	return user, nil
}

// GetByUsername finds the user with the given (normalized) username.
func (s *Store) GetByUsername(ctx context.Context, username string) (authz.User, error) {
	username = NormalizeUsername(username)
	docs, err := s.docs.List(ctx, Collection)
	if err != nil {
		return authz.User{}, err
	}
	for _, raw := range docs {
		var user authz.User
		if err := json.Unmarshal(raw, &user); err != nil {
			continue
		}
		if NormalizeUsername(user.Username) == username {
			return user, nil
		}
	}
	return authz.User{}, shared.ErrNotFound
}

// List returns every user, ordered by username.
func (s *Store) List(ctx context.Context) ([]authz.User, error) {
	docs, err := s.docs.List(ctx, Collection)
	if err != nil {
		return nil, err
	}
	users := make([]authz.User, 0, len(docs))
	for _, raw := range docs {
		var user authz.User
		if err := json.Unmarshal(raw, &user); err != nil {
			continue
		}
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// Put creates or replaces a user document.
func (s *Store) Put(ctx context.Context, user authz.User) error {
	return s.docs.Put(ctx, Collection, user.ID, user)
}

// Delete removes a user document.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, Collection, id)
}

// SeedDefaults creates the protected super-admin account when it does not
// exist yet. The bootstrap password is hashed here; an existing account is
// never overwritten, so a rotated password survives restarts.
func (s *Store) SeedDefaults(ctx context.Context, bootstrapPassword string) error {
	var existing authz.User
	err := s.docs.Get(ctx, Collection, authz.ProtectedUserID, &existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, docstore.ErrNoDocument) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(bootstrapPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	for _, user := range authz.DefaultUsers() {
		user.PasswordHash = string(hash)
		if err := s.docs.Put(ctx, Collection, user.ID, user); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeUsername lowercases and trims a username for comparison and
// storage.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
