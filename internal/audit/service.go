package audit

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/payintrack/payintrack/internal/authz"
	"github.com/payintrack/payintrack/internal/docstore"
	"github.com/payintrack/payintrack/internal/shared"
)

// TimelineFilters narrow the audit timeline.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Action   string
	Entity   string
	User     string
	Page     int
	PageSize int
}

// PagingInfo describes the returned window.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasNext  bool `json:"hasNext"`
	PrevPage int  `json:"prevPage,omitempty"`
	NextPage int  `json:"nextPage,omitempty"`
}

// Result wraps timeline rows with paging information.
type Result struct {
	Rows   []Entry    `json:"rows"`
	Paging PagingInfo `json:"paging"`
}

// RoleSource yields the current role snapshot for permission checks.
type RoleSource interface {
	Roles() []authz.Role
}

// Service reads the audit timeline, gated by the view_audit permission.
type Service struct {
	store docstore.Store
	roles RoleSource
}

// NewService constructs a Service.
func NewService(store docstore.Store, roles RoleSource) *Service {
	return &Service{store: store, roles: roles}
}

// Timeline returns a filtered, paged window of audit entries, newest first.
func (s *Service) Timeline(ctx context.Context, actor *authz.User, filters TimelineFilters) (Result, error) {
	if !authz.HasPermission(actor, authz.PermViewAudit, s.roles.Roles()) {
		return Result{}, shared.ErrAccessDenied
	}

	docs, err := s.store.List(ctx, collection)
	if err != nil {
		return Result{}, err
	}

	entries := make([]Entry, 0, len(docs))
	for _, raw := range docs {
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if matches(entry, filters) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})

	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset > len(entries) {
		offset = len(entries)
	}
	window := entries[offset:]
	hasNext := len(window) > pageSize
	if hasNext {
		window = window[:pageSize]
	}

	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: window, Paging: paging}, nil
}

// Purge removes entries older than the retention cutoff and reports how many
// were deleted. Called from the background worker; no permission gate since
// it never runs on behalf of a principal.
func (s *Service) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	docs, err := s.store.List(ctx, collection)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for id, raw := range docs {
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		at, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil || !at.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, collection, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func matches(entry Entry, filters TimelineFilters) bool {
	if filters.Action != "" && !strings.EqualFold(entry.Action, filters.Action) {
		return false
	}
	if filters.Entity != "" && !strings.EqualFold(entry.Entity, filters.Entity) {
		return false
	}
	if filters.User != "" && !strings.EqualFold(entry.User, filters.User) {
		return false
	}
	if !filters.From.IsZero() || !filters.To.IsZero() {
		at, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil {
			return false
		}
		if !filters.From.IsZero() && at.Before(filters.From) {
			return false
		}
		if !filters.To.IsZero() && at.After(filters.To) {
			return false
		}
	}
	return true
}
