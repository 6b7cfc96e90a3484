package roles

import (
	"context"
	"log/slog"
	"sync"

	"github.com/payintrack/payintrack/internal/authz"
)

// ChangeListener is invoked after the snapshot was replaced with fresh data.
type ChangeListener func(ctx context.Context)

// Watcher keeps an in-memory snapshot of the role catalog that is replaced
// wholesale whenever the store signals a change. Reads never observe a
// partially applied update.
type Watcher struct {
	store  *Store
	logger *slog.Logger

	mu        sync.RWMutex
	snapshot  []authz.Role
	listeners []ChangeListener
}

// NewWatcher constructs a Watcher. Call Run to start watching.
func NewWatcher(store *Store, logger *slog.Logger) *Watcher {
	return &Watcher{store: store, logger: logger}
}

// OnChange registers a listener called after each snapshot refresh. Register
// before Run; listeners run on the watcher goroutine.
func (w *Watcher) OnChange(fn ChangeListener) {
	w.listeners = append(w.listeners, fn)
}

// Run loads the initial snapshot and then follows change events until ctx
// ends. A failed reload keeps the previous snapshot and logs the error.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Reload(ctx); err != nil {
		return err
	}
	events, err := w.store.docs.Watch(ctx, Collection)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			if err := w.Reload(ctx); err != nil {
				w.logger.Warn("role snapshot reload failed", slog.Any("error", err))
				continue
			}
			for _, fn := range w.listeners {
				fn(ctx)
			}
		}
	}
}

// Reload replaces the snapshot with the store's current contents.
func (w *Watcher) Reload(ctx context.Context) error {
	roles, err := w.store.List(ctx)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.snapshot = roles
	w.mu.Unlock()
	return nil
}

// Roles returns a copy of the current snapshot.
func (w *Watcher) Roles() []authz.Role {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]authz.Role, len(w.snapshot))
	copy(out, w.snapshot)
	return out
}

// ByID looks up a role in the current snapshot.
func (w *Watcher) ByID(id string) (authz.Role, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, role := range w.snapshot {
		if role.ID == id {
			return role, true
		}
	}
	return authz.Role{}, false
}
