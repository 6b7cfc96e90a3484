// Package docstore abstracts the remote document store backing every
// collection in the system. Documents are JSON values keyed by collection
// and id; change notification is push-based: a subscriber receives one event
// per remote change and re-reads the full collection snapshot.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNoDocument is returned by Get when the document does not exist.
var ErrNoDocument = errors.New("docstore: no such document")

// Event signals that a collection changed. Consumers treat it as an
// invalidation and reload the whole collection; the payload intentionally
// carries no delta.
type Event struct {
	Collection string
}

// Store is the subscribe/read/write/delete surface of the document store.
type Store interface {
	// Put creates or replaces the document at collection/id.
	Put(ctx context.Context, collection, id string, doc any) error
	// Get decodes the document at collection/id into dest.
	Get(ctx context.Context, collection, id string, dest any) error
	// Delete removes the document at collection/id. Deleting a missing
	// document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// List returns every document in the collection keyed by id.
	List(ctx context.Context, collection string) (map[string]json.RawMessage, error)
	// Watch subscribes to change events for the collection. The returned
	// channel is closed when ctx ends. Subscribe once, receive many.
	Watch(ctx context.Context, collection string) (<-chan Event, error)
}
