package docstore

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-process Store used by tests and by the test-mode
// runtime. Watch events are delivered to all subscribers of the collection.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
	watchers    map[string][]chan Event
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]json.RawMessage),
		watchers:    make(map[string][]chan Event),
	}
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]json.RawMessage)
		s.collections[collection] = docs
	}
	docs[id] = data
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string, dest any) error {
	s.mu.RLock()
	data, ok := s.collections[collection][id]
	s.mu.RUnlock()
	if !ok {
		return ErrNoDocument
	}
	return json.Unmarshal(data, dest)
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	docs, ok := s.collections[collection]
	if ok {
		_, ok = docs[id]
		delete(docs, id)
	}
	s.mu.Unlock()
	if ok {
		s.notify(collection)
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		out[id] = append(json.RawMessage(nil), data...)
	}
	return out, nil
}

func (s *MemoryStore) Watch(ctx context.Context, collection string) (<-chan Event, error) {
	ch := make(chan Event, 16)
	s.mu.Lock()
	s.watchers[collection] = append(s.watchers[collection], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		subs := s.watchers[collection]
		for i, sub := range subs {
			if sub == ch {
				s.watchers[collection] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (s *MemoryStore) notify(collection string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.watchers[collection] {
		select {
		case ch <- Event{Collection: collection}:
		default:
		}
	}
}

var _ Store = (*MemoryStore)(nil)
