package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisHashPrefix    = "doc:"
	redisChannelPrefix = "docstore:"
)

// RedisStore keeps each collection in a Redis hash and broadcasts changes
// over pub/sub, giving subscribers the push semantics of a realtime store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a RedisStore on the provided client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisHashKey(collection string) string {
	return redisHashPrefix + collection
}

func redisChannel(collection string) string {
	return redisChannelPrefix + collection
}

// Put creates or replaces the document and publishes a change notification.
func (s *RedisStore) Put(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: marshal %s/%s: %w", collection, id, err)
	}
	if err := s.client.HSet(ctx, redisHashKey(collection), id, data).Err(); err != nil {
		return fmt.Errorf("docstore: put %s/%s: %w", collection, id, err)
	}
	s.publish(ctx, collection, id)
	return nil
}

// Get decodes the document into dest.
func (s *RedisStore) Get(ctx context.Context, collection, id string, dest any) error {
	data, err := s.client.HGet(ctx, redisHashKey(collection), id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNoDocument
		}
		return fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}
	return json.Unmarshal(data, dest)
}

// Delete removes the document and publishes a change notification.
func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.client.HDel(ctx, redisHashKey(collection), id).Err(); err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, err)
	}
	s.publish(ctx, collection, id)
	return nil
}

// List returns all documents in the collection keyed by id.
func (s *RedisStore) List(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	raw, err := s.client.HGetAll(ctx, redisHashKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", collection, err)
	}
	docs := make(map[string]json.RawMessage, len(raw))
	for id, data := range raw {
		docs[id] = json.RawMessage(data)
	}
	return docs, nil
}

// Watch subscribes to the collection's pub/sub channel. Events are dropped
// rather than buffered without bound when the consumer is slow; consumers
// reload the full snapshot per event so a dropped event is recovered by the
// next one.
func (s *RedisStore) Watch(ctx context.Context, collection string) (<-chan Event, error) {
	sub := s.client.Subscribe(ctx, redisChannel(collection))
	// Force the subscription before returning so no event published after
	// Watch returns is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("docstore: watch %s: %w", collection, err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				_ = msg
				select {
				case events <- Event{Collection: collection}:
				default:
				}
			}
		}
	}()
	return events, nil
}

func (s *RedisStore) publish(ctx context.Context, collection, id string) {
	// Notification loss degrades freshness, not correctness: the next
	// change or reload converges the snapshot.
	_ = s.client.Publish(ctx, redisChannel(collection), id).Err()
}

var _ Store = (*RedisStore)(nil)
