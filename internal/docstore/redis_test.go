package docstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestRedisStorePutGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "payins", "p1", testDoc{ID: "p1", Name: "March batch"}))

	var got testDoc
	require.NoError(t, store.Get(ctx, "payins", "p1", &got))
	assert.Equal(t, "March batch", got.Name)
}

func TestRedisStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	var got testDoc
	err := store.Get(context.Background(), "payins", "nope", &got)
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestRedisStoreDeleteThenList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "roles", "a", testDoc{ID: "a"}))
	require.NoError(t, store.Put(ctx, "roles", "b", testDoc{ID: "b"}))
	require.NoError(t, store.Delete(ctx, "roles", "a"))

	docs, err := store.List(ctx, "roles")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs, "b")

	var b testDoc
	require.NoError(t, json.Unmarshal(docs["b"], &b))
	assert.Equal(t, "b", b.ID)

	// Deleting a missing document is not an error.
	assert.NoError(t, store.Delete(ctx, "roles", "a"))
}

func TestRedisStoreListEmptyCollection(t *testing.T) {
	store := newTestStore(t)

	docs, err := store.List(context.Background(), "mentors")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRedisStoreWatchDeliversChangeEvents(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := store.Watch(ctx, "roles")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "roles", "r1", testDoc{ID: "r1"}))

	select {
	case evt := <-events:
		assert.Equal(t, "roles", evt.Collection)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received after put")
	}

	// Changes in other collections do not leak through.
	require.NoError(t, store.Put(ctx, "users", "u1", testDoc{ID: "u1"}))
	select {
	case evt := <-events:
		t.Fatalf("unexpected event for collection %s", evt.Collection)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRedisStoreWatchClosesOnCancel(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := store.Watch(ctx, "roles")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
