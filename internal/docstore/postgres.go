package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgNotifyChannel = "docstore_changes"

// PostgresStore keeps all documents in a single JSONB table and uses
// LISTEN/NOTIFY for change notification. Selected with DOCSTORE_DRIVER=postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store and ensures its schema exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	const schema = `CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		doc JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (collection, id)
	)`
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("docstore: ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Put creates or replaces the document and notifies listeners.
func (s *PostgresStore) Put(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: marshal %s/%s: %w", collection, id, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, doc, updated_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		collection, id, data)
	if err != nil {
		return fmt.Errorf("docstore: put %s/%s: %w", collection, id, err)
	}
	s.notify(ctx, collection)
	return nil
}

// Get decodes the document into dest.
func (s *PostgresStore) Get(ctx context.Context, collection, id string, dest any) error {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNoDocument
		}
		return fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}
	return json.Unmarshal(data, dest)
}

// Delete removes the document and notifies listeners.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, err)
	}
	s.notify(ctx, collection)
	return nil
}

// List returns all documents in the collection keyed by id.
func (s *PostgresStore) List(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, doc FROM documents WHERE collection = $1`, collection)
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", collection, err)
	}
	defer rows.Close()

	docs := make(map[string]json.RawMessage)
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		docs[id] = json.RawMessage(data)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Watch holds a dedicated connection on LISTEN and forwards notifications
// for the requested collection. The channel is closed when ctx ends.
func (s *PostgresStore) Watch(ctx context.Context, collection string) (<-chan Event, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("docstore: watch %s: %w", collection, err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgNotifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("docstore: watch %s: %w", collection, err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer conn.Release()
		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return
			}
			if !strings.EqualFold(notification.Payload, collection) {
				continue
			}
			select {
			case events <- Event{Collection: collection}:
			default:
			}
		}
	}()
	return events, nil
}

func (s *PostgresStore) notify(ctx context.Context, collection string) {
	// Notification loss degrades freshness, not correctness: the row is
	// already committed and the next change or reload converges the snapshot.
	_, _ = s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, pgNotifyChannel, collection)
}

var _ Store = (*PostgresStore)(nil)
