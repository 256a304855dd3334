// Package natsstore keeps generated audio clips in a NATS JetStream object
// store bucket so every replica of the API can serve every clip.
package natsstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/vilisasu/bibleai-api/internal/audio"
)

// Store implements audio.Store on a JetStream object store bucket.
type Store struct {
	conn   *nats.Conn
	bucket string
	store  jetstream.ObjectStore
}

var _ audio.Store = (*Store)(nil)

// Connect dials url and opens the bucket. The returned Store owns the
// connection; call Close when done.
func Connect(ctx context.Context, url, bucket string, ttl time.Duration) (*Store, error) {
	conn, err := nats.Connect(url, nats.Name("bibleai-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	s, err := New(ctx, conn, bucket, ttl)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.conn = conn
	return s, nil
}

// New opens bucket on an existing connection, creating it with ttl when it
// does not exist yet.
func New(ctx context.Context, conn *nats.Conn, bucket string, ttl time.Duration) (*Store, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	store, err := js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "Generated sermon audio clips.",
		TTL:         ttl,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucket, err)
		}
		store, err = js.ObjectStore(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucket, err)
		}
	}

	return &Store{bucket: bucket, store: store}, nil
}

// Name implements audio.Store.
func (s *Store) Name() string { return "nats" }

// Put implements audio.Store.
func (s *Store) Put(ctx context.Context, id string, data []byte) error {
	if _, err := s.store.PutBytes(ctx, id, data); err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", id, s.bucket, err)
	}
	return nil
}

// Get implements audio.Store.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := s.store.GetBytes(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", audio.ErrClipNotFound, id)
		}
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", id, s.bucket, err)
	}
	return data, nil
}

// Close drains the connection opened by Connect. It is a no-op for stores
// built with New.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
