// Package redis is a storage backend on a Redis server. It lets several
// processes serve progress for the same tasks.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/studyforge/core"
	"github.com/poiesic/studyforge/storage"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultKeyPrefix namespaces every key the store writes.
	DefaultKeyPrefix = "studyforge:"

	maxUpdateAttempts = 10
)

// ErrUpdateContention is returned when an optimistic update kept losing
// against concurrent writers.
var ErrUpdateContention = errors.New("task update contention")

// Store keeps tasks as JSON strings with key expiry.
type Store struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
	owned     bool
}

var _ storage.Store = (*Store)(nil)

type Option func(*Store)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithRetention sets the key expiry. Zero or negative keeps keys forever.
func WithRetention(d time.Duration) Option {
	return func(s *Store) { s.retention = d }
}

// NewStore wraps an existing client. The client stays owned by the caller.
func NewStore(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client:    client,
		prefix:    DefaultKeyPrefix,
		retention: storage.DefaultRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect dials addr, pings it and returns a store that closes the client.
func Connect(ctx context.Context, addr, password string, db int, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	s := NewStore(client, opts...)
	s.owned = true
	return s, nil
}

func (s *Store) taskKey(id string) string {
	return s.prefix + "task:" + id
}

func (s *Store) caseKey(id string) string {
	return s.prefix + "case:" + id
}

func (s *Store) ttl() time.Duration {
	if s.retention <= 0 {
		return 0
	}
	return s.retention
}

func (s *Store) Create(ctx context.Context, task *core.Task) error {
	data, err := storage.EncodeTask(task)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.taskKey(task.ID), data, s.ttl()).Result()
	if err != nil {
		return wrap(err)
	}
	if !ok {
		return fmt.Errorf("%w: task %s", storage.ErrDuplicateKey, task.ID)
	}
	return nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) Get(ctx context.Context, id string) (*core.Task, error) {
	return s.get(ctx, s.client, id)
}

func (s *Store) get(ctx context.Context, c getter, id string) (*core.Task, error) {
	data, err := c.Get(ctx, s.taskKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: task %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, wrap(err)
	}
	return storage.DecodeTask(data)
}

// Update runs fn under WATCH on the task key and retries when another
// writer got in between.
func (s *Store) Update(ctx context.Context, id string, fn func(*core.Task) error) (*core.Task, error) {
	key := s.taskKey(id)
	var updated *core.Task

	txf := func(tx *redis.Tx) error {
		task, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(task); err != nil {
			return err
		}
		data, err := storage.EncodeTask(task)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl())
			return nil
		})
		if err == nil {
			updated = task
		}
		return err
	}

	for range maxUpdateAttempts {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("%w: task %s", ErrUpdateContention, id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return wrap(s.client.Del(ctx, s.taskKey(id)).Err())
}

func (s *Store) BindCase(ctx context.Context, caseID, taskID string) error {
	return wrap(s.client.Set(ctx, s.caseKey(caseID), taskID, s.ttl()).Err())
}

func (s *Store) LookupCase(ctx context.Context, caseID string) (string, error) {
	id, err := s.client.Get(ctx, s.caseKey(caseID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: case %s", storage.ErrNotFound, caseID)
	}
	return id, wrap(err)
}

// Close closes the client if the store dialed it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

func wrap(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%w: %w", storage.ErrStorageClosed, err)
	}
	return err
}
