// Package memory is an in-process storage backend.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/poiesic/studyforge/core"
	"github.com/poiesic/studyforge/storage"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Store keeps tasks and case bindings in maps. Expired entries are dropped
// lazily when touched.
type Store struct {
	mu        sync.RWMutex
	tasks     map[string]entry[*core.Task]
	cases     map[string]entry[string]
	retention time.Duration
	now       func() time.Time
	closed    bool
}

var _ storage.Store = (*Store)(nil)

type Option func(*Store)

// WithRetention sets how long records live after their last write.
// Zero or negative keeps them forever.
func WithRetention(d time.Duration) Option {
	return func(s *Store) { s.retention = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		tasks:     make(map[string]entry[*core.Task]),
		cases:     make(map[string]entry[string]),
		retention: storage.DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) expiry() time.Time {
	if s.retention <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.retention)
}

func (s *Store) expired(at time.Time) bool {
	return !at.IsZero() && !s.now().Before(at)
}

// lookup returns the live task entry. Caller holds at least the read lock.
func (s *Store) lookup(id string) (*core.Task, bool) {
	e, ok := s.tasks[id]
	if !ok || s.expired(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (s *Store) Create(_ context.Context, task *core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	if _, ok := s.lookup(task.ID); ok {
		return fmt.Errorf("%w: task %s", storage.ErrDuplicateKey, task.ID)
	}
	s.tasks[task.ID] = entry[*core.Task]{value: task.Clone(), expiresAt: s.expiry()}
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	task, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: task %s", storage.ErrNotFound, id)
	}
	return task.Clone(), nil
}

func (s *Store) Update(_ context.Context, id string, fn func(*core.Task) error) (*core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	task, ok := s.lookup(id)
	if !ok {
		delete(s.tasks, id)
		return nil, fmt.Errorf("%w: task %s", storage.ErrNotFound, id)
	}
	next := task.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.tasks[id] = entry[*core.Task]{value: next, expiresAt: s.expiry()}
	return next.Clone(), nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) BindCase(_ context.Context, caseID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	s.cases[caseID] = entry[string]{value: taskID, expiresAt: s.expiry()}
	return nil
}

func (s *Store) LookupCase(_ context.Context, caseID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", storage.ErrStorageClosed
	}
	e, ok := s.cases[caseID]
	if !ok || s.expired(e.expiresAt) {
		return "", fmt.Errorf("%w: case %s", storage.ErrNotFound, caseID)
	}
	return e.value, nil
}

// Close drops every record.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.tasks)
	clear(s.cases)
	return nil
}
