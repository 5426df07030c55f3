package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/studyforge/core"
	"github.com/poiesic/studyforge/storage"
)

// Store is a storage.Store on top of a Backend. Records are written with
// a TTL equal to the retention.
type Store struct {
	backend   *Backend
	retention time.Duration
	owned     bool
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a store on an open backend. The backend stays owned by
// the caller. Zero or negative retention keeps records forever.
func NewStore(backend *Backend, retention time.Duration) (*Store, error) {
	if backend == nil {
		return nil, errors.New("backend cannot be nil")
	}
	return &Store{backend: backend, retention: retention}, nil
}

// Open opens a backend at path (or in memory when path is empty) and
// returns a store that closes it.
func Open(path string, retention time.Duration) (storage.Store, error) {
	backend, err := OpenBackend(path, path == "", nil)
	if err != nil {
		return nil, err
	}
	s, err := NewStore(backend, retention)
	if err != nil {
		backend.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

func (s *Store) entry(key, value []byte) *badger.Entry {
	e := badger.NewEntry(key, value)
	if s.retention > 0 {
		e = e.WithTTL(s.retention)
	}
	return e
}

func (s *Store) checkOpen() error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

func getTask(tx *badger.Txn, id string) (*core.Task, error) {
	item, err := tx.Get(makeTaskKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: task %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var task *core.Task
	err = item.Value(func(val []byte) error {
		task, err = storage.DecodeTask(val)
		return err
	})
	return task, err
}

func (s *Store) Create(_ context.Context, task *core.Task) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	data, err := storage.EncodeTask(task)
	if err != nil {
		return err
	}
	return s.backend.Update(func(tx *badger.Txn) error {
		key := makeTaskKey(task.ID)
		_, err := tx.Get(key)
		if err == nil {
			return fmt.Errorf("%w: task %s", storage.ErrDuplicateKey, task.ID)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return tx.SetEntry(s.entry(key, data))
	})
}

func (s *Store) Get(_ context.Context, id string) (*core.Task, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var task *core.Task
	err := s.backend.View(func(tx *badger.Txn) error {
		var err error
		task, err = getTask(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) Update(_ context.Context, id string, fn func(*core.Task) error) (*core.Task, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var task *core.Task
	err := s.backend.Update(func(tx *badger.Txn) error {
		var err error
		task, err = getTask(tx, id)
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
		return tx.SetEntry(s.entry(makeTaskKey(id), data))
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.backend.Update(func(tx *badger.Txn) error {
		return tx.Delete(makeTaskKey(id))
	})
}

func (s *Store) BindCase(_ context.Context, caseID, taskID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.backend.Update(func(tx *badger.Txn) error {
		return tx.SetEntry(s.entry(makeCaseKey(caseID), []byte(taskID)))
	})
}

func (s *Store) LookupCase(_ context.Context, caseID string) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	var taskID string
	err := s.backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCaseKey(caseID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: case %s", storage.ErrNotFound, caseID)
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		taskID = string(val)
		return err
	})
	return taskID, err
}

// Close closes the backend if the store opened it.
func (s *Store) Close() error {
	if !s.owned || s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}
