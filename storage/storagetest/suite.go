// Package storagetest is a conformance suite run against every storage backend.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/studyforge/core"
	"github.com/poiesic/studyforge/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Harness builds a fresh backend for one subtest.
type Harness struct {
	// New returns an empty store. The suite closes it.
	New func(t *testing.T) storage.Store
	// Expire makes every record written so far expire. Nil skips the
	// retention tests.
	Expire func(t *testing.T)
}

var epoch = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

// NewTask returns a fresh running task with a fixed timestamp.
func NewTask(id string) *core.Task {
	return core.NewTask(id, "https://www.bilibili.com/video/BV1"+id, "title "+id, epoch)
}

// Run executes the suite.
func Run(t *testing.T, h Harness) {
	open := func(t *testing.T) storage.Store {
		s := h.New(t)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}
	ctx := context.Background()

	t.Run("CreateGet", func(t *testing.T) {
		s := open(t)
		task := NewTask("a")
		require.NoError(t, s.Create(ctx, task))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, task, got)

		// Mutating the returned copy must not leak into the store.
		got.Steps[0].Detail = "changed"
		again, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, again.Steps[0].Detail)
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Create(ctx, NewTask("a")))
		assert.ErrorIs(t, s.Create(ctx, NewTask("a")), storage.ErrDuplicateKey)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := open(t)
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Create(ctx, NewTask("a")))

		updated, err := s.Update(ctx, "a", func(task *core.Task) error {
			return task.Advance(core.StepDownload, core.StepProcessing, "fetching", epoch)
		})
		require.NoError(t, err)
		assert.Equal(t, core.StepProcessing, updated.Steps[0].Status)

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "fetching", got.Steps[0].Detail)
		assert.Equal(t, 1, got.CurrentStep)
	})

	t.Run("UpdateErrorWritesNothing", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Create(ctx, NewTask("a")))

		boom := errors.New("boom")
		_, err := s.Update(ctx, "a", func(task *core.Task) error {
			task.VideoTitle = "mutated"
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "title a", got.VideoTitle)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := open(t)
		_, err := s.Update(ctx, "nope", func(*core.Task) error { return nil })
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ConcurrentReaders", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Create(ctx, NewTask("a")))

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range core.StepCount {
				_, err := s.Update(ctx, "a", func(task *core.Task) error {
					if err := task.Advance(i, core.StepProcessing, "", epoch); err != nil {
						return err
					}
					return task.Advance(i, core.StepDone, fmt.Sprintf("step %d", i), epoch)
				})
				assert.NoError(t, err)
			}
		}()
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 20 {
					got, err := s.Get(ctx, "a")
					if assert.NoError(t, err) {
						assert.Len(t, got.Steps, core.StepCount)
					}
				}
			}()
		}
		wg.Wait()

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 100, got.Percent)
	})

	t.Run("Delete", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Create(ctx, NewTask("a")))
		require.NoError(t, s.Delete(ctx, "a"))
		_, err := s.Get(ctx, "a")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, s.Delete(ctx, "a"))
	})

	t.Run("Cases", func(t *testing.T) {
		s := open(t)
		_, err := s.LookupCase(ctx, "case-1")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, s.BindCase(ctx, "case-1", "a"))
		id, err := s.LookupCase(ctx, "case-1")
		require.NoError(t, err)
		assert.Equal(t, "a", id)

		require.NoError(t, s.BindCase(ctx, "case-1", "b"))
		id, err = s.LookupCase(ctx, "case-1")
		require.NoError(t, err)
		assert.Equal(t, "b", id)
	})

	if h.Expire == nil {
		return
	}

	t.Run("Retention", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Create(ctx, NewTask("a")))
		require.NoError(t, s.BindCase(ctx, "case-1", "a"))

		h.Expire(t)

		_, err := s.Get(ctx, "a")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.LookupCase(ctx, "case-1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, s.Create(ctx, NewTask("a")))
	})
}
