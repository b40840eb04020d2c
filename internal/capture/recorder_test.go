package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vadimbarashkov/linklytics/internal/models"
)

type stubStore struct {
	mu     sync.Mutex
	events []models.ClickEvent
	err    error
}

func (s *stubStore) Insert(_ context.Context, event *models.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.events = append(s.events, *event)
	return nil
}

func (s *stubStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_Record(t *testing.T) {
	t.Run("persists exactly one event per call", func(t *testing.T) {
		store := &stubStore{}
		rec := NewRecorder(store, discardLogger())

		rec.Record(models.ClickEvent{LinkID: "link1"})
		rec.Record(models.ClickEvent{LinkID: "link1"})

		assert.NoError(t, rec.Close())
		assert.Equal(t, 2, store.count())
	})

	t.Run("assigns an id to each event", func(t *testing.T) {
		store := &stubStore{}
		rec := NewRecorder(store, discardLogger())

		rec.Record(models.ClickEvent{LinkID: "link1"})

		assert.NoError(t, rec.Close())
		assert.NotEmpty(t, store.events[0].ID)
	})

	t.Run("never blocks or errors on a failing store", func(t *testing.T) {
		store := &stubStore{err: errors.New("storage down")}
		rec := NewRecorder(store, discardLogger())

		done := make(chan struct{})
		go func() {
			for i := 0; i < 100; i++ {
				rec.Record(models.ClickEvent{LinkID: "link1"})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Record blocked on failing store")
		}

		assert.NoError(t, rec.Close())
		assert.Equal(t, 0, store.count())
	})

	t.Run("drops events when the queue is full", func(t *testing.T) {
		block := make(chan struct{})
		store := &blockingStore{release: block}
		rec := NewRecorder(store, discardLogger(), WithQueueSize(1))

		// First event occupies the worker, second fills the queue, the rest
		// must be dropped without blocking.
		for i := 0; i < 10; i++ {
			rec.Record(models.ClickEvent{LinkID: "link1"})
		}

		close(block)
		assert.NoError(t, rec.Close())
		assert.LessOrEqual(t, store.count(), 2)
	})
}

type blockingStore struct {
	mu      sync.Mutex
	n       int
	release chan struct{}
}

func (s *blockingStore) Insert(_ context.Context, _ *models.ClickEvent) error {
	<-s.release

	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return nil
}

func (s *blockingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}
