package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/vadimbarashkov/linklytics/internal/models"
)

const (
	defaultQueueSize    = 1024
	defaultWriteTimeout = 3 * time.Second
)

// ClickEventStore is the persistence the recorder writes through.
type ClickEventStore interface {
	Insert(ctx context.Context, event *models.ClickEvent) error
}

// Recorder persists click events best-effort. Record never blocks and never
// surfaces an error to the redirect path: a full queue drops the event, and a
// failed insert is logged and swallowed. Each write runs under its own timeout
// detached from the request context, so a client cancelling the redirect does
// not cancel an in-flight write.
type Recorder struct {
	store        ClickEventStore
	logger       *slog.Logger
	queue        chan models.ClickEvent
	writeTimeout time.Duration

	once sync.Once
	done chan struct{}
}

type RecorderOption func(*Recorder)

func WithQueueSize(n int) RecorderOption {
	return func(r *Recorder) {
		r.queue = make(chan models.ClickEvent, n)
	}
}

func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.writeTimeout = d
	}
}

func NewRecorder(store ClickEventStore, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:        store,
		logger:       logger,
		queue:        make(chan models.ClickEvent, defaultQueueSize),
		writeTimeout: defaultWriteTimeout,
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	go r.run()

	return r
}

// Record submits one event for persistence. The event is assigned an id here;
// the capture timestamp is assigned by the storage layer at insert time.
// Record must not be called after Close.
func (r *Recorder) Record(event models.ClickEvent) {
	const op = "capture.Recorder.Record"

	id, err := gonanoid.New()
	if err != nil {
		r.logger.Error("failed to generate click event id",
			slog.String("op", op), slog.Any("err", err))
		return
	}
	event.ID = id

	select {
	case r.queue <- event:
	default:
		r.logger.Warn("click event dropped, queue full",
			slog.String("op", op), slog.String("link_id", event.LinkID))
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	for event := range r.queue {
		r.write(event)
	}
}

func (r *Recorder) write(event models.ClickEvent) {
	const op = "capture.Recorder.write"

	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.store.Insert(ctx, &event); err != nil {
		r.logger.Error("failed to record click event",
			slog.String("op", op), slog.String("link_id", event.LinkID), slog.Any("err", err))
	}
}

// Close stops accepting events and drains the queue.
func (r *Recorder) Close() error {
	const op = "capture.Recorder.Close"

	r.once.Do(func() {
		close(r.queue)
	})

	select {
	case <-r.done:
		return nil
	case <-time.After(r.writeTimeout + time.Second):
		return fmt.Errorf("%s: timed out draining click event queue", op)
	}
}
