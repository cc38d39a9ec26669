package audit

import (
	"context"
	"sync"
	"time"
)

// AsyncOptions tunes WithAsync. Zero fields take defaults.
type AsyncOptions struct {
	BufferSize     int           // queued writes before Store falls back to a direct write
	BatchSize      int           // events per storage call
	BatchTimeout   time.Duration // longest a partial batch waits
	StorageTimeout time.Duration // deadline for each storage call
}

func (o AsyncOptions) withDefaults() AsyncOptions {
	if o.BufferSize <= 0 {
		o.BufferSize = 1000
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.BatchTimeout <= 0 {
		o.BatchTimeout = 100 * time.Millisecond
	}
	if o.StorageTimeout <= 0 {
		o.StorageTimeout = 5 * time.Second
	}
	return o
}

type pendingWrite struct {
	events []Event
	done   chan error
}

// asyncStorage groups concurrent Store calls into batched writes. Each caller
// still waits for the outcome of the batch that carried its events.
type asyncStorage struct {
	next    Storage
	opts    AsyncOptions
	queue   chan pendingWrite
	closing chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newAsyncStorage(next Storage, opts AsyncOptions) *asyncStorage {
	opts = opts.withDefaults()
	s := &asyncStorage{
		next:    next,
		opts:    opts,
		queue:   make(chan pendingWrite, opts.BufferSize),
		closing: make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *asyncStorage) Store(ctx context.Context, events ...Event) error {
	select {
	case <-s.closing:
		return ErrStorageNotAvailable
	default:
	}

	w := pendingWrite{events: events, done: make(chan error, 1)}
	select {
	case s.queue <- w:
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Queue full: write through instead of dropping.
		return s.next.Store(ctx, events...)
	}

	select {
	case err := <-w.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *asyncStorage) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	return s.next.Query(ctx, criteria)
}

// Close stops accepting events and waits, bounded by ctx, for the queue to
// be written.
func (s *asyncStorage) Close(ctx context.Context) error {
	s.once.Do(func() { close(s.closing) })
	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *asyncStorage) loop() {
	defer close(s.stopped)

	var batch []pendingWrite
	size := 0
	tick := time.NewTicker(s.opts.BatchTimeout)
	defer tick.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.write(batch, size)
		batch, size = batch[:0], 0
	}

	for {
		select {
		case w := <-s.queue:
			batch = append(batch, w)
			size += len(w.events)
			if size >= s.opts.BatchSize {
				flush()
			}
		case <-tick.C:
			flush()
		case <-s.closing:
			for {
				select {
				case w := <-s.queue:
					batch = append(batch, w)
					size += len(w.events)
				default:
					flush()
					return
				}
			}
		}
	}
}

// write stores one batch on a context detached from any request.
func (s *asyncStorage) write(batch []pendingWrite, size int) {
	events := make([]Event, 0, size)
	for _, w := range batch {
		events = append(events, w.events...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.StorageTimeout)
	err := s.next.Store(ctx, events...)
	cancel()

	for _, w := range batch {
		w.done <- err
	}
}
