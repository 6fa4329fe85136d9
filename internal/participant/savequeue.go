package participant

import (
	"context"
	"sync"
	"time"

	"cargo-console/internal/bay"
)

// SaveFunc writes one full arena.
type SaveFunc func(ctx context.Context, arena bay.Arena) error

// SaveQueue serializes arena saves. At most one save is in flight; an arena
// queued while a save runs replaces any older queued arena, so the last
// persisted arena is always the newest one handed in.
type SaveQueue struct {
	save    SaveFunc
	onError func(error)
	onIdle  func()
	timeout time.Duration

	mu       sync.Mutex
	pending  bay.Arena
	queued   bool
	inFlight bool
	idle     chan struct{}
}

func NewSaveQueue(save SaveFunc, onError func(error), timeout time.Duration) *SaveQueue {
	idle := make(chan struct{})
	close(idle)
	if onError == nil {
		onError = func(error) {}
	}
	return &SaveQueue{
		save:    save,
		onError: onError,
		timeout: timeout,
		idle:    idle,
	}
}

// OnIdle registers fn to run each time the queue drains, after the last save
// finished either way. It must be set before the first Persist.
func (q *SaveQueue) OnIdle(fn func()) {
	q.onIdle = fn
}

// Persist queues arena and returns at once.
func (q *SaveQueue) Persist(arena bay.Arena) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = arena
	q.queued = true
	if q.inFlight {
		return
	}
	q.inFlight = true
	q.idle = make(chan struct{})
	go q.run()
}

func (q *SaveQueue) run() {
	for {
		q.mu.Lock()
		if !q.queued {
			q.inFlight = false
			close(q.idle)
			q.mu.Unlock()
			if q.onIdle != nil {
				q.onIdle()
			}
			return
		}
		arena := q.pending
		q.pending = nil
		q.queued = false
		q.mu.Unlock()

		ctx := context.Background()
		cancel := context.CancelFunc(func() {})
		if q.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, q.timeout)
		}
		err := q.save(ctx, arena)
		cancel()
		if err != nil {
			q.onError(err)
		}
	}
}

// Idle reports whether nothing is queued or in flight.
func (q *SaveQueue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.inFlight
}

// Drain waits until every queued arena has been written or ctx is done.
func (q *SaveQueue) Drain(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
