package database

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"botshop/metrics"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrStoreClosed is returned for work submitted after Close
	ErrStoreClosed = errors.New("store is closed")

	// ErrTaskPanicked wraps a panic recovered from a task
	ErrTaskPanicked = errors.New("task panicked")
)

// task is one unit of exclusive work
type task struct {
	kind string
	fn   func() error
	done chan error
}

// TaskQueue runs submitted tasks one at a time, in submission order, on a
// single worker goroutine.
//
// The queue is unbounded so callers never block on submission; waiting
// callers block on their own task's completion instead. A failing or
// panicking task does not affect the tasks behind it.
type TaskQueue struct {
	mu      sync.Mutex
	tasks   []*task
	closed  bool
	signal  chan struct{} // buffered, size 1
	stopped chan struct{}
	metrics *metrics.StoreMetrics
}

// NewTaskQueue creates a queue and starts its worker
func NewTaskQueue(m *metrics.StoreMetrics) *TaskQueue {
	q := &TaskQueue{
		tasks:   make([]*task, 0, 16),
		signal:  make(chan struct{}, 1),
		stopped: make(chan struct{}),
		metrics: m,
	}
	go q.run()
	return q
}

// RunExclusive enqueues fn and blocks until it has run. The context is only
// consulted before the task is enqueued; once accepted, a task always runs to
// completion and its result is returned.
func (q *TaskQueue) RunExclusive(ctx context.Context, fn func() error) error {
	return q.submit(ctx, metrics.KindWrite, fn)
}

func (q *TaskQueue) submit(ctx context.Context, kind string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := &task{kind: kind, fn: fn, done: make(chan error, 1)}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.metrics.ObserveTask(kind, metrics.OutcomeClosed, 0)
		return ErrStoreClosed
	}
	q.tasks = append(q.tasks, t)
	q.metrics.SetQueueDepth(len(q.tasks))
	select {
	case q.signal <- struct{}{}:
	default:
	}
	q.mu.Unlock()

	return <-t.done
}

// next removes the front task, or reports that the queue is closed and empty
func (q *TaskQueue) next() (*task, bool) {
	for {
		q.mu.Lock()
		if len(q.tasks) > 0 {
			t := q.tasks[0]
			q.tasks[0] = nil
			if len(q.tasks) == 1 {
				q.tasks = q.tasks[:0]
			} else {
				q.tasks = q.tasks[1:]
			}
			q.metrics.SetQueueDepth(len(q.tasks))
			q.mu.Unlock()
			return t, true
		}
		if q.closed {
			q.mu.Unlock()
			return nil, false
		}
		q.mu.Unlock()
		<-q.signal
	}
}

func (q *TaskQueue) run() {
	defer close(q.stopped)
	for {
		t, ok := q.next()
		if !ok {
			return
		}
		t.done <- q.execute(t)
	}
}

func (q *TaskQueue) execute(t *task) (err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"kind":  t.kind,
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("Store task panicked")
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			outcome = metrics.OutcomePanic
		} else if err != nil {
			outcome = metrics.OutcomeError
		}
		elapsed := time.Since(start)
		q.metrics.ObserveTask(t.kind, outcome, elapsed)
		log.WithFields(log.Fields{
			"kind":     t.kind,
			"outcome":  outcome,
			"duration": elapsed,
		}).Debug("Store task finished")
	}()
	return t.fn()
}

// Len returns the number of tasks waiting to run
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close stops accepting tasks, lets the already queued ones finish, and
// waits for the worker to exit.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.signal)
	}
	q.mu.Unlock()
	<-q.stopped
}
