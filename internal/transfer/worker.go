package transfer

import (
	"context"
	"errors"
	"sync"
)

// ErrWorkerStopped is returned for work submitted after Stop.
var ErrWorkerStopped = errors.New("worker stopped")

// Job is one unit of background work.
type Job func(ctx context.Context)

// Worker is the single background execution context: listings, refreshes and batches run on
// its one goroutine in submission order, never on the caller's.
type Worker struct {
	ctx    context.Context //nolint:containedctx // lifetime of the worker goroutine
	jobs   chan Job
	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewWorker starts a worker whose jobs receive ctx.
func NewWorker(ctx context.Context, queue int) *Worker {
	w := &Worker{
		ctx:  ctx,
		jobs: make(chan Job, queue),
		done: make(chan struct{}),
	}

	go w.loop()

	return w
}

func (w *Worker) loop() {
	defer close(w.done)

	for job := range w.jobs {
		job(w.ctx)
	}
}

// Submit queues job. It blocks while the queue is full.
func (w *Worker) Submit(job Job) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWorkerStopped
	}

	w.jobs <- job

	return nil
}

// Do runs fn on the worker and waits for its result.
func (w *Worker) Do(fn func(ctx context.Context) error) error {
	result := make(chan error, 1)

	err := w.Submit(func(ctx context.Context) {
		result <- fn(ctx)
	})
	if err != nil {
		return err
	}

	return <-result
}

// Stop refuses new work, lets queued jobs finish and waits for the goroutine to exit.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()

	<-w.done
}
