package history

import "sync"

// Executor schedules store lifecycle work (init, replay, flush, destroy)
// off the caller's goroutine. The manager posts this work in the order it
// must run; an Executor must preserve that order.
type Executor interface {
	// Post enqueues task for execution. Tasks for one executor never run
	// concurrently with each other.
	Post(task func())

	// Close drains queued tasks and stops the executor. Post after Close
	// is a no-op.
	Close()
}

// SerialExecutor runs tasks on a single background goroutine in FIFO
// order. This preserves destroy-then-recreate ordering for a user's store
// without blocking lifecycle callbacks on disk writes.
type SerialExecutor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewSerialExecutor starts the executor goroutine.
func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{done: make(chan struct{})}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// Post enqueues task. Never blocks.
func (e *SerialExecutor) Post(task func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.queue = append(e.queue, task)
	e.cond.Signal()
}

// Close drains the queue, stops the goroutine, and waits for it to exit.
// Idempotent.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.cond.Signal()
	e.mu.Unlock()
	<-e.done
}

func (e *SerialExecutor) run() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 && e.closed {
			e.mu.Unlock()
			return
		}
		task := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()

		task()
	}
}

// DirectExecutor runs every task inline on the posting goroutine. Used by
// tests and one-shot CLI invocations where background dispatch only adds
// nondeterminism.
type DirectExecutor struct{}

// Post runs task immediately.
func (DirectExecutor) Post(task func()) { task() }

// Close is a no-op.
func (DirectExecutor) Close() {}
