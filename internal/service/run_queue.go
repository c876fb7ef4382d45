package service

import (
	"context"
	"log"
	"sync"
)

// ShutdownRunResult is the result of queued runs that were never started
// because the queue shut down.
const ShutdownRunResult = "run queue shut down before the run started"

type RunExecutor interface {
	Execute(context.Context, int64) error
	Abort(context.Context, int64, string) error
}

func NewRunQueue(executor RunExecutor, maxRuns, workers int64) *RunQueue {
	return &RunQueue{
		executor: executor,
		queue:    make(chan int64, max(maxRuns, 1)),
		done:     make(chan struct{}),
		workers:  max(workers, 1),
	}
}

// RunQueue buffers test run ids and executes them on a fixed number of
// workers.
type RunQueue struct {
	executor RunExecutor
	queue    chan int64
	done     chan struct{}
	workers  int64
	closed   bool

	wg sync.WaitGroup
	mu sync.Mutex
}

// Enqueue never blocks. It returns ErrRunQueueFull when the buffer is full
// or the queue has been shut down.
func (rq *RunQueue) Enqueue(runID int64) error {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	if rq.closed {
		return NewErrRunQueueFull()
	}
	select {
	case rq.queue <- runID:
		return nil
	default:
		return NewErrRunQueueFull()
	}
}

// Run starts the workers and blocks until Shutdown is called and every
// in-flight run has finished.
func (rq *RunQueue) Run() {
	rq.mu.Lock()
	if rq.closed {
		rq.mu.Unlock()
		return
	}
	for range rq.workers {
		rq.wg.Go(rq.work)
	}
	rq.mu.Unlock()
	rq.wg.Wait()
}

func (rq *RunQueue) work() {
	for {
		// a closed queue starts nothing new, even with runs still buffered
		select {
		case <-rq.done:
			return
		default:
		}
		select {
		case runID := <-rq.queue:
			rq.execute(runID)
		case <-rq.done:
			return
		}
	}
}

func (rq *RunQueue) execute(runID int64) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("err executing test run %d: %v\n", runID, r)
		}
	}()
	if err := rq.executor.Execute(context.Background(), runID); err != nil {
		log.Printf("err executing test run %d: %+v\n", runID, err)
	}
}

// Shutdown stops intake, waits for in-flight runs to finish and fails every
// run still waiting in the buffer. It is safe to call more than once.
func (rq *RunQueue) Shutdown() {
	rq.mu.Lock()
	if rq.closed {
		rq.mu.Unlock()
		rq.wg.Wait()
		return
	}
	rq.closed = true
	close(rq.done)
	rq.mu.Unlock()

	rq.wg.Wait()
	for {
		select {
		case runID := <-rq.queue:
			rq.abort(runID)
		default:
			return
		}
	}
}

func (rq *RunQueue) abort(runID int64) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("err aborting test run %d: %v\n", runID, r)
		}
	}()
	if err := rq.executor.Abort(context.Background(), runID, ShutdownRunResult); err != nil {
		log.Printf("err aborting test run %d: %+v\n", runID, err)
	}
}
