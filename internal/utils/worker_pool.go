package utils

import (
	"sync"

	"github.com/rs/zerolog"
)

// Job represents a task to be executed by a worker.
type Job struct {
	Task func()
}

// WorkerPool runs submitted tasks on a fixed number of goroutines.
type WorkerPool struct {
	workers   int
	jobQueue  chan Job
	waitGroup sync.WaitGroup
	logger    zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a new WorkerPool with the specified number of workers.
func NewWorkerPool(workers int, logger zerolog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	pool := &WorkerPool{
		workers:  workers,
		jobQueue: make(chan Job, workers*4),
		logger:   logger,
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}

	return pool
}

func (wp *WorkerPool) worker() {
	defer wp.waitGroup.Done()
	for job := range wp.jobQueue {
		wp.run(job)
	}
}

// run executes one job; a panicking task does not take the worker down.
func (wp *WorkerPool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error().Interface("panic", r).Msg("Worker task panicked")
		}
	}()
	job.Task()
}

// Submit queues task. Tasks submitted after Shutdown are dropped.
func (wp *WorkerPool) Submit(task func()) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		wp.logger.Warn().Msg("Worker pool is shut down, task dropped")
		return
	}
	wp.jobQueue <- Job{Task: task}
}

// Shutdown waits for queued tasks to finish and stops the workers.
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	wp.waitGroup.Wait()
}
