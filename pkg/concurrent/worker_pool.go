package concurrent

import (
	"errors"
	"time"
)

var ErrScheduleTimeout = errors.New("schedule error: timed out")

// WorkerPool is a bounded goroutine pool. sem caps the number of live workers,
// work queues tasks for already-spawned workers; Schedule prefers handing work
// to an idle worker and only spawns a new one when the cap allows.
type WorkerPool struct {
	sem  chan struct{}
	work chan func()
}

func NewWorkerPool(size, queue int) *WorkerPool {
	return &WorkerPool{
		sem:  make(chan struct{}, size),
		work: make(chan func(), queue),
	}
}

// Spawn starts n workers up front.
func (p *WorkerPool) Spawn(n int) {
	for i := 0; i < n; i++ {
		p.sem <- struct{}{}
		go p.worker(func() {})
	}
}

// Schedule blocks until the task is queued or a worker slot opens.
func (p *WorkerPool) Schedule(task func()) {
	select {
	case p.work <- task:
	case p.sem <- struct{}{}:
		go p.worker(task)
	}
}

// ScheduleTimeout gives up with ErrScheduleTimeout when no worker frees up
// within timeout.
func (p *WorkerPool) ScheduleTimeout(timeout time.Duration, task func()) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case p.work <- task:
		return nil
	case p.sem <- struct{}{}:
		go p.worker(task)
		return nil
	case <-t.C:
		return ErrScheduleTimeout
	}
}

func (p *WorkerPool) worker(task func()) {
	defer func() { <-p.sem }()

	task()
	for task := range p.work {
		task()
	}
}

// Close stops idle workers once queued work drains. Schedule must not be called
// after Close.
func (p *WorkerPool) Close() {
	close(p.work)
}
