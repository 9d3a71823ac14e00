// Package scheduler runs submitted job functions on a fixed-size worker pool.
package scheduler

import (
	"log"
	"runtime/debug"
	"sync"
)

// Scheduler executes at most N submitted functions concurrently. Submit never
// blocks: excess work waits in an internal unbounded queue and is picked up by
// whichever worker frees first, so queued order is not a pickup guarantee.
// There is no graceful drain; pending work is abandoned when the process exits.
type Scheduler struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	stopped bool
}

// New starts a scheduler with the given number of worker slots.
func New(workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	s := &Scheduler{}
	s.cond = sync.NewCond(&s.mu)
	for i := 0; i < workers; i++ {
		go s.worker(i)
	}
	return s
}

// Submit enqueues a job function and returns immediately.
func (s *Scheduler) Submit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.queue = append(s.queue, fn)
	s.cond.Signal()
}

// Stop wakes all workers and lets them exit. Queued work is abandoned.
// Intended for tests; the service itself never drains.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.queue = nil
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *Scheduler) worker(slot int) {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if s.stopped {
			s.mu.Unlock()
			return
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.run(slot, fn)
	}
}

// run isolates a single job: a panic is logged and must never take the worker
// slot down or leak into the caller.
func (s *Scheduler) run(slot int, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Scheduler] worker %d: job panic: %v\n%s", slot, r, debug.Stack())
		}
	}()
	fn()
}
