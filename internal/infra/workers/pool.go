// Package workers runs background generation jobs on fixed-size goroutine
// pools. One pool per operation class (text vs image) caps concurrent calls
// against the AI provider; the cap is shared across all projects.
package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Job is one unit of background work. The error return is for logging only:
// jobs own their task records and must convert failures to a terminal task
// state themselves before returning.
type Job func(ctx context.Context) error

// ErrClosed is returned by Submit after Shutdown began.
var ErrClosed = errors.New("worker pool is shut down")

// Pool is a bounded worker pool over a buffered job channel. Jobs already
// queued are drained on shutdown; the HTTP handler that submitted them has
// long since returned.
type Pool struct {
	name string
	log  *zap.Logger

	jobs chan Job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts size workers draining a queue of queueSize pending jobs.
func New(name string, size, queueSize int, log *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	p := &Pool{
		name: name,
		log:  log,
		jobs: make(chan Job, queueSize),
	}

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(job)
	}
}

// run executes one job. A panic or error inside a job must never take down
// the pool.
func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Sugar().Errorw("background job panicked",
				"pool", p.name, "panic", fmt.Sprintf("%v", r))
		}
	}()

	if err := job(context.Background()); err != nil {
		p.log.Sugar().Warnw("background job returned error",
			"pool", p.name, "err", err)
	}
}

// Submit enqueues a job, blocking while the queue is full. The caller should
// have created the task record before submitting; the job is the task's only
// writer from here on.
func (p *Pool) Submit(job Job) error {
	// Hold the read lock across the send so Shutdown cannot close the
	// channel underneath an in-flight submit.
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	p.jobs <- job
	return nil
}

// Shutdown stops accepting jobs and waits until queued jobs drain or the
// context expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
