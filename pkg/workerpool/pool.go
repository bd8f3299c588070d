// Package workerpool is a bounded goroutine pool with backpressure, used
// for side work that must not hold up a request: mirroring orders into
// the document store and posting low-stock webhooks.
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//
//	err := pool.Submit("mirror_order", func(ctx context.Context) error {
//	    return docs.Mirror(ctx, order)
//	})
//	if errors.Is(err, workerpool.ErrPoolFull) {
//	    // drop and log; the request already succeeded
//	}
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmartin-estofados/storefront/pkg/logger"
	"github.com/mmartin-estofados/storefront/pkg/metrics"
)

var ErrPoolFull = errors.New("workerpool: pool is full")

var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Task is one unit of work. Its context is cancelled when the pool shuts
// down past its grace period.
type Task func(ctx context.Context) error

type job struct {
	name string
	task Task
}

// Pool runs at most size tasks at a time with a queue of 2×size.
type Pool struct {
	jobs   chan job
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
}

func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		jobs:   make(chan job, size*2),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking. name labels the job in metrics
// and logs.
func (p *Pool) Submit(name string, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job{name: name, task: task}:
		return nil
	default:
		return ErrPoolFull
	}
}

// Shutdown stops accepting tasks and waits up to grace for queued ones to
// finish, then cancels the rest. Safe to call more than once.
func (p *Pool) Shutdown(grace time.Duration) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		p.cancel()
		<-done
	}
	p.cancel()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	start := time.Now()
	status := "success"

	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			logger.Error("workerpool: task panicked", "job", j.name, "panic", fmt.Sprint(r))
		}
		metrics.RecordJob(j.name, status, start)
	}()

	if err := j.task(p.ctx); err != nil {
		status = "failed"
		logger.Warn("workerpool: task failed", "job", j.name, "error", err)
	}
}
