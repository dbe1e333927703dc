package worker

import (
	"context"
	"log"
	"runtime"
	"sync"

	"screencap/src/screenshot"
)

// ResultCallback is invoked on grab completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(path string, err error)

// captureFunc runs one screenshot request. Swappable for tests.
var captureFunc = func(ctx context.Context, req screenshot.Request) (string, error) {
	return req.Take(ctx)
}

// Pool is a fixed-size capture worker pool with a 1-slot input queue
// (strict back-pressure: a second grab while one is pending gets dropped).
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx context.Context
	req screenshot.Request
	cb  ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Printf("Worker: Starting grab mode=%s region=%s", j.req.Mode, j.req.Region)
				path, err := captureFunc(j.ctx, j.req)
				log.Printf("Worker: Grab completed, path=%q, err=%v", path, err)
				j.cb(path, err)
			}
		}()
	}
}

// Submit enqueues a grab if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, req screenshot.Request, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, req: req, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
