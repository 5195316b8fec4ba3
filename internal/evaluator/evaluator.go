// Package evaluator implements the worker pool abstraction the Manager
// dispatches jobs through: enqueue(job) and a blocking dequeue() of
// completed jobs. The default realization is a fixed-size goroutine pool:
// a channel of completions drained by the scheduler, workers recovering
// from any panic in the unit of work. An Inline evaluator is also
// provided, so the Manager's scheduling logic can be tested without real
// concurrency.
package evaluator

import (
	"context"
	"sync"

	"github.com/weave-ssg/weave/internal/job"
)

// Evaluator is the scheduler-facing worker pool contract.
type Evaluator interface {
	// Enqueue submits a job. It must never block and must never drop the
	// job.
	Enqueue(j *job.Job)
	// Dequeue blocks for the next completed job. The second return value
	// is false iff a worker panicked or the pool is terminating.
	Dequeue() (*job.Job, bool)
}

// Pool is a fixed-size worker pool realization of Evaluator. Jobs queue on
// an unbounded, mutex-guarded slice (so Enqueue truly never blocks or
// drops, regardless of how many jobs are in flight) and are drained by the
// worker goroutines NewPool starts, which invoke job.Process and return the mutated job on
// the completion channel.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*job.Job
	closing bool

	output chan *job.Job
	dead   chan struct{}
	deadMu sync.Once

	wg sync.WaitGroup
}

// NewPool starts a Pool with the given number of worker goroutines.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		output: make(chan *job.Job),
		dead:   make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Enqueue appends j to the work queue and wakes a worker.
func (p *Pool) Enqueue(j *job.Job) {
	p.mu.Lock()
	p.queue = append(p.queue, j)
	p.mu.Unlock()
	p.cond.Signal()
}

// Dequeue blocks until a job completes, a worker panics, or the pool is
// shut down.
func (p *Pool) Dequeue() (*job.Job, bool) {
	select {
	case j, ok := <-p.output:
		return j, ok
	case <-p.dead:
		return nil, false
	}
}

// Shutdown stops accepting new work and waits for in-flight jobs to
// finish. It does not close the completion channel; callers that already
// dequeued everything they expect simply stop calling Dequeue.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.closing = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closing {
			p.cond.Wait()
		}
		if len(p.queue) == 0 && p.closing {
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		if !p.run(j) {
			return
		}
	}
}

// run invokes job.Process, recovering from any panic and reporting the
// pool dead rather than propagating it: an
// uncaught panic to surface as a Dequeue returning "none". It returns
// false if the pool died during this job (the worker should exit).
func (p *Pool) run(j *job.Job) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.deadMu.Do(func() { close(p.dead) })
			ok = false
		}
	}()
	j.Err = j.Process(context.Background())
	select {
	case p.output <- j:
		return true
	case <-p.dead:
		return false
	}
}

// Inline is a single-threaded Evaluator: Enqueue runs the job
// synchronously on the calling goroutine, and Dequeue hands back the
// jobs Enqueue already ran, in submission order. It exists to exercise
// Manager scheduling logic deterministically in tests.
type Inline struct {
	done []*job.Job
}

// NewInline returns an Inline evaluator.
func NewInline() *Inline { return &Inline{} }

// Enqueue runs j.Process immediately and buffers the result.
func (e *Inline) Enqueue(j *job.Job) {
	j.Err = j.Process(context.Background())
	e.done = append(e.done, j)
}

// Dequeue returns the next buffered completion, in submission order.
func (e *Inline) Dequeue() (*job.Job, bool) {
	if len(e.done) == 0 {
		return nil, false
	}
	j := e.done[0]
	e.done = e.done[1:]
	return j, true
}
