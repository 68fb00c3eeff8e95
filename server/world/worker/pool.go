// Package worker implements the message-passing worker pool: heavy, pure
// tasks (terrain generation, meshing, full-column relight) run on a fixed
// set of goroutines; inputs are moved into the job, outputs are moved back
// through a reply queue the game-tick thread drains once per frame.
package worker

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Job is one unit of offloaded work. Run executes on a worker goroutine and
// must be pure: it reads the inputs captured at submit time and returns a
// value moved back to the tick thread, never touching live world state.
type Job struct {
	id  uuid.UUID
	run func() any
}

// Result is one completed job's reply. Err is non-nil when the job
// panicked; the subsystem logs it and degrades rather than crashing.
type Result struct {
	ID    uuid.UUID
	Value any
	Err   error
}

// Pool is a fixed-size worker pool. Submit and Drain are called from the
// game-tick thread; Run bodies execute concurrently on the pool.
type Pool struct {
	log *slog.Logger

	jobs    chan Job
	results chan Result

	closing chan struct{}
	once    sync.Once
	g       *errgroup.Group
}

// NewPool starts a pool of n workers (n <= 0 selects GOMAXPROCS-1, minimum
// 1) with a job queue of queueSize (<= 0 selects 4·n).
func NewPool(n, queueSize int, log *slog.Logger) *Pool {
	if log == nil {
		log = slog.Default()
	}
	if n <= 0 {
		n = runtime.GOMAXPROCS(0) - 1
		if n < 1 {
			n = 1
		}
	}
	if queueSize <= 0 {
		queueSize = 4 * n
	}
	p := &Pool{
		log:     log,
		jobs:    make(chan Job, queueSize),
		results: make(chan Result, queueSize*2),
		closing: make(chan struct{}),
		g:       &errgroup.Group{},
	}
	for i := 0; i < n; i++ {
		p.g.Go(p.work)
	}
	return p
}

func (p *Pool) work() error {
	for {
		select {
		case job := <-p.jobs:
			p.runJob(job)
		case <-p.closing:
			return nil
		}
	}
}

func (p *Pool) runJob(job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker: job panicked", "id", job.id, "err", fmt.Sprint(r))
			p.deliver(Result{ID: job.id, Err: fmt.Errorf("worker: job panicked: %v", r)})
		}
	}()
	p.deliver(Result{ID: job.id, Value: job.run()})
}

// deliver hands a result back without ever blocking a worker forever on a
// closed pool.
func (p *Pool) deliver(res Result) {
	select {
	case p.results <- res:
	case <-p.closing:
	}
}

// Submit enqueues run on the pool and returns its request id. ok is false
// when the queue is full or the pool is closing; the caller keeps the work
// queued on its side and retries next frame; the pool never blocks the
// tick thread.
func (p *Pool) Submit(run func() any) (id uuid.UUID, ok bool) {
	id = uuid.New()
	select {
	case <-p.closing:
		return id, false
	default:
	}
	select {
	case p.jobs <- Job{id: id, run: run}:
		return id, true
	default:
		return id, false
	}
}

// Drain delivers all currently completed results to apply, without
// blocking. The tick thread calls this once per frame and reconciles each
// reply against its own in-flight bookkeeping, discarding stale ids from
// cancelled tasks.
func (p *Pool) Drain(apply func(Result)) {
	for {
		select {
		case res := <-p.results:
			apply(res)
		default:
			return
		}
	}
}

// Close stops the workers. Pending jobs that never ran produce no results;
// the world treats them like cancelled tasks.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.closing) })
	_ = p.g.Wait()
}
