// Package workerpool runs jobs on a fixed number of concurrent slots and
// hands back futures that can be waited on or polled.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

var (
	ErrInvalidSize = errors.New("pool size must be positive")
	ErrClosed      = errors.New("pool closed")
)

// Job is the unit of work. ctx is the context the pool was created with.
type Job func(ctx context.Context) error

// Pool is a fixed-size worker pool. Submit never blocks: jobs beyond the
// pool size wait for a free slot.
type Pool struct {
	size  int
	slots *semaphore.Weighted
	ctx   context.Context
	wg    sync.WaitGroup

	closed  atomic.Bool
	running atomic.Int64
	queued  atomic.Int64
}

// New creates a pool of size slots. Jobs run with ctx: cancelling it is the
// only way to stop them, and queued jobs then fail with ctx's error.
func New(ctx context.Context, size int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return &Pool{
		size:  size,
		slots: semaphore.NewWeighted(int64(size)),
		ctx:   ctx,
	}, nil
}

func (p *Pool) Size() int {
	return p.size
}

// Running is the number of jobs currently holding a slot.
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// Queued is the number of submitted jobs waiting for a slot.
func (p *Pool) Queued() int {
	return int(p.queued.Load())
}

// Submit schedules job and returns its future. After Close the future is
// already completed with ErrClosed.
func (p *Pool) Submit(job Job) *Future {
	f := newFuture()
	if p.closed.Load() {
		f.complete(ErrClosed)
		return f
	}

	p.wg.Add(1)
	p.queued.Add(1)
	go func() {
		defer p.wg.Done()

		err := p.slots.Acquire(p.ctx, 1)
		p.queued.Add(-1)
		if err != nil {
			f.complete(err)
			return
		}
		defer p.slots.Release(1)

		p.running.Add(1)
		defer p.running.Add(-1)

		f.complete(run(p.ctx, job))
	}()
	return f
}

func run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job(ctx)
}

// Close refuses further submissions and waits until every submitted job,
// running or queued, has returned. It does not cancel them.
func (p *Pool) Close() {
	p.closed.Store(true)
	p.wg.Wait()
}
