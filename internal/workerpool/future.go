package workerpool

import (
	"context"
	"time"
)

// State is the result of a non-blocking poll.
type State int

const (
	Pending State = iota
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Future is the handle of a submitted job.
type Future struct {
	done chan struct{}
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(err error) {
	f.err = err
	close(f.done)
}

// Done is closed once the job has returned.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the job returns or ctx ends. Giving up on the wait
// does not cancel the job.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poll reports the job state without blocking. The error is set only for
// Failed.
func (f *Future) Poll() (State, error) {
	select {
	case <-f.done:
		if f.err != nil {
			return Failed, f.err
		}
		return Succeeded, nil
	default:
		return Pending, nil
	}
}

// WaitAll blocks until every future is done, ctx ends or timeout elapses.
// A negative timeout waits without bound. It returns
// context.DeadlineExceeded on timeout and never cancels the jobs.
func WaitAll(ctx context.Context, timeout time.Duration, futures ...*Future) error {
	if timeout >= 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	for _, f := range futures {
		// finished futures win over an already expired deadline
		select {
		case <-f.done:
			continue
		default:
		}
		select {
		case <-f.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
