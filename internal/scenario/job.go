// Package scenario implements the jobs a load-test run dispatches to its
// worker pool: bulk nym creation by a steward and per-user key rotation
// with read-back.
package scenario

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindCreateNyms    Kind = "create-nyms"
	KindRotateAndRead Kind = "rotate-and-read"
)

// NymSpec is a nym to register.
type NymSpec struct {
	Dest   string
	Verkey string
}

// Job describes one scenario instance. A job owns its fields; callers must
// not share slices between jobs.
type Job struct {
	Kind Kind
	// Seed is the steward seed for CreateNyms and the user seed for
	// RotateAndRead.
	Seed       []byte
	Nyms       []NymSpec
	Iterations int
	// LogFile receives the job's own log.
	LogFile string
}

var ErrUnknownKind = errors.New("unknown scenario kind")

// Validate checks the job is runnable.
func (j Job) Validate() error {
	switch j.Kind {
	case KindCreateNyms:
		if len(j.Nyms) == 0 {
			return errors.New("create-nyms job without nyms")
		}
	case KindRotateAndRead:
		if j.Iterations <= 0 {
			return fmt.Errorf("rotate-and-read job needs positive iterations, got %d", j.Iterations)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, j.Kind)
	}
	if j.LogFile == "" {
		return errors.New("job without log file")
	}
	return nil
}

// Runner executes jobs.
type Runner interface {
	Run(ctx context.Context, job Job) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, job Job) error

func (f RunnerFunc) Run(ctx context.Context, job Job) error {
	return f(ctx, job)
}
