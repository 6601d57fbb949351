package loadtest

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/ledgerload/internal/workerpool"
	"github.com/hashicorp/go-multierror"
)

// UserResult is the observed state of one user's RotateAndRead job at
// aggregation time.
type UserResult struct {
	Identifier string
	Seed       string
	LogFile    string
	State      workerpool.State
	Err        error
}

// Outcome summarises a run.
type Outcome struct {
	RunID      string
	LogDir     string
	Users      int
	Iterations int
	Timeout    time.Duration
	Started    time.Time
	Elapsed    time.Duration
	State      State

	Results []UserResult
}

// Success is true when no user job finished with an error. Jobs still
// pending at aggregation time do not count as failures.
func (o *Outcome) Success() bool {
	return o.State == AllSucceeded
}

func (o *Outcome) count(s workerpool.State) int {
	n := 0
	for _, r := range o.Results {
		if r.State == s {
			n++
		}
	}
	return n
}

func (o *Outcome) Succeeded() int { return o.count(workerpool.Succeeded) }
func (o *Outcome) Failed() int    { return o.count(workerpool.Failed) }
func (o *Outcome) Pending() int   { return o.count(workerpool.Pending) }

// Failures returns the results of failed users.
func (o *Outcome) Failures() []UserResult {
	var out []UserResult
	for _, r := range o.Results {
		if r.State == workerpool.Failed {
			out = append(out, r)
		}
	}
	return out
}

// Err aggregates the per-user failures, nil when there are none.
func (o *Outcome) Err() error {
	var result *multierror.Error
	for _, r := range o.Failures() {
		result = multierror.Append(result, fmt.Errorf("user %s: %w", r.Identifier, r.Err))
	}
	return result.ErrorOrNil()
}
