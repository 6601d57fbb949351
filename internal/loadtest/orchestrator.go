// Package loadtest runs the two-phase ledger load test: register every
// generated user under the steward, then let all users rotate and read
// their keys concurrently, and reduce the results to a verdict.
package loadtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/ledgerload/internal/cryptox"
	"github.com/dmitrijs2005/ledgerload/internal/filex"
	"github.com/dmitrijs2005/ledgerload/internal/identity"
	"github.com/dmitrijs2005/ledgerload/internal/logging"
	"github.com/dmitrijs2005/ledgerload/internal/metrics"
	"github.com/dmitrijs2005/ledgerload/internal/scenario"
	"github.com/dmitrijs2005/ledgerload/internal/workerpool"
	"github.com/google/uuid"
)

// NoTimeout makes Run wait on each phase without bound.
const NoTimeout time.Duration = -1

// DefaultStewardSeed is the seed of the well-known genesis steward.
const DefaultStewardSeed = "000000000000000000000000Steward1"

const (
	SummaryFile = "summary.txt"
	MetricsFile = "metrics.prom"
)

var (
	ErrNotConfigured    = errors.New("orchestrator is not configured")
	ErrAlreadyRun       = errors.New("orchestrator already ran")
	ErrInvalidArguments = errors.New("invalid run arguments")
	// ErrBootstrapTimeout wraps context.DeadlineExceeded.
	ErrBootstrapTimeout = fmt.Errorf("nym creation timed out: %w", context.DeadlineExceeded)
)

// LogDirName is the run directory name for a run started at t.
func LogDirName(t time.Time) string {
	return "test-logs-" + t.Format("2006-01-02T15-04-05")
}

// Uploader ships the finished log directory somewhere durable.
type Uploader interface {
	UploadDir(ctx context.Context, dir string) (int, error)
}

// Orchestrator runs one load test: user generation, nym creation by the
// steward, then the per-user scenarios on a pool sized to the user count.
type Orchestrator struct {
	generator   identity.Generator
	runner      scenario.Runner
	log         logging.Logger
	stewardSeed []byte
	logsRoot    string
	metrics     *metrics.Driver
	uploader    Uploader
	now         func() time.Time

	users      int
	iterations int
	timeout    time.Duration
	configured bool
	// overrides timeout for nym creation when set
	bootstrapTimeout *time.Duration

	state atomic.Int32
	ran   atomic.Bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStewardSeed sets the seed of the steward that signs nym creation.
func WithStewardSeed(seed []byte) Option {
	return func(o *Orchestrator) { o.stewardSeed = bytes.Clone(seed) }
}

// WithLogsRoot sets the parent of the run directory. The default is the
// working directory.
func WithLogsRoot(root string) Option {
	return func(o *Orchestrator) { o.logsRoot = root }
}

// WithMetrics records job outcomes and writes metrics.prom into the run
// directory.
func WithMetrics(m *metrics.Driver) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithUploader uploads the run directory once the reports are written.
func WithUploader(u Uploader) Option {
	return func(o *Orchestrator) { o.uploader = u }
}

// WithBootstrapTimeout bounds the nym creation phase independently of the
// timeout given to Configure.
func WithBootstrapTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d < 0 {
			d = NoTimeout
		}
		o.bootstrapTimeout = &d
	}
}

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New returns an Orchestrator that must be configured before Run.
func New(gen identity.Generator, runner scenario.Runner, log logging.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = logging.Nop{}
	}
	o := &Orchestrator{
		generator:   gen,
		runner:      runner,
		log:         log,
		stewardSeed: []byte(DefaultStewardSeed),
		now:         time.Now,
		timeout:     NoTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Configure sets the run size. users and iterations must be positive and
// the steward seed must be a valid seed; timeout applies to each phase and
// NoTimeout (any negative value) disables it.
func (o *Orchestrator) Configure(users, iterations int, timeout time.Duration) error {
	if users <= 0 {
		return fmt.Errorf("%w: users must be positive, got %d", ErrInvalidArguments, users)
	}
	if iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidArguments, iterations)
	}
	if len(o.stewardSeed) != cryptox.SeedSize {
		return fmt.Errorf("%w: steward seed must be %d bytes, got %d", ErrInvalidArguments, cryptox.SeedSize, len(o.stewardSeed))
	}
	if timeout < 0 {
		timeout = NoTimeout
	}
	o.users, o.iterations, o.timeout = users, iterations, timeout
	o.configured = true
	return nil
}

// State returns the current phase. It is safe to call while Run executes.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
}

// Run executes the load test once. A non-nil error means the run aborted
// (no user set, no log directory, nym creation failed or timed out); the
// returned outcome still carries the log directory when one was created.
// Per-user failures are not errors of Run: they are reported in the outcome.
// Jobs still running when a wait times out are never cancelled by Run; it
// returns once they finish. Cancelling ctx is what stops them.
func (o *Orchestrator) Run(ctx context.Context) (*Outcome, error) {
	if !o.configured {
		return nil, ErrNotConfigured
	}
	if !o.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}

	started := o.now()
	out := &Outcome{
		RunID:      uuid.NewString(),
		Users:      o.users,
		Iterations: o.iterations,
		Timeout:    o.timeout,
		Started:    started,
	}
	log := o.log.With("run", out.RunID)

	o.setState(Generating)
	users, err := o.generator.Generate(o.users)
	if err == nil && len(users) != o.users {
		err = fmt.Errorf("generator returned %d users, want %d", len(users), o.users)
	}
	if err != nil {
		o.setState(GenerationFailed)
		out.State = GenerationFailed
		log.Error(ctx, "user generation failed", "error", err)
		return out, fmt.Errorf("generate users: %w", err)
	}

	logDir, err := filex.EnsureSubdDir(o.logsRoot, LogDirName(started))
	if err != nil {
		o.setState(GenerationFailed)
		out.State = GenerationFailed
		log.Error(ctx, "cannot create log directory", "error", err)
		return out, fmt.Errorf("log directory: %w", err)
	}
	out.LogDir = logDir
	log = log.With("logDir", logDir)
	log.Info(ctx, "users generated", "users", len(users), "iterations", o.iterations, "timeout", timeoutText(o.timeout))

	pool, err := workerpool.New(ctx, o.users)
	if err != nil {
		return out, err
	}
	defer pool.Close()

	// phase 1
	o.setState(BootstrappingUsers)
	if err := o.createNyms(ctx, pool, users, logDir); err != nil {
		o.setState(BootstrapFailed)
		out.State = BootstrapFailed
		out.Elapsed = o.now().Sub(started)
		log.Error(ctx, "nym creation failed, user scenarios not started", "error", err)
		log.Info(ctx, "logs of the run were written", "dir", logDir)
		return out, err
	}
	log.Info(ctx, "created nyms", "count", len(users))

	// phase 2
	o.setState(RunningUserScenarios)
	futures := make([]*workerpool.Future, len(users))
	out.Results = make([]UserResult, len(users))
	for i, u := range users {
		job := scenario.Job{
			Kind:       scenario.KindRotateAndRead,
			Seed:       bytes.Clone(u.Seed),
			Iterations: o.iterations,
			LogFile:    filepath.Join(logDir, "user-"+string(u.Seed)),
		}
		out.Results[i] = UserResult{Identifier: u.Identifier, Seed: string(u.Seed), LogFile: job.LogFile}
		futures[i] = pool.Submit(func(ctx context.Context) error {
			return o.runner.Run(ctx, job)
		})
	}

	if err := workerpool.WaitAll(ctx, o.timeout, futures...); err != nil {
		log.Warn(ctx, "stopped waiting for user scenarios", "reason", err)
	}

	o.setState(Aggregating)
	for i, f := range futures {
		st, err := f.Poll()
		r := &out.Results[i]
		r.State, r.Err = st, err
		switch st {
		case workerpool.Failed:
			log.Error(ctx, "user scenario failed", "user", r.Identifier, "seed", r.Seed, "error", err)
		case workerpool.Pending:
			log.Warn(ctx, "user scenario still running", "user", r.Identifier, "seed", r.Seed)
		}
	}

	out.State = AllSucceeded
	if out.Failed() > 0 {
		out.State = SomeFailed
	}
	out.Elapsed = o.now().Sub(started)
	o.metrics.SetPending(out.Pending())

	if out.State == AllSucceeded {
		log.Info(ctx, "scenarios of all users finished successfully", "pending", out.Pending())
	} else {
		log.Error(ctx, "scenarios of some users failed", "failed", out.Failed(), "pending", out.Pending())
	}

	// stragglers run to completion; only ctx cancellation stops them
	if out.Pending() > 0 {
		log.Info(ctx, "waiting for user scenarios still running", "pending", out.Pending())
	}
	pool.Close()
	o.setState(out.State)

	o.writeReports(ctx, log, out)
	if o.uploader != nil {
		if _, err := o.uploader.UploadDir(ctx, logDir); err != nil {
			log.Error(ctx, "log upload failed", "error", err)
		}
	}
	log.Info(ctx, "logs of the run were written", "dir", logDir)
	return out, nil
}

func (o *Orchestrator) createNyms(ctx context.Context, pool *workerpool.Pool, users []identity.User, logDir string) error {
	nyms := make([]scenario.NymSpec, 0, len(users))
	for _, u := range users {
		nyms = append(nyms, scenario.NymSpec{Dest: u.Identifier, Verkey: u.Verkey})
	}
	job := scenario.Job{
		Kind:    scenario.KindCreateNyms,
		Seed:    bytes.Clone(o.stewardSeed),
		Nyms:    nyms,
		LogFile: filepath.Join(logDir, "nyms-creator-"+string(o.stewardSeed)),
	}

	timeout := o.timeout
	if o.bootstrapTimeout != nil {
		timeout = *o.bootstrapTimeout
	}

	f := pool.Submit(func(ctx context.Context) error {
		return o.runner.Run(ctx, job)
	})
	if err := workerpool.WaitAll(ctx, timeout, f); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w after %s", ErrBootstrapTimeout, timeout)
		}
		return err
	}
	if _, err := f.Poll(); err != nil {
		return fmt.Errorf("create nyms: %w", err)
	}
	return nil
}

func (o *Orchestrator) writeReports(ctx context.Context, log logging.Logger, out *Outcome) {
	if err := writeSummaryFile(filepath.Join(out.LogDir, SummaryFile), out); err != nil {
		log.Error(ctx, "cannot write summary", "error", err)
	}
	if o.metrics != nil {
		if err := o.metrics.WriteFile(filepath.Join(out.LogDir, MetricsFile)); err != nil {
			log.Error(ctx, "cannot write metrics", "error", err)
		}
	}
}

func timeoutText(d time.Duration) string {
	if d < 0 {
		return "none"
	}
	return d.String()
}
