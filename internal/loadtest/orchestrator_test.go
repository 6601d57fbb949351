package loadtest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/ledgerload/internal/identity"
	"github.com/dmitrijs2005/ledgerload/internal/scenario"
	"github.com/dmitrijs2005/ledgerload/internal/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	err   error
	calls int
}

func (g *fakeGenerator) Generate(n int) ([]identity.User, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	users := make([]identity.User, 0, n)
	for i := range n {
		u, err := identity.NewUser([]byte(fmt.Sprintf("user-seed-%022d", i)))
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

type call struct {
	job     scenario.Job
	started time.Time
	ended   time.Time
}

// recordingRunner records every job and delegates the outcome to fn.
type recordingRunner struct {
	mu    sync.Mutex
	calls []call
	fn    func(ctx context.Context, job scenario.Job) error
}

func (r *recordingRunner) Run(ctx context.Context, job scenario.Job) error {
	c := call{job: job, started: time.Now()}
	var err error
	if r.fn != nil {
		err = r.fn(ctx, job)
	}
	c.ended = time.Now()
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	return err
}

func (r *recordingRunner) byKind(k scenario.Kind) []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []call
	for _, c := range r.calls {
		if c.job.Kind == k {
			out = append(out, c)
		}
	}
	return out
}

// touch creates the job's log file the way a real runner would.
func touch(_ context.Context, job scenario.Job) error {
	return os.WriteFile(job.LogFile, []byte("ok\n"), 0o600)
}

func newOrchestrator(t *testing.T, gen identity.Generator, r scenario.Runner, opts ...Option) *Orchestrator {
	t.Helper()
	opts = append([]Option{WithLogsRoot(t.TempDir())}, opts...)
	return New(gen, r, nil, opts...)
}

func userLogFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "user-") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

func TestConfigure_Validates(t *testing.T) {
	o := New(&fakeGenerator{}, &recordingRunner{}, nil)
	assert.ErrorIs(t, o.Configure(0, 1, NoTimeout), ErrInvalidArguments)
	assert.ErrorIs(t, o.Configure(1, 0, NoTimeout), ErrInvalidArguments)
	assert.ErrorIs(t, o.Configure(-2, 3, NoTimeout), ErrInvalidArguments)
	require.NoError(t, o.Configure(1, 1, -42*time.Second))
	assert.Equal(t, NoTimeout, o.timeout)
}

func TestConfigure_RejectsBadStewardSeed(t *testing.T) {
	root := t.TempDir()
	o := New(&fakeGenerator{}, &recordingRunner{}, nil, WithLogsRoot(root), WithStewardSeed([]byte("too-short")))

	err := o.Configure(1, 1, NoTimeout)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = o.Run(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "no log directory for a configuration error")
}

func TestRun_RequiresConfigureAndRunsOnce(t *testing.T) {
	o := newOrchestrator(t, &fakeGenerator{}, RunnerFuncOK())
	_, err := o.Run(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)

	require.NoError(t, o.Configure(1, 1, NoTimeout))
	_, err = o.Run(context.Background())
	require.NoError(t, err)
	_, err = o.Run(context.Background())
	require.ErrorIs(t, err, ErrAlreadyRun)
}

func RunnerFuncOK() scenario.Runner {
	return scenario.RunnerFunc(func(context.Context, scenario.Job) error { return nil })
}

func TestRun_AllSucceed(t *testing.T) {
	gen := &fakeGenerator{}
	r := &recordingRunner{fn: touch}
	o := newOrchestrator(t, gen, r)
	require.NoError(t, o.Configure(3, 2, 30*time.Second))

	out, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, out.Success())
	assert.Equal(t, AllSucceeded, out.State)
	assert.Equal(t, AllSucceeded, o.State())
	assert.Equal(t, 3, out.Succeeded())
	assert.Zero(t, out.Failed())
	assert.NoError(t, out.Err())
	assert.Equal(t, 1, gen.calls)

	creators := r.byKind(scenario.KindCreateNyms)
	users := r.byKind(scenario.KindRotateAndRead)
	require.Len(t, creators, 1)
	require.Len(t, users, 3)

	// the bootstrap job carries every user and the steward seed
	require.Len(t, creators[0].job.Nyms, 3)
	assert.Equal(t, DefaultStewardSeed, string(creators[0].job.Seed))
	assert.Equal(t, filepath.Join(out.LogDir, "nyms-creator-"+DefaultStewardSeed), creators[0].job.LogFile)

	seen := map[string]int{}
	for _, c := range users {
		assert.Equal(t, 2, c.job.Iterations)
		assert.Equal(t, filepath.Join(out.LogDir, "user-"+string(c.job.Seed)), c.job.LogFile)
		seen[string(c.job.Seed)]++
		assert.False(t, c.started.Before(creators[0].ended), "user job started before nym creation finished")
	}
	assert.Len(t, seen, 3)

	assert.Len(t, userLogFiles(t, out.LogDir), 3)
	_, err = os.Stat(filepath.Join(out.LogDir, "nyms-creator-"+DefaultStewardSeed))
	require.NoError(t, err)

	summary, err := os.ReadFile(filepath.Join(out.LogDir, SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "finished successfully")
}

func TestRun_BootstrapErrorIsFatal(t *testing.T) {
	connErr := errors.New("connection refused")
	r := &recordingRunner{fn: func(ctx context.Context, job scenario.Job) error {
		if job.Kind == scenario.KindCreateNyms {
			return connErr
		}
		return touch(ctx, job)
	}}
	o := newOrchestrator(t, &fakeGenerator{}, r)
	require.NoError(t, o.Configure(2, 1, NoTimeout))

	out, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, connErr)
	assert.Equal(t, BootstrapFailed, o.State())
	require.NotNil(t, out)
	assert.NotEmpty(t, out.LogDir)

	assert.Empty(t, r.byKind(scenario.KindRotateAndRead))
	assert.Empty(t, userLogFiles(t, out.LogDir))
}

func TestRun_BootstrapTimeoutIsFatal(t *testing.T) {
	var cancelled, finished atomic.Bool
	r := &recordingRunner{fn: func(ctx context.Context, job scenario.Job) error {
		select {
		case <-time.After(150 * time.Millisecond):
			finished.Store(true)
			return nil
		case <-ctx.Done():
			cancelled.Store(true)
			return ctx.Err()
		}
	}}
	o := newOrchestrator(t, &fakeGenerator{}, r)
	require.NoError(t, o.Configure(2, 1, 20*time.Millisecond))

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBootstrapTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, BootstrapFailed, o.State())
	assert.Empty(t, r.byKind(scenario.KindRotateAndRead))

	// the nym creator is left to finish, not cancelled
	assert.False(t, cancelled.Load())
	assert.True(t, finished.Load())
	assert.Len(t, r.byKind(scenario.KindCreateNyms), 1)
}

func TestRun_GeneratorFailureDispatchesNothing(t *testing.T) {
	genErr := errors.New("entropy exhausted")
	r := &recordingRunner{}
	o := newOrchestrator(t, &fakeGenerator{err: genErr}, r)
	require.NoError(t, o.Configure(4, 1, NoTimeout))

	out, err := o.Run(context.Background())
	require.ErrorIs(t, err, genErr)
	assert.Equal(t, GenerationFailed, o.State())
	assert.Empty(t, out.LogDir)
	assert.Empty(t, r.calls)
}

func TestRun_OneUserFails(t *testing.T) {
	gen := &fakeGenerator{}
	users, err := gen.Generate(5)
	require.NoError(t, err)
	bad := users[2]
	scenarioErr := errors.New("verkey mismatch on iteration 3")

	r := &recordingRunner{fn: func(ctx context.Context, job scenario.Job) error {
		if string(job.Seed) == string(bad.Seed) {
			return scenarioErr
		}
		return touch(ctx, job)
	}}
	o := newOrchestrator(t, gen, r)
	require.NoError(t, o.Configure(5, 3, 30*time.Second))

	out, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Success())
	assert.Equal(t, SomeFailed, o.State())
	assert.Equal(t, 4, out.Succeeded())
	assert.Equal(t, 1, out.Failed())

	failures := out.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, bad.Identifier, failures[0].Identifier)
	assert.ErrorIs(t, failures[0].Err, scenarioErr)

	agg := out.Err()
	require.Error(t, agg)
	assert.ErrorIs(t, agg, scenarioErr)
	assert.Contains(t, agg.Error(), bad.Identifier)

	summary, err := os.ReadFile(filepath.Join(out.LogDir, SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "some users failed")
	assert.Contains(t, string(summary), "verkey mismatch on iteration 3")
}

func TestRun_ZeroTimeoutReportsPendingAsSuccess(t *testing.T) {
	var cancelled, finished atomic.Int32
	r := &recordingRunner{fn: func(ctx context.Context, job scenario.Job) error {
		if job.Kind == scenario.KindCreateNyms {
			return nil
		}
		select {
		case <-time.After(100 * time.Millisecond):
			finished.Add(1)
			return nil
		case <-ctx.Done():
			cancelled.Add(1)
			return ctx.Err()
		}
	}}
	o := newOrchestrator(t, &fakeGenerator{}, r, WithBootstrapTimeout(NoTimeout))
	require.NoError(t, o.Configure(3, 1, 0))

	out, err := o.Run(context.Background())
	require.NoError(t, err)

	// weak verdict: nothing finished at poll time, nothing failed
	assert.True(t, out.Success())
	assert.Equal(t, 3, out.Pending())
	for _, res := range out.Results {
		assert.Equal(t, workerpool.Pending, res.State)
		assert.NoError(t, res.Err)
	}

	// stragglers run to completion before Run returns
	assert.EqualValues(t, 0, cancelled.Load())
	assert.EqualValues(t, 3, finished.Load())
	assert.Len(t, r.byKind(scenario.KindRotateAndRead), 3)
}

func TestRun_CancelledContextStopsStragglers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{}, 3)
	r := &recordingRunner{fn: func(ctx context.Context, job scenario.Job) error {
		if job.Kind == scenario.KindCreateNyms {
			return nil
		}
		started <- struct{}{}
		<-ctx.Done()
		return ctx.Err()
	}}
	o := newOrchestrator(t, &fakeGenerator{}, r, WithBootstrapTimeout(NoTimeout))
	require.NoError(t, o.Configure(3, 1, 0))

	go func() {
		for range 3 {
			<-started
		}
		cancel()
	}()

	out, err := o.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, out.Succeeded())
	assert.Equal(t, 3, out.Pending()+out.Failed())
	assert.Len(t, r.byKind(scenario.KindRotateAndRead), 3)
}

func TestRun_PoolSizedToUsers(t *testing.T) {
	const n = 4
	var cur, peak atomic.Int32
	barrier := make(chan struct{})
	var once sync.Once

	r := &recordingRunner{fn: func(ctx context.Context, job scenario.Job) error {
		if job.Kind == scenario.KindCreateNyms {
			return nil
		}
		v := cur.Add(1)
		for {
			p := peak.Load()
			if v <= p || peak.CompareAndSwap(p, v) {
				break
			}
		}
		if v == n {
			once.Do(func() { close(barrier) })
		}
		select {
		case <-barrier:
		case <-time.After(2 * time.Second):
		}
		cur.Add(-1)
		return nil
	}}
	o := newOrchestrator(t, &fakeGenerator{}, r)
	require.NoError(t, o.Configure(n, 1, NoTimeout))

	out, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.EqualValues(t, n, peak.Load())
}

func TestRun_StateObservableDuringBootstrap(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	r := &recordingRunner{fn: func(ctx context.Context, job scenario.Job) error {
		if job.Kind == scenario.KindCreateNyms {
			close(entered)
			<-release
		}
		return nil
	}}
	o := newOrchestrator(t, &fakeGenerator{}, r)
	require.NoError(t, o.Configure(1, 1, NoTimeout))
	assert.Equal(t, Idle, o.State())

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background())
		done <- err
	}()

	<-entered
	assert.Equal(t, BootstrappingUsers, o.State())
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, AllSucceeded, o.State())
}

func TestRun_CustomStewardSeed(t *testing.T) {
	seed := "000000000000000000000000Trustee1"
	r := &recordingRunner{}
	o := newOrchestrator(t, &fakeGenerator{}, r, WithStewardSeed([]byte(seed)))
	require.NoError(t, o.Configure(1, 1, NoTimeout))

	out, err := o.Run(context.Background())
	require.NoError(t, err)
	creators := r.byKind(scenario.KindCreateNyms)
	require.Len(t, creators, 1)
	assert.Equal(t, seed, string(creators[0].job.Seed))
	assert.Equal(t, filepath.Join(out.LogDir, "nyms-creator-"+seed), creators[0].job.LogFile)
}

type fakeUploader struct {
	dir string
	err error
}

func (u *fakeUploader) UploadDir(_ context.Context, dir string) (int, error) {
	u.dir = dir
	return 0, u.err
}

func TestRun_UploadsLogsWithoutAffectingVerdict(t *testing.T) {
	up := &fakeUploader{err: errors.New("bucket missing")}
	o := newOrchestrator(t, &fakeGenerator{}, RunnerFuncOK(), WithUploader(up))
	require.NoError(t, o.Configure(2, 1, NoTimeout))

	out, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Success())
	assert.Equal(t, out.LogDir, up.dir)
}

func TestLogDirName(t *testing.T) {
	a := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "test-logs-2024-05-01T10-00-00", LogDirName(a))
	assert.NotEqual(t, LogDirName(a), LogDirName(a.Add(time.Second)))
	assert.NotContains(t, LogDirName(a), ":")
}

func TestRun_UsesClockForLogDir(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	o := newOrchestrator(t, &fakeGenerator{}, RunnerFuncOK(), WithClock(func() time.Time { return at }))
	require.NoError(t, o.Configure(1, 1, NoTimeout))

	out, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-logs-2024-05-01T10-00-00", filepath.Base(out.LogDir))
	assert.True(t, filepath.IsAbs(out.LogDir))
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "some-failed", SomeFailed.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.True(t, BootstrapFailed.Terminal())
	assert.True(t, AllSucceeded.Terminal())
	assert.False(t, RunningUserScenarios.Terminal())
}
