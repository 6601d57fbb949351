package loadtest

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/ledgerload/internal/artifacts"
	"github.com/dmitrijs2005/ledgerload/internal/identity"
	"github.com/dmitrijs2005/ledgerload/internal/ledger"
	"github.com/dmitrijs2005/ledgerload/internal/ledgerclient"
	"github.com/dmitrijs2005/ledgerload/internal/loadtest/config"
	"github.com/dmitrijs2005/ledgerload/internal/logging"
	"github.com/dmitrijs2005/ledgerload/internal/metrics"
	"github.com/dmitrijs2005/ledgerload/internal/scenario"
	"github.com/hashicorp/go-multierror"
)

// Process exit codes of the driver.
const (
	ExitSuccess = 0
	ExitFailed  = 1
	ExitFatal   = 2
)

// App wires a Config into an Orchestrator.
type App struct {
	config       *config.Config
	logger       logging.Logger
	orchestrator *Orchestrator
	closers      []io.Closer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}

	dial, err := app.dialer(ctx)
	if err != nil {
		return nil, err
	}

	m := metrics.NewDriver()
	runner := scenario.NewLedgerRunner(dial,
		scenario.WithMetrics(m),
		scenario.WithRate(c.Rate),
		scenario.WithLogLevel(level),
	)

	var gen identity.Generator = identity.RandomGenerator{}
	if c.BaseSeed != "" {
		gen = identity.DeterministicGenerator{BaseSeed: []byte(c.BaseSeed)}
	}

	opts := []Option{
		WithStewardSeed([]byte(c.StewardSeed)),
		WithLogsRoot(c.LogsRoot),
		WithMetrics(m),
	}
	if c.S3Bucket != "" {
		opts = append(opts, WithUploader(artifacts.NewUploader(artifacts.Config{
			Bucket:       c.S3Bucket,
			Prefix:       c.S3Prefix,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		}, logger)))
	}

	app.orchestrator = New(gen, runner, logger, opts...)
	if err := app.orchestrator.Configure(c.Users, c.Iterations, c.Timeout); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) dialer(ctx context.Context) (ledger.Dialer, error) {
	switch app.config.Ledger {
	case config.LedgerGRPC:
		return ledgerclient.GRPCDialer(app.config.Address, app.config.CallTimeout), nil
	case config.LedgerEmbedded:
		steward, err := ledger.StewardGenesis([]byte(app.config.StewardSeed))
		if err != nil {
			return nil, fmt.Errorf("steward seed: %w", err)
		}
		svc, err := ledger.Open(ctx, app.config.DSN, app.logger.With("module", "ledger"), steward)
		if err != nil {
			return nil, fmt.Errorf("ledger init error: %w", err)
		}
		app.closers = append(app.closers, svc)
		return ledgerclient.LocalDialer(svc), nil
	default:
		return nil, fmt.Errorf("%w: unknown ledger mode %q", config.ErrInvalidConfig, app.config.Ledger)
	}
}

// Run executes the load test. An interrupt signal cancels the run; the
// reports of a cancelled run are still written.
func (app *App) Run(ctx context.Context) (*Outcome, error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer app.Close()

	return app.orchestrator.Run(ctx)
}

func (app *App) Close() error {
	var result *multierror.Error
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	app.closers = nil
	return result.ErrorOrNil()
}

// ExitCode maps the result of Run to the process exit code.
func ExitCode(out *Outcome, err error) int {
	switch {
	case err != nil, out == nil:
		return ExitFatal
	case out.Success():
		return ExitSuccess
	default:
		return ExitFailed
	}
}

// Main loads the configuration, runs the load test and returns the exit
// code. Configuration errors go to stderr.
func Main(ctx context.Context, stdout, stderr *os.File) int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "ledgerload: %v\n", err)
		return ExitFatal
	}
	level, _ := cfg.SlogLevel()
	logger := logging.NewConsoleLogger(stdout, level)

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "cannot start load test", "error", err)
		return ExitFatal
	}

	out, err := app.Run(ctx)
	if err != nil {
		logger.Error(ctx, "load test aborted", "error", err)
	}
	return ExitCode(out, err)
}
