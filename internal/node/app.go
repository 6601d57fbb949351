// Package node runs a single ledger node: the ledger store, its gRPC
// service and the metrics endpoint.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ledgerload/internal/ledger"
	"github.com/dmitrijs2005/ledgerload/internal/logging"
	"github.com/dmitrijs2005/ledgerload/internal/metrics"
	"github.com/dmitrijs2005/ledgerload/internal/node/config"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	ledger  *ledger.Service
	metrics *metrics.Node
}

// NewApp opens and migrates the ledger store and writes the genesis
// stewards.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	genesis := make([]ledger.GenesisNym, 0, len(c.StewardSeeds))
	for _, seed := range c.StewardSeeds {
		g, err := ledger.StewardGenesis([]byte(seed))
		if err != nil {
			return nil, fmt.Errorf("steward seed: %w", err)
		}
		genesis = append(genesis, g)
	}

	svc, err := ledger.Open(ctx, c.DSN, logger.With("module", "ledger"), genesis...)
	if err != nil {
		return nil, fmt.Errorf("ledger init error: %w", err)
	}

	return &App{config: c, logger: logger, ledger: svc, metrics: metrics.NewNode()}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled, a signal arrives or a server fails,
// then closes the ledger store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err)
				errMu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", name, err)
				}
				errMu.Unlock()
				cancelFunc()
			}
		}()
	}

	run("grpc", NewGRPCServer(app.config.GRPCAddr, app.logger, app.ledger, app.metrics).Run)
	if app.config.MetricsAddr != "" {
		run("metrics", NewMetricsServer(app.config.MetricsAddr, app.metrics.Gatherer(), app.logger).Run)
	}

	wg.Wait()

	if err := app.ledger.Close(); err != nil {
		app.logger.Error(ctx, "closing ledger store", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return firstErr
}
