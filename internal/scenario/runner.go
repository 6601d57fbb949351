package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrijs2005/ledgerload/internal/ledger"
	"github.com/dmitrijs2005/ledgerload/internal/logging"
	"github.com/dmitrijs2005/ledgerload/internal/metrics"
	"golang.org/x/time/rate"
)

// LedgerRunner runs scenario jobs against a ledger. Every job gets its own
// log file and its own ledger client.
type LedgerRunner struct {
	dial    ledger.Dialer
	metrics *metrics.Driver
	// ops per second per job, 0 means unlimited
	rate     float64
	logLevel slog.Level
}

type Option func(*LedgerRunner)

func WithMetrics(m *metrics.Driver) Option {
	return func(r *LedgerRunner) { r.metrics = m }
}

// WithRate limits every job to opsPerSec ledger operations per second.
func WithRate(opsPerSec float64) Option {
	return func(r *LedgerRunner) { r.rate = opsPerSec }
}

func WithLogLevel(l slog.Level) Option {
	return func(r *LedgerRunner) { r.logLevel = l }
}

func NewLedgerRunner(dial ledger.Dialer, opts ...Option) *LedgerRunner {
	r := &LedgerRunner{dial: dial, logLevel: slog.LevelInfo}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *LedgerRunner) Run(ctx context.Context, job Job) (err error) {
	if err := job.Validate(); err != nil {
		return err
	}

	fileLog, closer, err := logging.NewFileLogger(job.LogFile, r.logLevel)
	if err != nil {
		return err
	}
	defer closer.Close()
	log := fileLog.With("kind", string(job.Kind))

	started := time.Now()
	log.Info(ctx, "job started")
	defer func() {
		r.metrics.ObserveJob(string(job.Kind), err)
		if err != nil {
			log.Error(ctx, "job failed", "error", err, "elapsed", time.Since(started))
			return
		}
		log.Info(ctx, "job finished", "elapsed", time.Since(started))
	}()

	client, err := r.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial ledger: %w", err)
	}
	defer client.Close()

	s := &session{
		client:  client,
		log:     log,
		metrics: r.metrics,
	}
	if r.rate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(r.rate), 1)
	}

	switch job.Kind {
	case KindCreateNyms:
		return createNyms(ctx, s, job)
	case KindRotateAndRead:
		return rotateAndRead(ctx, s, job)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, job.Kind)
	}
}

// session is the per-job state shared by the scenario steps.
type session struct {
	client  ledger.Client
	log     logging.Logger
	metrics *metrics.Driver
	limiter *rate.Limiter
}

func (s *session) submit(ctx context.Context, op string, req *ledger.Request) (*ledger.Reply, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	started := time.Now()
	reply, err := s.client.Submit(ctx, req)
	took := time.Since(started)
	s.metrics.ObserveOperation(op, took, err)
	s.log.Debug(ctx, "ledger call", "op", op, "reqId", req.ReqID, "dest", req.Operation.Dest, "took", took, "error", err)
	return reply, err
}
