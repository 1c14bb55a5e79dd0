// Package supervisor starts one worker per configured queue entry,
// each pinned to its own OS thread, and joins them on a termination
// signal (spec §4.7).
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/sh0rch/nf-wgobfs/application/keepalive"
	"github.com/sh0rch/nf-wgobfs/application/session"
	"github.com/sh0rch/nf-wgobfs/domain/config"
	infrachacha20 "github.com/sh0rch/nf-wgobfs/infrastructure/cryptography/chacha20"
	"github.com/sh0rch/nf-wgobfs/infrastructure/handoff"
	"github.com/sh0rch/nf-wgobfs/infrastructure/logging"
	"github.com/sh0rch/nf-wgobfs/infrastructure/metrics"
	"github.com/sh0rch/nf-wgobfs/infrastructure/netfilter"
	infrarand "github.com/sh0rch/nf-wgobfs/infrastructure/randomiser"
	sigpkg "github.com/sh0rch/nf-wgobfs/infrastructure/signal"
	"github.com/sh0rch/nf-wgobfs/infrastructure/worker"
)

// ErrQueueBind wraps any failure to bind an NFQUEUE number (exit code 2).
var ErrQueueBind = errors.New("queue bind failure")

// ErrRuntime wraps an unrecoverable worker error surfacing after
// startup (exit code 3).
var ErrRuntime = errors.New("runtime error")

// Supervisor owns the set of queue entries for this process.
type Supervisor struct {
	Entries []config.Entry
	Logger  logging.Logger
	Signals sigpkg.Provider
	Metrics *prometheus.Registry
	Probe   netfilter.Probe

	// MetricsAddr, when non-empty, serves the Prometheus /metrics
	// endpoint for the lifetime of Run. Empty disables it: the
	// exporter is opt-in, not a requirement for operation.
	MetricsAddr string
}

// New builds a Supervisor with default (production) collaborators.
func New(entries []config.Entry, logger logging.Logger) *Supervisor {
	return &Supervisor{
		Entries: entries,
		Logger:  logger,
		Signals: sigpkg.NewDefaultProvider(),
		Metrics: prometheus.NewRegistry(),
		Probe:   netfilter.DefaultProbe{},
	}
}

// Run starts every worker and blocks until a shutdown signal arrives
// or a worker reports an unrecoverable error. It returns nil on clean
// shutdown.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, s.Signals.ShutdownSignals()...)
	defer stop()

	if len(s.Entries) > 0 && s.Probe != nil {
		if ok, err := s.Probe.Supports(); err != nil || !ok {
			return fmt.Errorf("%w: netfilter unreachable: %v", ErrQueueBind, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	verdicts := metrics.NewVerdicts(s.Metrics)

	if s.MetricsAddr != "" {
		g.Go(func() error {
			if err := metrics.Serve(gctx, s.MetricsAddr, s.Metrics); err != nil {
				return fmt.Errorf("%w: metrics listener: %v", ErrRuntime, err)
			}
			return nil
		})
		s.Logger.Printf("metrics listening on %s", s.MetricsAddr)
	}

	for _, entry := range s.Entries {
		queue, err := handoff.Open(entry.Queue, uint32(entry.MTU))
		if err != nil {
			return fmt.Errorf("%w: queue %d: %v", ErrQueueBind, entry.Queue, err)
		}

		rnd, err := infrarand.New()
		if err != nil {
			return fmt.Errorf("%w: queue %d: building randomiser: %v", ErrQueueBind, entry.Queue, err)
		}
		backend, mode := infrachacha20.Select(entry.Key[:], entry.Mode)
		sess := session.New(entry, backend, mode, rnd, keepalive.TBeat)

		w := &worker.Worker{Entry: entry, Session: sess, Queue: queue, Metrics: verdicts}

		g.Go(func() error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			defer queue.Close()
			defer sess.Close()

			if err := w.Run(gctx); err != nil {
				return fmt.Errorf("%w: queue %d: %v", ErrRuntime, entry.Queue, err)
			}
			return nil
		})

		s.Logger.Printf("worker started: queue=%d dir=%s mode=%s mtu=%d", entry.Queue, entry.Dir, mode, entry.MTU)
	}

	if err := g.Wait(); err != nil {
		return err
	}
	s.Logger.Printf("shutdown complete")
	return nil
}
