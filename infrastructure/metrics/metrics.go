// Package metrics exposes Prometheus counters for packet outcomes per
// queue. Metrics are off the hot path conceptually (spec §7: no log
// line per packet) but a counter increment is cheap enough to keep on
// it; only logging is restricted to startup/shutdown/error events.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Verdicts groups the per-queue counters a worker increments once per
// packet, labeled by the verdict it reached.
type Verdicts struct {
	seen *prometheus.CounterVec
}

// NewVerdicts registers the counter family against reg.
func NewVerdicts(reg prometheus.Registerer) *Verdicts {
	factory := promauto.With(reg)
	return &Verdicts{
		seen: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nf_wgobfs",
			Name:      "packets_total",
			Help:      "Packets processed per queue and verdict.",
		}, []string{"queue", "verdict"}),
	}
}

// Observe increments the counter for (queue, verdict).
func (v *Verdicts) Observe(queue string, verdict string) {
	v.seen.WithLabelValues(queue, verdict).Inc()
}

// Serve exposes /metrics on addr until ctx is canceled, then shuts the
// listener down gracefully. It returns nil on a clean shutdown.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}
