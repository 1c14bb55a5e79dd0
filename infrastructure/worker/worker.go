// Package worker drives one NFQUEUE number through the obfuscator
// (spec §4.6 "Queue worker"). A worker owns one queue and one
// direction; it never exits on a per-packet error, only on signalled
// shutdown or an unrecoverable handoff error.
package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/sh0rch/nf-wgobfs/application/obfuscator"
	"github.com/sh0rch/nf-wgobfs/application/session"
	"github.com/sh0rch/nf-wgobfs/domain/config"
	"github.com/sh0rch/nf-wgobfs/domain/verdict"
	"github.com/sh0rch/nf-wgobfs/infrastructure/handoff"
	"github.com/sh0rch/nf-wgobfs/infrastructure/metrics"
)

// Worker owns one configured queue entry end to end.
type Worker struct {
	Entry   config.Entry
	Session *session.Session
	Queue   *handoff.Queue
	Metrics *metrics.Verdicts
	Now     func() time.Time
}

// Run blocks, pulling packets from the queue and dispatching them
// through the obfuscator in the worker's configured direction, until
// ctx is canceled or the handoff reports an unrecoverable error.
func (w *Worker) Run(ctx context.Context) error {
	o := obfuscator.New()
	now := w.Now
	if now == nil {
		now = time.Now
	}
	queueLabel := strconv.Itoa(int(w.Entry.Queue))

	return w.Queue.Run(ctx, func(buf []byte) ([]byte, verdict.Verdict) {
		var out []byte
		var v verdict.Verdict
		if w.Entry.Dir == config.Egress {
			out, v = o.Encode(buf, w.Session, now())
		} else {
			out, v = o.Decode(buf, w.Session, now())
		}
		if w.Metrics != nil {
			w.Metrics.Observe(queueLabel, v.String())
		}
		return out, v
	})
}
