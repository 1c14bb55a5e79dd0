// Package handoff adapts github.com/florianl/go-nfqueue's NFQUEUE
// binding to the core's packet-transform callback. It is the sole
// place that talks to the kernel netlink handoff; everything else in
// the system only sees a byte buffer and a verdict (spec §1 "Out of
// scope: the NFQUEUE protocol itself").
package handoff

import (
	"context"
	"fmt"
	"time"

	nfq "github.com/florianl/go-nfqueue"

	"github.com/sh0rch/nf-wgobfs/domain/verdict"
)

// Handler transforms one packet buffer and returns the (possibly
// resized) buffer plus the verdict to hand back to the kernel.
type Handler func(buf []byte) ([]byte, verdict.Verdict)

// Queue owns one NFQUEUE number.
type Queue struct {
	nf       *nfq.Nfqueue
	queueNum uint16
}

// Open binds to the given NFQUEUE number. maxPacketLen bounds the
// buffer capacity the kernel hands back per packet; it must be at
// least the configured MTU so the obfuscator has room to grow the
// packet in place.
func Open(queueNum uint16, maxPacketLen uint32) (*Queue, error) {
	cfg := nfq.Config{
		NfQueue:      queueNum,
		MaxPacketLen: maxPacketLen,
		MaxQueueLen:  0xff,
		Copymode:     nfq.NfQnlCopyPacket,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	nf, err := nfq.Open(&cfg)
	if err != nil {
		return nil, fmt.Errorf("handoff: bind queue %d: %w", queueNum, err)
	}
	return &Queue{nf: nf, queueNum: queueNum}, nil
}

// Close releases the netlink socket.
func (q *Queue) Close() error {
	return q.nf.Close()
}

// maxConsecutiveErrors bounds the run of transient recv failures the
// queue tolerates before giving up (spec §7 "Handoff I/O errors"): a
// few are retried with a short backoff, a sustained run is treated as
// an unrecoverable handoff error (exit code 3), not a per-packet drop.
const maxConsecutiveErrors = 8

// errorBackoff is the pause between a transient recv failure and the
// next attempt.
const errorBackoff = 200 * time.Millisecond

// Run registers handle against the queue and blocks until ctx is
// canceled or a run of handoff errors crosses maxConsecutiveErrors.
func (q *Queue) Run(ctx context.Context, handle Handler) error {
	fatal := make(chan error, 1)
	var consecutive int

	fn := func(a nfq.Attribute) int {
		consecutive = 0
		if a.PacketID == nil || a.Payload == nil {
			return 0
		}
		id := *a.PacketID
		out, v := handle(*a.Payload)
		switch v {
		case verdict.Drop:
			_ = q.nf.SetVerdict(id, nfq.NfDrop)
		case verdict.Rewrite:
			_ = q.nf.SetVerdictModPacket(id, nfq.NfAccept, out)
		default:
			_ = q.nf.SetVerdict(id, nfq.NfAccept)
		}
		return 0
	}

	errFn := func(e error) int {
		consecutive++
		if consecutive >= maxConsecutiveErrors {
			select {
			case fatal <- fmt.Errorf("handoff: queue %d: %d consecutive recv errors: %w", q.queueNum, consecutive, e):
			default:
			}
			return 0
		}
		select {
		case <-ctx.Done():
		case <-time.After(errorBackoff):
		}
		return 0
	}

	if err := q.nf.RegisterWithErrorFunc(ctx, fn, errFn); err != nil {
		return fmt.Errorf("handoff: register queue %d: %w", q.queueNum, err)
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-fatal:
		return err
	}
}
