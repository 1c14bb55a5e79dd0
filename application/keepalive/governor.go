// Package keepalive shapes the VPN's own keepalive cadence so it does
// not stand out as a flat, periodic signal while the tunnel is
// otherwise idle (spec §4.5). It owns no network I/O; it only tracks
// timestamps and answers a suppress/pass question.
package keepalive

import "time"

// TBeat is the default synthetic-beat interval, kept below the typical
// 30s NAT UDP binding timeout so a suppressed keepalive still leaves
// enough real or shaped traffic to hold the mapping open.
const TBeat = 25 * time.Second

// suppressFactor is the fraction of TBeat within which recent egress
// traffic is considered sufficient to justify dropping an outgoing
// keepalive.
const suppressFactor = 0.8

// Governor tracks per-session traffic recency. It is owned exclusively
// by one worker thread; nothing here is safe for concurrent use (spec
// §5 — no shared mutable state on the hot path).
type Governor struct {
	tBeat time.Duration
	te    time.Time
	ti    time.Time
}

// New builds a Governor with the given synthetic-beat interval. A zero
// interval selects TBeat. No egress data is recorded at construction,
// so a fresh Governor does not suppress keepalives; ingress staleness
// is measured from construction time.
func New(tBeat time.Duration) *Governor {
	if tBeat <= 0 {
		tBeat = TBeat
	}
	return &Governor{tBeat: tBeat, ti: time.Now()}
}

// NoteEgressData records that an egress packet was obfuscated and
// sent. A keepalive that was not suppressed counts as well.
func (g *Governor) NoteEgressData(now time.Time) {
	g.te = now
}

// NoteIngressData records that an ingress packet was received: either
// de-obfuscated as real data, or passed through unchanged because it
// was too short to be an obfuscated datagram.
func (g *Governor) NoteIngressData(now time.Time) {
	g.ti = now
}

// SuppressEgressKeepalive reports whether an egress VPN keepalive
// should be dropped rather than obfuscated and sent, because recent
// real egress traffic already keeps the NAT mapping warm. A stale
// ingress side overrides that: if nothing has been heard from the
// peer in a full TBeat, the keepalive is obfuscated and sent like data
// instead of suppressed, so the tunnel keeps probing rather than going silent
// in both directions at once (spec §4.5, "restraining the VPN's own
// keepalive rather than inventing one").
func (g *Governor) SuppressEgressKeepalive(now time.Time) bool {
	if g.IngressStale(now) {
		return false
	}
	return now.Sub(g.te) < time.Duration(float64(g.tBeat)*suppressFactor)
}

// IngressStale reports whether ingress data has been absent long
// enough that the next outgoing VPN keepalive is sent (obfuscated like
// data) rather than suppressed, instead of the filter synthesising
// traffic itself.
func (g *Governor) IngressStale(now time.Time) bool {
	return now.Sub(g.ti) > g.tBeat
}
