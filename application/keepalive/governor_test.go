package keepalive

import (
	"testing"
	"time"
)

func TestSuppressEgressKeepaliveWhenRecentTraffic(t *testing.T) {
	g := New(25 * time.Second)
	base := time.Now()
	g.NoteEgressData(base)

	if !g.SuppressEgressKeepalive(base.Add(5 * time.Second)) {
		t.Fatal("expected suppression shortly after egress traffic")
	}
	if g.SuppressEgressKeepalive(base.Add(21 * time.Second)) {
		t.Fatal("expected pass-through once past 0.8*TBeat since last egress data")
	}
}

func TestIngressStaleAfterTBeat(t *testing.T) {
	g := New(25 * time.Second)
	base := time.Now()
	g.NoteIngressData(base)

	if g.IngressStale(base.Add(10 * time.Second)) {
		t.Fatal("should not be stale within TBeat")
	}
	if !g.IngressStale(base.Add(26 * time.Second)) {
		t.Fatal("should be stale past TBeat")
	}
}

func TestSuppressEgressKeepaliveOverriddenByStaleIngress(t *testing.T) {
	g := New(25 * time.Second)
	base := time.Now()
	g.NoteIngressData(base)
	g.NoteEgressData(base)

	if !g.SuppressEgressKeepalive(base.Add(5 * time.Second)) {
		t.Fatal("expected suppression with fresh ingress and egress traffic")
	}

	// Keep egress traffic continuously fresh (which alone would keep
	// suppressing the keepalive) but let ingress go stale: the stale
	// peer should override suppression and let the keepalive through.
	stale := base.Add(26 * time.Second)
	g.NoteEgressData(stale)
	if g.SuppressEgressKeepalive(stale) {
		t.Fatal("expected pass-through once ingress has gone stale, even with te just refreshed")
	}
}

func TestNewDefaultsZeroIntervalToTBeat(t *testing.T) {
	g := New(0)
	if g.tBeat != TBeat {
		t.Fatalf("tBeat = %v, want %v", g.tBeat, TBeat)
	}
}
