// Package netfilter provides a read-only nftables reachability check.
// The system never writes firewall rules itself (spec §6 "Firewall
// integration" — the operator owns NFQUEUE steering rules); this probe
// only lets the supervisor fail fast with a clear error when the
// kernel netfilter/nftables subsystem is unreachable, rather than
// discovering it obliquely through a failed NFQUEUE bind.
package netfilter

import nftlib "github.com/google/nftables"

// Probe reports whether the running kernel exposes a usable nftables
// netlink interface.
type Probe interface {
	Supports() (bool, error)
}

// DefaultProbe talks to the kernel via netlink through
// github.com/google/nftables.
type DefaultProbe struct{}

func (DefaultProbe) Supports() (bool, error) {
	c, err := nftlib.New()
	if err != nil {
		return false, err
	}
	defer c.CloseLasting()
	if _, err := c.ListTables(); err != nil {
		return false, err
	}
	return true, nil
}

var _ Probe = (*DefaultProbe)(nil)
