// Package config holds the process-lifetime configuration record for a
// single NFQUEUE entry.
package config

import (
	"fmt"
	"strings"

	"github.com/sh0rch/nf-wgobfs/domain/wire"
)

// Direction identifies which side of the tunnel a queue entry obfuscates.
type Direction uint8

const (
	// Egress marks a queue entry that obfuscates outbound VPN traffic.
	Egress Direction = iota
	// Ingress marks a queue entry that de-obfuscates inbound VPN traffic.
	Ingress
)

func (d Direction) String() string {
	switch d {
	case Egress:
		return "out"
	case Ingress:
		return "in"
	default:
		return "unknown"
	}
}

// ParseDirection parses the case-insensitive "in"/"out" tokens used by
// the configuration file grammar.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return Ingress, nil
	case "out":
		return Egress, nil
	default:
		return 0, fmt.Errorf("invalid direction %q: must be \"in\" or \"out\"", s)
	}
}

// CipherMode selects which keystream backend a session uses.
type CipherMode uint8

const (
	// Auto selects Fast when the runtime CPU advertises the required
	// SIMD features, otherwise Standard.
	Auto CipherMode = iota
	// Fast is the full 20-round ChaCha backend. Its block function is
	// plain Go; it does not use SIMD instructions.
	Fast
	// Standard is the portable, reduced-round ChaCha backend.
	Standard
)

func (m CipherMode) String() string {
	switch m {
	case Fast:
		return "fast"
	case Standard:
		return "standard"
	default:
		return "auto"
	}
}

// ParseCipherMode parses the single-letter MODE token ("F" or "S").
// An empty string means Auto.
func ParseCipherMode(s string) (CipherMode, error) {
	switch s {
	case "":
		return Auto, nil
	case "F", "f":
		return Fast, nil
	case "S", "s":
		return Standard, nil
	default:
		return 0, fmt.Errorf("invalid cipher mode %q: must be \"F\" or \"S\"", s)
	}
}

// Minimum and maximum MTU accepted by the configuration grammar.
const (
	MinMTU = 576
	MaxMTU = 9000
	// DefaultMTU is used when MTU is omitted from a configuration line.
	DefaultMTU = 1500
)

// Entry is one immutable, process-lifetime queue configuration record.
// Key holds SHA-256(secret): the raw secret token is hashed by the
// loader at parse time and never retained (spec §6 "Configuration
// file").
type Entry struct {
	Queue uint16
	Dir   Direction
	Name  string
	Key   [wire.KeySize]byte
	Mode  CipherMode
	MTU   int
}

// Validate checks field-level invariants that don't require comparing
// against sibling entries (duplicate-queue-number checking is the
// loader's job, since it requires the full entry set).
func (e Entry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("queue %d: name must not be empty", e.Queue)
	}
	if e.MTU < MinMTU || e.MTU > MaxMTU {
		return fmt.Errorf("queue %d (%s): MTU %d out of range [%d, %d]", e.Queue, e.Name, e.MTU, MinMTU, MaxMTU)
	}
	return nil
}
