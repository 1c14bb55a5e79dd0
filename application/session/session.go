// Package session bundles everything a single queue worker owns for
// the lifetime of its OS thread: the derived key, the selected cipher
// backend, a keepalive governor, and the non-cryptographic randomiser
// (spec §3 "Session state"). Nothing here is safe for concurrent use;
// one Session belongs to exactly one worker.
package session

import (
	"runtime"
	"time"

	"github.com/sh0rch/nf-wgobfs/application/cipher"
	"github.com/sh0rch/nf-wgobfs/application/keepalive"
	"github.com/sh0rch/nf-wgobfs/application/randomiser"
	"github.com/sh0rch/nf-wgobfs/domain/config"
)

// Session is the per-queue-entry runtime state a worker drives packets
// through.
type Session struct {
	Entry     config.Entry
	Backend   cipher.Backend
	Mode      cipher.Mode
	Rand      randomiser.Randomiser
	Keepalive *keepalive.Governor

	key [32]byte
}

// New builds a Session from a loaded configuration entry and the
// concrete backend/randomiser the infrastructure layer constructed for
// it (backend selection and PRNG seeding are infrastructure concerns;
// Session only wires them together). tBeat of 0 selects the default
// keepalive interval.
func New(entry config.Entry, backend cipher.Backend, mode cipher.Mode, rnd randomiser.Randomiser, tBeat time.Duration) *Session {
	s := &Session{
		Entry:     entry,
		Backend:   backend,
		Mode:      mode,
		Rand:      rnd,
		Keepalive: keepalive.New(tBeat),
		key:       entry.Key,
	}
	return s
}

// Key returns the session's derived 32-byte key.
func (s *Session) Key() [32]byte {
	return s.key
}

// Close zeroes the in-memory copy of the derived key. Best-effort:
// the Go runtime may have relocated or copied the backing array
// before this call runs.
func (s *Session) Close() {
	for i := range s.key {
		s.key[i] = 0
	}
	runtime.KeepAlive(&s.key)
}
