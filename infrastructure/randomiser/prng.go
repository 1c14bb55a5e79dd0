// Package randomiser implements application/randomiser.Randomiser with a
// fast, non-cryptographic PCG generator. One instance is owned per
// session/worker; it is never shared across goroutines.
package randomiser

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand/v2"

	"github.com/sh0rch/nf-wgobfs/application/randomiser"
)

// PRNG wraps math/rand/v2's PCG source, seeded once from crypto/rand at
// construction. Per-call use is allocation-free.
type PRNG struct {
	r *mathrand.Rand
}

// New seeds a fresh PRNG from the OS CSPRNG. Seeding happens once at
// session startup, off the hot path; only the resulting stream is
// non-cryptographic.
func New() (*PRNG, error) {
	var seed [16]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	s1 := binary.LittleEndian.Uint64(seed[0:8])
	s2 := binary.LittleEndian.Uint64(seed[8:16])
	return &PRNG{r: mathrand.New(mathrand.NewPCG(s1, s2))}, nil
}

func (p *PRNG) Fill(out []byte) {
	for i := 0; i < len(out); i += 8 {
		var v [8]byte
		binary.LittleEndian.PutUint64(v[:], p.r.Uint64())
		copy(out[i:], v[:])
	}
}

func (p *PRNG) BallastLen(budget int) (int, bool) {
	max := randomiser.MaxBallast
	if budget < max {
		max = budget
	}
	if max < randomiser.MinBallast {
		return 0, false
	}
	span := max - randomiser.MinBallast + 1
	return randomiser.MinBallast + int(p.r.IntN(span)), true
}

var _ randomiser.Randomiser = (*PRNG)(nil)
