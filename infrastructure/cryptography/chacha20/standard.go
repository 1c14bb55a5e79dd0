package chacha20

import (
	"encoding/binary"
	"math/bits"

	"github.com/sh0rch/nf-wgobfs/application/cipher"
)

// sigma is the standard ChaCha constant, "expand 32-byte k".
var sigma = [4]uint32{0x61707865, 0x3320646e, 0x79622d32, 0x6b206574}

// standardRounds is the round count used by the portable backend. It is
// deliberately far below the 20 rounds required for cryptographic
// strength: this backend exists to defeat passive DPI fingerprinting,
// not to provide confidentiality (spec §4.1, §1 Non-goals).
const standardRounds = 6

// standardBackend is a pure-Go, reduced-round ChaCha keystream
// generator. It never allocates beyond its own receiver and a
// stack-local 64-byte block.
type standardBackend struct {
	key [32]byte
}

// newStandardBackend copies key into the backend's own array so the
// caller's slice can be zeroed independently of backend lifetime.
func newStandardBackend(key []byte) *standardBackend {
	b := &standardBackend{}
	copy(b.key[:], key)
	return b
}

func (b *standardBackend) XOR(nonce *[12]byte, blockOffset int, buf []byte) {
	var block [64]byte
	chachaBlock(&block, &b.key, nonce, 0, standardRounds)
	for i := range buf {
		buf[i] ^= block[blockOffset+i]
	}
}

var _ cipher.Backend = (*standardBackend)(nil)

// chachaBlock runs the ChaCha block function for the given (key, nonce,
// counter), performing rounds/2 double-rounds, and serializes the
// result little-endian into dst. rounds must be even.
func chachaBlock(dst *[64]byte, key *[32]byte, nonce *[12]byte, counter uint32, rounds int) {
	var state [16]uint32
	state[0], state[1], state[2], state[3] = sigma[0], sigma[1], sigma[2], sigma[3]
	for i := 0; i < 8; i++ {
		state[4+i] = binary.LittleEndian.Uint32(key[i*4 : i*4+4])
	}
	state[12] = counter
	state[13] = binary.LittleEndian.Uint32(nonce[0:4])
	state[14] = binary.LittleEndian.Uint32(nonce[4:8])
	state[15] = binary.LittleEndian.Uint32(nonce[8:12])

	working := state
	for i := 0; i < rounds/2; i++ {
		quarterRound(&working, 0, 4, 8, 12)
		quarterRound(&working, 1, 5, 9, 13)
		quarterRound(&working, 2, 6, 10, 14)
		quarterRound(&working, 3, 7, 11, 15)
		quarterRound(&working, 0, 5, 10, 15)
		quarterRound(&working, 1, 6, 11, 12)
		quarterRound(&working, 2, 7, 8, 13)
		quarterRound(&working, 3, 4, 9, 14)
	}

	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:i*4+4], working[i]+state[i])
	}
}

func quarterRound(s *[16]uint32, a, b, c, d int) {
	s[a] += s[b]
	s[d] = bits.RotateLeft32(s[d]^s[a], 16)
	s[c] += s[d]
	s[b] = bits.RotateLeft32(s[b]^s[c], 12)
	s[a] += s[b]
	s[d] = bits.RotateLeft32(s[d]^s[a], 8)
	s[c] += s[d]
	s[b] = bits.RotateLeft32(s[b]^s[c], 7)
}
