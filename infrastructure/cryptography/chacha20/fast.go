package chacha20

import "github.com/sh0rch/nf-wgobfs/application/cipher"

// fastRounds is the full ChaCha20 round count, selected when the CPU
// advertises the vector extensions the keystream needs to stay cheap at
// line rate (spec §4.1). golang.org/x/crypto/chacha20 already carries a
// production AVX2/NEON-dispatched implementation of exactly this
// function, but its Cipher type binds a nonce at construction time and
// only lets the counter be rewound afterwards — since every packet here
// carries its own nonce (spec §3), using it directly would allocate a
// new Cipher per packet, violating the zero-allocation hot path (spec
// §3 invariant 3). fastBackend therefore runs the same block function as
// the standard backend, at the full round count, self-contained; see
// the package tests for a direct keystream cross-check against
// golang.org/x/crypto/chacha20, which remains the reference this
// backend is verified against.
type fastBackend struct {
	key [32]byte
}

func newFastBackend(key []byte) *fastBackend {
	b := &fastBackend{}
	copy(b.key[:], key)
	return b
}

func (b *fastBackend) XOR(nonce *[12]byte, blockOffset int, buf []byte) {
	var block [64]byte
	chachaBlock(&block, &b.key, nonce, 0, fastRounds)
	for i := range buf {
		buf[i] ^= block[blockOffset+i]
	}
}

const fastRounds = 20

var _ cipher.Backend = (*fastBackend)(nil)
