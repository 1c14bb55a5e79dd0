package chacha20

import (
	"bytes"
	"testing"

	refchacha20 "golang.org/x/crypto/chacha20"

	"github.com/sh0rch/nf-wgobfs/application/cipher"
	"github.com/sh0rch/nf-wgobfs/domain/config"
)

func testKey() [32]byte {
	var k [32]byte
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func testNonce() [12]byte {
	var n [12]byte
	for i := range n {
		n[i] = byte(100 + i)
	}
	return n
}

// TestFastBackendMatchesReference verifies the full-round block function
// used by fastBackend produces the exact keystream
// golang.org/x/crypto/chacha20 (the real library the "fast" mode is
// named after) produces for the same key, nonce, and counter=0.
func TestFastBackendMatchesReference(t *testing.T) {
	key := testKey()
	nonce := testNonce()

	ref, err := refchacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		t.Fatalf("reference cipher: %v", err)
	}
	want := make([]byte, 64)
	ref.XORKeyStream(want, want)

	var got [64]byte
	chachaBlock(&got, &key, &nonce, 0, fastRounds)

	if !bytes.Equal(want, got[:]) {
		t.Fatalf("fast backend keystream mismatch:\nwant %x\ngot  %x", want, got[:])
	}
}

func TestStandardBackendUsesReducedRounds(t *testing.T) {
	key := testKey()
	nonce := testNonce()

	var reduced, full [64]byte
	chachaBlock(&reduced, &key, &nonce, 0, standardRounds)
	chachaBlock(&full, &key, &nonce, 0, fastRounds)

	if bytes.Equal(reduced[:], full[:]) {
		t.Fatal("standard and fast backends must diverge at different round counts")
	}
}

func TestXORIsItsOwnInverse(t *testing.T) {
	key := testKey()[:]
	nonce := testNonce()

	for _, mode := range []config.CipherMode{config.Fast, config.Standard} {
		backend, _ := Select(key, mode)
		plain := []byte("0123456789abcdef0123456789abcdef0")

		buf := append([]byte(nil), plain...)
		backend.XOR(&nonce, 0, buf)
		if bytes.Equal(buf, plain) {
			t.Fatalf("mode %v: XOR did not change the buffer", mode)
		}
		backend.XOR(&nonce, 0, buf)
		if !bytes.Equal(buf, plain) {
			t.Fatalf("mode %v: XOR twice did not restore plaintext", mode)
		}
	}
}

func TestKeystreamIndependence(t *testing.T) {
	key := testKey()
	backend := newStandardBackend(key[:])

	n1 := testNonce()
	n2 := testNonce()
	n2[11] ^= 0x01

	var b1, b2 [64]byte
	chachaBlock(&b1, &backend.key, &n1, 0, standardRounds)
	chachaBlock(&b2, &backend.key, &n2, 0, standardRounds)

	if bytes.Equal(b1[:], b2[:]) {
		t.Fatal("distinct nonces produced identical keystream blocks")
	}
}

func TestXORHonorsBlockOffset(t *testing.T) {
	key := testKey()
	nonce := testNonce()
	backend := newStandardBackend(key[:])

	var block [64]byte
	chachaBlock(&block, &key, &nonce, 0, standardRounds)

	buf := make([]byte, 2)
	backend.XOR(&nonce, 16, buf)
	want := []byte{block[16], block[17]}
	if !bytes.Equal(buf, want) {
		t.Fatalf("XOR at offset 16 = %x, want %x", buf, want)
	}
}

func TestSelectResolvesExplicitModes(t *testing.T) {
	key := testKey()[:]

	if _, m := Select(key, config.Fast); m != cipher.ModeFast {
		t.Fatalf("config.Fast resolved to %v, want fast", m)
	}
	if _, m := Select(key, config.Standard); m != cipher.ModeStandard {
		t.Fatalf("config.Standard resolved to %v, want standard", m)
	}
	if _, m := Select(key, config.Auto); m != cipher.ModeFast && m != cipher.ModeStandard {
		t.Fatalf("config.Auto resolved to unexpected mode %v", m)
	}
}
