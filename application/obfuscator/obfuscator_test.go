package obfuscator

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/sh0rch/nf-wgobfs/application/cipher"
	"github.com/sh0rch/nf-wgobfs/application/session"
	"github.com/sh0rch/nf-wgobfs/domain/config"
	"github.com/sh0rch/nf-wgobfs/domain/verdict"
)

// fakeBackend is a deterministic, allocation-free stand-in for a real
// chacha20 backend: block[i] = key[0] + nonce[0] + byte(i), depending
// on the nonce through its first byte only, enough to exercise offset slicing
// and round-trip symmetry without pulling in the cipher package.
type fakeBackend struct {
	key [32]byte
}

func (b *fakeBackend) XOR(nonce *[12]byte, blockOffset int, buf []byte) {
	for i := range buf {
		buf[i] ^= b.key[0] + nonce[0] + byte(blockOffset+i)
	}
}

type fakeRand struct {
	ballast int
	seed    byte
}

func (r *fakeRand) Fill(out []byte) {
	for i := range out {
		out[i] = r.seed + byte(i)
	}
	r.seed++
}

func (r *fakeRand) BallastLen(budget int) (int, bool) {
	if budget < 8 {
		return 0, false
	}
	n := r.ballast
	if n > budget {
		n = budget
	}
	if n < 8 {
		n = 8
	}
	return n, true
}

func buildIPv4UDP(t *testing.T, payload []byte, capExtra int) []byte {
	t.Helper()
	total := 20 + 8 + len(payload)
	buf := make([]byte, total, total+capExtra)
	buf[0] = 0x45
	binary.BigEndian.PutUint16(buf[2:4], uint16(total))
	buf[8] = 64
	buf[9] = 17
	copy(buf[12:16], net.IPv4(10, 0, 0, 1).To4())
	copy(buf[16:20], net.IPv4(10, 0, 0, 2).To4())
	binary.BigEndian.PutUint16(buf[20:22], 51820)
	binary.BigEndian.PutUint16(buf[22:24], 51820)
	binary.BigEndian.PutUint16(buf[24:26], uint16(8+len(payload)))
	copy(buf[28:], payload)
	return buf
}

func newTestSession(t *testing.T, mtu int, ballast int) *session.Session {
	t.Helper()
	key := sha256.Sum256([]byte("secret"))
	entry := config.Entry{Queue: 1, Dir: config.Egress, Name: "t", Key: key, Mode: config.Standard, MTU: mtu}
	return session.New(entry, &fakeBackend{key: key}, cipher.ModeStandard, &fakeRand{ballast: ballast}, 0)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := make([]byte, 32)
	payload[0] = 0x01
	for i := 4; i < 32; i++ {
		payload[i] = byte(i)
	}
	buf := buildIPv4UDP(t, payload, 128)

	encSess := newTestSession(t, 1500, 20)
	o := New()
	now := time.Now()

	out, v := o.Encode(buf, encSess, now)
	if v != verdict.Rewrite {
		t.Fatalf("encode verdict = %v, want rewrite", v)
	}

	decSess := newTestSession(t, 1500, 20)
	out2, v2 := o.Decode(out, decSess, now)
	if v2 != verdict.Rewrite {
		t.Fatalf("decode verdict = %v, want rewrite", v2)
	}

	got := out2[28 : 28+len(payload)]
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch:\nwant %x\ngot  %x", payload, got)
	}
}

func TestEncodeDropsWhenMTUExceeded(t *testing.T) {
	payload := make([]byte, 32)
	buf := buildIPv4UDP(t, payload, 4)

	sess := newTestSession(t, 28+32+1, 20) // no headroom at all for growth
	o := New()
	out, v := o.Encode(buf, sess, time.Now())
	if v != verdict.Drop {
		t.Fatalf("verdict = %v, want drop", v)
	}
	if !bytes.Equal(out, buf) {
		t.Fatal("dropped packet must not be mutated")
	}
}

func TestEncodeAcceptsNonUDP(t *testing.T) {
	buf := buildIPv4UDP(t, make([]byte, 16), 64)
	buf[9] = 6 // TCP
	orig := append([]byte(nil), buf...)

	sess := newTestSession(t, 1500, 20)
	out, v := New().Encode(buf, sess, time.Now())
	if v != verdict.Accept {
		t.Fatalf("verdict = %v, want accept", v)
	}
	if !bytes.Equal(out, orig) {
		t.Fatal("non-UDP packet must pass through byte-identical")
	}
}

func TestEncodeSuppressesKeepaliveAfterRecentTraffic(t *testing.T) {
	sess := newTestSession(t, 1500, 20)
	o := New()
	now := time.Now()

	data := make([]byte, 40)
	data[0] = 0x01
	buf := buildIPv4UDP(t, data, 128)
	if _, v := o.Encode(buf, sess, now); v != verdict.Rewrite {
		t.Fatalf("priming data packet verdict = %v, want rewrite", v)
	}

	keepalive := make([]byte, 32)
	kbuf := buildIPv4UDP(t, keepalive, 0)
	_, v := o.Encode(kbuf, sess, now.Add(2*time.Second))
	if v != verdict.Drop {
		t.Fatalf("keepalive shortly after data verdict = %v, want drop", v)
	}
}

func TestDecodeAcceptsShortIngressPayload(t *testing.T) {
	buf := buildIPv4UDP(t, make([]byte, 20), 0)
	sess := newTestSession(t, 1500, 20)
	out, v := New().Decode(buf, sess, time.Now())
	if v != verdict.Accept {
		t.Fatalf("verdict = %v, want accept", v)
	}
	if !bytes.Equal(out, buf) {
		t.Fatal("short ingress payload must pass through unchanged")
	}
}
