// Package obfuscator implements the egress/ingress transform state
// machine: the core of the filter (spec §4.4). It is the only package
// that wires together the cipher backend, the randomiser, the
// keepalive governor, and netutil's packet surgery.
package obfuscator

import (
	"time"

	"github.com/sh0rch/nf-wgobfs/application/netutil"
	"github.com/sh0rch/nf-wgobfs/application/session"
	"github.com/sh0rch/nf-wgobfs/domain/verdict"
	"github.com/sh0rch/nf-wgobfs/domain/wire"
)

// Obfuscator runs the encode/decode transforms against a session. It
// holds no state of its own; every transform is a pure function of
// (buf, session, now), so one Obfuscator value can be shared or
// trivially recreated per worker.
type Obfuscator struct{}

// New returns a ready-to-use Obfuscator.
func New() *Obfuscator {
	return &Obfuscator{}
}

// Encode runs the egress transform described in spec §4.4. It returns
// the (possibly resized, always-within-cap(buf)) buffer and the
// verdict the worker should hand back to the handoff.
func (o *Obfuscator) Encode(buf []byte, sess *session.Session, now time.Time) ([]byte, verdict.Verdict) {
	frame, err := netutil.Parse(buf)
	if err != nil {
		return buf, verdict.Accept
	}
	if frame.PayloadLen < wire.MinVPNPayload {
		return buf, verdict.Accept
	}

	if frame.PayloadLen == wire.VPNKeepaliveLen && sess.Keepalive.SuppressEgressKeepalive(now) {
		return buf, verdict.Drop
	}

	mtu := sess.Entry.MTU
	budget := mtu - frame.End() - wire.FixedTrailerLen
	if budget < wire.MinBallast {
		return buf, verdict.Drop
	}
	ballast, ok := sess.Rand.BallastLen(budget)
	if !ok {
		return buf, verdict.Drop
	}

	origPayloadLen := frame.PayloadLen
	csAt := frame.PayloadOffset

	buf, frame, err = netutil.Resize(buf, frame, csAt, wire.CSLen, mtu)
	if err != nil {
		return buf, verdict.Drop
	}
	trailerGrowth := wire.GrowthFor(ballast) - wire.CSLen
	buf, frame, err = netutil.Resize(buf, frame, frame.End(), trailerGrowth, mtu)
	if err != nil {
		return buf, verdict.Drop
	}

	vpnHeaderAt := csAt + wire.CSLen
	ballastAt := vpnHeaderAt + origPayloadLen
	lAt := ballastAt + ballast
	mac2At := lAt + wire.LLen
	nonceAt := mac2At + wire.MAC2Len

	var nonce [wire.NonceLen]byte
	sess.Rand.Fill(nonce[:])
	copy(buf[nonceAt:nonceAt+wire.NonceLen], nonce[:])

	sess.Rand.Fill(buf[ballastAt : ballastAt+ballast])
	sess.Rand.Fill(buf[mac2At : mac2At+wire.MAC2Len])

	csValue := origPayloadLen - wire.VPNHeaderXORLen
	buf[csAt], buf[csAt+1] = byte(csValue), byte(csValue>>8)

	backend := sess.Backend
	backend.XOR(&nonce, wire.OffsetVPNHeader, buf[vpnHeaderAt:vpnHeaderAt+wire.VPNHeaderXORLen])
	backend.XOR(&nonce, wire.OffsetCS, buf[csAt:csAt+wire.CSLen])
	buf[lAt] = byte(ballast)
	backend.XOR(&nonce, wire.OffsetL, buf[lAt:lAt+wire.LLen])
	backend.XOR(&nonce, wire.OffsetMAC2, buf[mac2At:mac2At+wire.MAC2Len])

	netutil.RecomputeIPv4Checksum(buf, frame)
	netutil.RecomputeUDPChecksum(buf, frame)

	sess.Keepalive.NoteEgressData(now)
	return buf, verdict.Rewrite
}

// Decode runs the ingress transform described in spec §4.4.
func (o *Obfuscator) Decode(buf []byte, sess *session.Session, now time.Time) ([]byte, verdict.Verdict) {
	frame, err := netutil.Parse(buf)
	if err != nil {
		return buf, verdict.Accept
	}
	if frame.PayloadLen < wire.MinIngressPayload {
		sess.Keepalive.NoteIngressData(now)
		return buf, verdict.Accept
	}

	nonceAt := frame.End() - wire.NonceLen
	var nonce [wire.NonceLen]byte
	copy(nonce[:], buf[nonceAt:nonceAt+wire.NonceLen])

	mac2At := nonceAt - wire.MAC2Len
	lAt := mac2At - wire.LLen
	csAt := frame.PayloadOffset
	vpnHeaderAt := csAt + wire.CSLen

	backend := sess.Backend
	backend.XOR(&nonce, wire.OffsetCS, buf[csAt:csAt+wire.CSLen])
	backend.XOR(&nonce, wire.OffsetVPNHeader, buf[vpnHeaderAt:vpnHeaderAt+wire.VPNHeaderXORLen])
	backend.XOR(&nonce, wire.OffsetL, buf[lAt:lAt+wire.LLen])
	backend.XOR(&nonce, wire.OffsetMAC2, buf[mac2At:mac2At+wire.MAC2Len])

	origPayloadLen := int(buf[csAt]) | int(buf[csAt+1])<<8
	ballast := int(buf[lAt])

	expected := wire.CSLen + wire.VPNHeaderXORLen + origPayloadLen + ballast + wire.LLen + wire.MAC2Len + wire.NonceLen
	if expected != frame.PayloadLen {
		return buf, verdict.Drop
	}

	buf, frame, err = netutil.Resize(buf, frame, vpnHeaderAt+wire.VPNHeaderXORLen+origPayloadLen, -(ballast + wire.LLen + wire.MAC2Len + wire.NonceLen), sess.Entry.MTU)
	if err != nil {
		return buf, verdict.Drop
	}
	buf, frame, err = netutil.Resize(buf, frame, csAt, -wire.CSLen, sess.Entry.MTU)
	if err != nil {
		return buf, verdict.Drop
	}

	netutil.RecomputeIPv4Checksum(buf, frame)
	netutil.RecomputeUDPChecksum(buf, frame)

	sess.Keepalive.NoteIngressData(now)
	return buf, verdict.Rewrite
}
