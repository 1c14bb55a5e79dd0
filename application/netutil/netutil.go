// Package netutil parses and rewrites IPv4/IPv6 + UDP framing in place.
// Every function here operates on a caller-owned buffer and a byte range
// within it; nothing is copied or allocated beyond the occasional stack
// scratch value, matching the allocation budget the obfuscator runs
// under (spec invariant 3).
package netutil

import (
	"encoding/binary"
	"errors"
)

// ErrNotUDP marks a packet that isn't a well-formed IPv4/IPv6 UDP
// datagram in the subset this filter understands. Callers treat it as
// accept-unchanged, not a failure.
var ErrNotUDP = errors.New("netutil: not a plain IPv4/IPv6 UDP datagram")

// ErrOverflow is returned by Resize when growing the packet would
// exceed the buffer's capacity or the caller-supplied limit.
var ErrOverflow = errors.New("netutil: resize exceeds capacity or MTU")

const (
	protoUDP = 17

	ipv4MinHeaderLen = 20
	ipv6HeaderLen    = 40
	udpHeaderLen     = 8
)

// Frame describes the IPv4/IPv6 + UDP framing located inside a packet
// buffer. All offsets are absolute byte positions into that buffer as
// it was at Parse time; Resize keeps a Frame consistent with the
// buffer it operates on by returning an updated Frame alongside the
// resized slice.
type Frame struct {
	IPv6          bool
	IPHeaderLen   int
	UDPOffset     int // start of the UDP header
	PayloadOffset int // start of the UDP payload (UDPOffset + 8)
	PayloadLen    int // current UDP payload length in bytes
}

// End returns the offset one past the end of the UDP payload, i.e. the
// logical length of the packet.
func (f Frame) End() int {
	return f.PayloadOffset + f.PayloadLen
}

// Parse classifies buf as an IPv4 or IPv6 datagram carrying a UDP
// payload, with no IPv6 extension header chain. Anything else —
// non-IP, non-UDP, truncated, or IPv6 with extension headers — yields
// ErrNotUDP so the caller can accept the packet unchanged (spec §4.3,
// Non-goals).
func Parse(buf []byte) (Frame, error) {
	if len(buf) < 1 {
		return Frame{}, ErrNotUDP
	}
	switch buf[0] >> 4 {
	case 4:
		return parseV4(buf)
	case 6:
		return parseV6(buf)
	default:
		return Frame{}, ErrNotUDP
	}
}

func parseV4(buf []byte) (Frame, error) {
	if len(buf) < ipv4MinHeaderLen {
		return Frame{}, ErrNotUDP
	}
	ihl := int(buf[0]&0x0F) * 4
	if ihl < ipv4MinHeaderLen || len(buf) < ihl+udpHeaderLen {
		return Frame{}, ErrNotUDP
	}
	if buf[9] != protoUDP {
		return Frame{}, ErrNotUDP
	}
	totalLen := int(binary.BigEndian.Uint16(buf[2:4]))
	if totalLen < ihl+udpHeaderLen || totalLen > len(buf) {
		return Frame{}, ErrNotUDP
	}
	udpLen := int(binary.BigEndian.Uint16(buf[ihl+4 : ihl+6]))
	if udpLen < udpHeaderLen || ihl+udpLen > totalLen {
		return Frame{}, ErrNotUDP
	}
	return Frame{
		IPv6:          false,
		IPHeaderLen:   ihl,
		UDPOffset:     ihl,
		PayloadOffset: ihl + udpHeaderLen,
		PayloadLen:    udpLen - udpHeaderLen,
	}, nil
}

func parseV6(buf []byte) (Frame, error) {
	if len(buf) < ipv6HeaderLen {
		return Frame{}, ErrNotUDP
	}
	if buf[6] != protoUDP {
		// Any extension header chain (hop-by-hop, routing, fragment...)
		// is out of scope; next-header must be UDP directly.
		return Frame{}, ErrNotUDP
	}
	payloadLen := int(binary.BigEndian.Uint16(buf[4:6]))
	if ipv6HeaderLen+payloadLen > len(buf) || payloadLen < udpHeaderLen {
		return Frame{}, ErrNotUDP
	}
	udpLen := int(binary.BigEndian.Uint16(buf[ipv6HeaderLen+4 : ipv6HeaderLen+6]))
	if udpLen < udpHeaderLen || udpLen > payloadLen {
		return Frame{}, ErrNotUDP
	}
	return Frame{
		IPv6:          true,
		IPHeaderLen:   ipv6HeaderLen,
		UDPOffset:     ipv6HeaderLen,
		PayloadOffset: ipv6HeaderLen + udpHeaderLen,
		PayloadLen:    udpLen - udpHeaderLen,
	}, nil
}

// Resize shifts the suffix of buf starting at absolute offset "at" by
// delta bytes (positive grows, negative shrinks), then updates the
// UDP and IP length fields to match. limit is the maximum total packet
// length allowed (the configured MTU); Resize fails with ErrOverflow
// rather than grow past it or past buf's capacity.
//
// buf must have at least f.End() valid bytes and cap(buf) >= limit;
// the handoff layer is responsible for handing the obfuscator a buffer
// with that much headroom.
func Resize(buf []byte, f Frame, at, delta, limit int) ([]byte, Frame, error) {
	oldEnd := f.End()
	newEnd := oldEnd + delta
	if newEnd > limit || newEnd > cap(buf) {
		return buf, f, ErrOverflow
	}
	if at < f.PayloadOffset || at > oldEnd {
		return buf, f, ErrOverflow
	}

	buf = buf[:maxInt(len(buf), newEnd)]
	if delta > 0 {
		copy(buf[at+delta:newEnd], buf[at:oldEnd])
	} else if delta < 0 {
		copy(buf[at:newEnd], buf[at-delta:oldEnd])
	}
	buf = buf[:newEnd]

	f.PayloadLen += delta
	writeLengths(buf, f)
	return buf, f, nil
}

func writeLengths(buf []byte, f Frame) {
	udpLen := f.PayloadLen + udpHeaderLen
	binary.BigEndian.PutUint16(buf[f.UDPOffset+4:f.UDPOffset+6], uint16(udpLen))
	if f.IPv6 {
		binary.BigEndian.PutUint16(buf[4:6], uint16(f.IPHeaderLen-ipv6HeaderLen+udpLen))
		return
	}
	binary.BigEndian.PutUint16(buf[2:4], uint16(f.IPHeaderLen+udpLen))
}

// RecomputeIPv4Checksum zeroes and recomputes the IPv4 header checksum
// over buf[:f.IPHeaderLen]. No-op for IPv6, which has none.
func RecomputeIPv4Checksum(buf []byte, f Frame) {
	if f.IPv6 {
		return
	}
	hdr := buf[:f.IPHeaderLen]
	hdr[10], hdr[11] = 0, 0
	sum := onesComplementSum(0, hdr)
	binary.BigEndian.PutUint16(hdr[10:12], ^foldSum(sum))
}

// RecomputeUDPChecksum zeroes the UDP checksum field and recomputes it
// over the pseudo-header (v4 or v6) plus the UDP header and payload.
func RecomputeUDPChecksum(buf []byte, f Frame) {
	udp := buf[f.UDPOffset:f.End()]
	udp[6], udp[7] = 0, 0

	udpLen := uint32(len(udp))
	var sum uint32
	if f.IPv6 {
		sum = onesComplementSum(sum, buf[8:24])  // source
		sum = onesComplementSum(sum, buf[24:40]) // destination
		var lenAndNext [8]byte
		binary.BigEndian.PutUint32(lenAndNext[0:4], udpLen)
		lenAndNext[7] = protoUDP
		sum = onesComplementSum(sum, lenAndNext[:])
	} else {
		sum = onesComplementSum(sum, buf[12:16]) // source
		sum = onesComplementSum(sum, buf[16:20]) // destination
		var zeroProtoLen [4]byte
		zeroProtoLen[1] = protoUDP
		binary.BigEndian.PutUint16(zeroProtoLen[2:4], uint16(udpLen))
		sum = onesComplementSum(sum, zeroProtoLen[:])
	}
	sum = onesComplementSum(sum, udp)

	result := ^foldSum(sum)
	if result == 0 {
		// RFC 768: a computed checksum of 0 is transmitted as all-ones.
		result = 0xFFFF
	}
	binary.BigEndian.PutUint16(udp[6:8], result)
}

func onesComplementSum(sum uint32, b []byte) uint32 {
	n := len(b)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(binary.BigEndian.Uint16(b[i : i+2]))
	}
	if n&1 == 1 {
		sum += uint32(b[n-1]) << 8
	}
	return sum
}

func foldSum(sum uint32) uint16 {
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return uint16(sum)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
