// Package wire defines the on-wire obfuscated datagram layout shared by
// the egress and ingress transforms. See spec §3 "on-wire obfuscated
// datagram layout".
package wire

const (
	// VPNHeaderXORLen is the number of leading VPN-header bytes that are
	// XORed (the remainder of the VPN header, if any, travels untouched).
	VPNHeaderXORLen = 16

	// CSLen is the width of the obfuscated checksum-shim field inserted
	// immediately after the UDP header.
	CSLen = 2

	// LLen is the width of the obfuscated ballast-length field.
	LLen = 1

	// MAC2Len is the width of the obfuscated trailing MAC2 placeholder.
	MAC2Len = 16

	// NonceLen is the width of the cleartext trailing per-packet nonce.
	NonceLen = 12

	// MinBallast and MaxBallast bound the random ballast length.
	MinBallast = 8
	MaxBallast = 64

	// FixedTrailerLen is the combined size of CS + L + MAC2 + NONCE,
	// i.e. every appended field except the variable-length ballast.
	FixedTrailerLen = CSLen + LLen + MAC2Len + NonceLen

	// MinVPNPayload is the smallest UDP payload considered a candidate
	// VPN datagram on egress (spec §4.4 step 1).
	MinVPNPayload = 4

	// MinIngressPayload is the smallest UDP payload an obfuscated
	// ingress datagram can have: 16-byte VPN header + fixed trailer +
	// the minimum ballast.
	MinIngressPayload = VPNHeaderXORLen + FixedTrailerLen + MinBallast

	// KeystreamBlockLen is the size of one ChaCha keystream block; the
	// entire per-packet XOR footprint (VPN header + CS + L + MAC2 = 35
	// bytes) fits inside a single block.
	KeystreamBlockLen = 64

	// KeySize is the derived session key length.
	KeySize = 32

	// VPNKeepaliveLen is the UDP payload length of a bare WireGuard
	// keepalive: a header-only datagram with no data payload (spec §4.5).
	VPNKeepaliveLen = 32
)

// Keystream byte offsets within the single 64-byte block used to XOR
// every obfuscated field (spec §6 "Wire format").
const (
	OffsetVPNHeader = 0
	OffsetCS        = OffsetVPNHeader + VPNHeaderXORLen
	OffsetL         = OffsetCS + CSLen
	OffsetMAC2      = OffsetL + LLen
)

// GrowthFor returns the number of bytes an egress transform adds to
// the UDP payload for a given ballast length B: the CS shim (2), the
// ballast (B), L (1), MAC2 (16), and NONCE (12).
func GrowthFor(ballast int) int {
	return CSLen + ballast + LLen + MAC2Len + NonceLen
}
