// Package randomiser declares the non-cryptographic randomness contract
// the obfuscator uses for per-packet nonces and ballast length. It is
// deliberately not keyed off crypto/rand: the goal is length/pattern
// diversity against passive fingerprinting, not unpredictability
// against an active adversary (spec §4.2, §9).
package randomiser

const (
	// MinBallast and MaxBallast mirror domain/wire's bounds; duplicated
	// here (rather than imported) to keep this package free of a
	// dependency on the wire layout, since it only needs the two
	// integers.
	MinBallast = 8
	MaxBallast = 64
)

// Randomiser produces the per-packet nonce, ballast length, and the
// random filler bytes used for the ballast and the opaque MAC2
// placeholder.
type Randomiser interface {
	// Fill fills out with random bytes. Used for the 12-byte nonce, the
	// ballast region, and the MAC2 placeholder.
	Fill(out []byte)
	// BallastLen returns a value in [MinBallast, min(MaxBallast, budget)].
	// budget is the remaining MTU headroom available for ballast; if
	// budget < MinBallast, BallastLen returns 0 and ok=false.
	BallastLen(budget int) (n int, ok bool)
}
