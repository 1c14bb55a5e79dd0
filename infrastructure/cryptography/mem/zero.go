// Package mem provides best-effort secure-erase helpers for key
// material that would otherwise linger in GC-managed memory.
package mem

import "runtime"

// ZeroBytes overwrites b with zeros.
//
// SECURITY INVARIANT: this must not be optimized away by the compiler.
// runtime.KeepAlive creates a happens-before edge that prevents
// dead-store elimination, so the slice is considered "live" until
// after zeroing.
//
// LIMITATION: the Go GC may already have copied the backing array
// before this call runs. This is best-effort defense, not a guarantee.
func ZeroBytes(b []byte) {
	if len(b) == 0 {
		return
	}
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
