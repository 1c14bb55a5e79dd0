package chacha20

import (
	"golang.org/x/sys/cpu"

	"github.com/sh0rch/nf-wgobfs/application/cipher"
	"github.com/sh0rch/nf-wgobfs/domain/config"
)

// Select builds the keystream backend for a session from the
// 32-byte derived key and the configured cipher mode. Auto resolves to
// Fast when the runtime CPU advertises AVX2 (x86-64) or NEON (ARM64),
// else Standard. Selection happens once per session at worker startup
// (spec §4.1): the branch never runs again on the hot path.
func Select(key []byte, mode config.CipherMode) (cipher.Backend, cipher.Mode) {
	resolved := resolve(mode)
	if resolved == cipher.ModeFast {
		return newFastBackend(key), cipher.ModeFast
	}
	return newStandardBackend(key), cipher.ModeStandard
}

func resolve(mode config.CipherMode) cipher.Mode {
	switch mode {
	case config.Fast:
		return cipher.ModeFast
	case config.Standard:
		return cipher.ModeStandard
	default:
		if simdAvailable() {
			return cipher.ModeFast
		}
		return cipher.ModeStandard
	}
}

func simdAvailable() bool {
	return cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD
}
