package pow

import (
	"github.com/holiman/uint256"

	"github.com/yourusername/blockwire/internal/crypto"
)

const (
	// mantissaMask keeps the 23 mantissa bits; the sign bit is ignored.
	mantissaMask = 0x007fffff

	// mantissaBytes is the width the exponent includes for the mantissa itself.
	mantissaBytes = 3
)

var maxTarget = new(uint256.Int).Not(new(uint256.Int))

// CompactToTarget expands a compact difficulty into its 256-bit target.
//
// The high byte is a base-256 exponent counting the mantissa's own three
// bytes, so the target is mantissa << 8*(exponent-3). Targets that do not fit
// in 256 bits saturate to 2^256-1.
func CompactToTarget(bits uint32) *uint256.Int {
	exponent := uint(bits >> 24)
	mantissa := uint256.NewInt(uint64(bits & mantissaMask))

	if exponent <= mantissaBytes {
		return mantissa.Rsh(mantissa, 8*(mantissaBytes-exponent))
	}

	shift := 8 * (exponent - mantissaBytes)
	if !mantissa.IsZero() && uint(mantissa.BitLen())+shift > 256 {
		return new(uint256.Int).Set(maxTarget)
	}
	return mantissa.Lsh(mantissa, shift)
}

// TargetToCompact returns the normalised compact encoding of target.
// Precision below the top three significant bytes is dropped.
func TargetToCompact(target *uint256.Int) uint32 {
	if target.IsZero() {
		return 0
	}

	size := uint((target.BitLen() + 7) / 8)

	var mantissa uint32
	if size <= mantissaBytes {
		mantissa = uint32(target.Uint64()) << (8 * (mantissaBytes - size))
	} else {
		mantissa = uint32(new(uint256.Int).Rsh(target, 8*(size-mantissaBytes)).Uint64())
	}

	// Keep the sign bit clear by moving one byte into the exponent.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		size++
	}

	return uint32(size)<<24 | mantissa
}

// HashMeetsTarget reports whether hash, read as a big-endian number, is
// strictly below target.
func HashMeetsTarget(hash crypto.Hash, target *uint256.Int) bool {
	return new(uint256.Int).SetBytes32(hash[:]).Lt(target)
}

// HashMeetsCompact is HashMeetsTarget for a compact difficulty.
func HashMeetsCompact(hash crypto.Hash, bits uint32) bool {
	return HashMeetsTarget(hash, CompactToTarget(bits))
}
