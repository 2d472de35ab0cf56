package codec

import (
	"encoding/binary"
	"math"
)

const (
	compactMarker16 = 0xfd
	compactMarker32 = 0xfe
	compactMarker64 = 0xff

	// MaxCompactSizeLen is the largest encoding of a compact-size integer.
	MaxCompactSizeLen = 9
)

// CompactSizeLen returns the number of bytes AppendCompactSize writes for n.
func CompactSizeLen(n uint64) int {
	switch {
	case n < compactMarker16:
		return 1
	case n <= math.MaxUint16:
		return 3
	case n <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// AppendCompactSize appends the canonical compact-size encoding of n to dst.
func AppendCompactSize(dst []byte, n uint64) []byte {
	switch {
	case n < compactMarker16:
		return append(dst, byte(n))
	case n <= math.MaxUint16:
		dst = append(dst, compactMarker16)
		return binary.LittleEndian.AppendUint16(dst, uint16(n))
	case n <= math.MaxUint32:
		dst = append(dst, compactMarker32)
		return binary.LittleEndian.AppendUint32(dst, uint32(n))
	default:
		dst = append(dst, compactMarker64)
		return binary.LittleEndian.AppendUint64(dst, n)
	}
}

// AppendVarBytes appends a compact-size length prefix followed by b.
func AppendVarBytes(dst, b []byte) []byte {
	dst = AppendCompactSize(dst, uint64(len(b)))
	return append(dst, b...)
}

// AppendVarString is AppendVarBytes for text fields.
func AppendVarString(dst []byte, s string) []byte {
	dst = AppendCompactSize(dst, uint64(len(s)))
	return append(dst, s...)
}
