package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashSize is the size of every digest used by the block format.
const HashSize = 32

// Hash is a 32-byte digest in the order it appears on the wire.
type Hash [HashSize]byte

// ZeroHash is the all-zero hash, used as the empty merkle root and the
// previous hash of a first block.
var ZeroHash Hash

// String returns the hex encoding of the hash bytes in stored order.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether every byte of h is zero.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// HashFromHex decodes a 64 character hex string without reordering bytes.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("decode hash: %w", err)
	}
	if len(b) != HashSize {
		return h, fmt.Errorf("hash length = %d, want %d", len(b), HashSize)
	}
	copy(h[:], b)
	return h, nil
}

// HashBytes returns SHA-256 hash of the input data
func HashBytes(data []byte) []byte {
	hash := sha256.Sum256(data)
	return hash[:]
}

// DoubleHash returns SHA-256(SHA-256(data)) with the byte order reversed, so
// the result reads as a big-endian number in difficulty comparisons.
func DoubleHash(data []byte) Hash {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	for i, j := 0, HashSize-1; i < j; i, j = i+1, j-1 {
		second[i], second[j] = second[j], second[i]
	}
	return Hash(second)
}
