package types

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/yourusername/blockwire/internal/crypto"
	"github.com/yourusername/blockwire/internal/tx"
)

// HeaderSize is the length of a serialized block header.
const HeaderSize = 80

// Header field offsets.
const (
	offsetVersion    = 0
	offsetPrevHash   = 4
	offsetMerkleRoot = 36
	offsetTime       = 68
	offsetDifficulty = 72
	offsetNonce      = 76
)

var (
	// ErrMissingMerkleRoot is returned when a header is assembled before its
	// merkle root was computed.
	ErrMissingMerkleRoot = errors.New("merkle root not computed")

	// ErrMissingHash is returned when an unmined block is exported.
	ErrMissingHash = errors.New("block hash not set")
)

// OptionalHash is a hash that may not have been computed yet.
// The zero value is unset.
type OptionalHash struct {
	hash crypto.Hash
	set  bool
}

// SomeHash returns an OptionalHash holding h.
func SomeHash(h crypto.Hash) OptionalHash {
	return OptionalHash{hash: h, set: true}
}

// Set stores h.
func (o *OptionalHash) Set(h crypto.Hash) {
	o.hash = h
	o.set = true
}

// Clear returns o to the unset state.
func (o *OptionalHash) Clear() {
	*o = OptionalHash{}
}

// Get returns the hash and whether it is set.
func (o OptionalHash) Get() (crypto.Hash, bool) {
	return o.hash, o.set
}

// IsSet reports whether a hash is present.
func (o OptionalHash) IsSet() bool {
	return o.set
}

func (o OptionalHash) String() string {
	if !o.set {
		return "<unset>"
	}
	return o.hash.String()
}

// BlockHeader contains the block metadata
type BlockHeader struct {
	Version       int32        // Block version
	PrevBlockHash crypto.Hash  // Previous block hash, stored as-is
	MerkleRoot    OptionalHash // Unset until computed
	Time          uint32       // Seconds
	Difficulty    uint32       // Compact difficulty target
	Nonce         uint32       // Nonce for PoW
}

// Serialize assembles the 80-byte header pre-image.
func (h *BlockHeader) Serialize() ([HeaderSize]byte, error) {
	var buf [HeaderSize]byte

	root, ok := h.MerkleRoot.Get()
	if !ok {
		return buf, errors.WithStack(ErrMissingMerkleRoot)
	}

	binary.LittleEndian.PutUint32(buf[offsetVersion:], uint32(h.Version))
	copy(buf[offsetPrevHash:offsetMerkleRoot], h.PrevBlockHash[:])
	copy(buf[offsetMerkleRoot:offsetTime], root[:])
	binary.LittleEndian.PutUint32(buf[offsetTime:], h.Time)
	binary.LittleEndian.PutUint32(buf[offsetDifficulty:], h.Difficulty)
	binary.LittleEndian.PutUint32(buf[offsetNonce:], h.Nonce)

	return buf, nil
}

// Block represents a complete block with header and transactions
type Block struct {
	Header       BlockHeader
	Transactions []*tx.Transaction
	Hash         OptionalHash // Unset until mined or verified
}
