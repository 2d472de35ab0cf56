package merkle

import (
	"github.com/yourusername/blockwire/internal/crypto"
)

// BuildMerkleRoot reduces transaction ids to a single commitment.
//
// No ids gives the zero hash and a single id is its own root. Otherwise each
// level is paired from the end backwards, each parent being
// DoubleHash(later || earlier); when a level is odd the front node is left
// over and paired with itself. Parents keep the position of their pair.
func BuildMerkleRoot(txHashes []crypto.Hash) crypto.Hash {
	if len(txHashes) == 0 {
		return crypto.ZeroHash
	}

	level := txHashes
	for len(level) > 1 {
		level = reduce(level)
	}

	return level[0]
}

// BuildMerkleTree builds the complete merkle tree and returns all levels,
// leaves first. The last level holds only the root.
func BuildMerkleTree(txHashes []crypto.Hash) [][]crypto.Hash {
	if len(txHashes) == 0 {
		return nil
	}

	currentLevel := make([]crypto.Hash, len(txHashes))
	copy(currentLevel, txHashes)
	tree := [][]crypto.Hash{currentLevel}

	for len(currentLevel) > 1 {
		currentLevel = reduce(currentLevel)
		tree = append(tree, currentLevel)
	}

	return tree
}

// reduce returns the parent level of level, which must hold at least two nodes.
func reduce(level []crypto.Hash) []crypto.Hash {
	next := make([]crypto.Hash, (len(level)+1)/2)

	j := len(next) - 1
	i := len(level) - 1
	for ; i >= 1; i -= 2 {
		next[j] = hashPair(level[i], level[i-1])
		j--
	}
	if i == 0 {
		next[0] = hashPair(level[0], level[0])
	}

	return next
}

func hashPair(a, b crypto.Hash) crypto.Hash {
	var buf [2 * crypto.HashSize]byte
	copy(buf[:crypto.HashSize], a[:])
	copy(buf[crypto.HashSize:], b[:])
	return crypto.DoubleHash(buf[:])
}
