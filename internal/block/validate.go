package block

import (
	"github.com/pkg/errors"

	"github.com/yourusername/blockwire/internal/crypto"
	"github.com/yourusername/blockwire/internal/merkle"
	"github.com/yourusername/blockwire/internal/pow"
	"github.com/yourusername/blockwire/pkg/types"
)

var (
	// ErrMerkleRootMismatch means the header does not commit to the block's
	// transactions.
	ErrMerkleRootMismatch = errors.New("merkle root mismatch")

	// ErrInsufficientWork means the header hash is not below its target.
	ErrInsufficientWork = errors.New("invalid proof-of-work")

	// ErrHashMismatch means the recorded hash is not the header hash.
	ErrHashMismatch = errors.New("block hash mismatch")
)

// Validate checks a single block on its own: merkle commitment, proof of
// work, and the recorded hash when one is present. Transactions are not
// validated.
func Validate(b *types.Block) error {
	_, err := validate(b)
	return err
}

// Verify validates b and records the header hash on success.
func Verify(b *types.Block) error {
	hash, err := validate(b)
	if err != nil {
		return err
	}
	b.Hash.Set(hash)
	return nil
}

func validate(b *types.Block) (crypto.Hash, error) {
	root, ok := b.Header.MerkleRoot.Get()
	if !ok {
		return crypto.Hash{}, errors.WithStack(types.ErrMissingMerkleRoot)
	}

	if computed := merkle.BuildMerkleRoot(TxIDs(b)); computed != root {
		return crypto.Hash{}, errors.Wrapf(ErrMerkleRootMismatch, "header %s, computed %s", root, computed)
	}

	hash, err := HeaderHash(&b.Header)
	if err != nil {
		return crypto.Hash{}, err
	}

	if !pow.HashMeetsCompact(hash, b.Header.Difficulty) {
		return crypto.Hash{}, errors.Wrapf(ErrInsufficientWork, "hash %s, bits %08x", hash, b.Header.Difficulty)
	}

	if recorded, ok := b.Hash.Get(); ok && recorded != hash {
		return crypto.Hash{}, errors.Wrapf(ErrHashMismatch, "recorded %s, computed %s", recorded, hash)
	}

	return hash, nil
}
