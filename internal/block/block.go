// Package block builds, mines, encodes and checks blocks.
package block

import (
	"context"

	"github.com/pkg/errors"

	"github.com/yourusername/blockwire/internal/crypto"
	"github.com/yourusername/blockwire/internal/merkle"
	"github.com/yourusername/blockwire/internal/pow"
	"github.com/yourusername/blockwire/internal/tx"
	"github.com/yourusername/blockwire/pkg/types"
)

// New creates an unmined block. The merkle root and hash stay unset until
// the block is mined.
func New(version int32, prev crypto.Hash, time, difficulty uint32, txs []*tx.Transaction) *types.Block {
	return &types.Block{
		Header: types.BlockHeader{
			Version:       version,
			PrevBlockHash: prev,
			Time:          time,
			Difficulty:    difficulty,
		},
		Transactions: txs,
	}
}

// TxIDs returns the ids of the block's transactions in order.
func TxIDs(b *types.Block) []crypto.Hash {
	ids := make([]crypto.Hash, len(b.Transactions))
	for i, t := range b.Transactions {
		ids[i] = t.ID()
	}
	return ids
}

// ComputeMerkleRoot commits the header to the block's transactions.
func ComputeMerkleRoot(b *types.Block) crypto.Hash {
	root := merkle.BuildMerkleRoot(TxIDs(b))
	b.Header.MerkleRoot.Set(root)
	return root
}

// HeaderHash is the double hash of the assembled header.
func HeaderHash(h *types.BlockHeader) (crypto.Hash, error) {
	buf, err := h.Serialize()
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.DoubleHash(buf[:]), nil
}

// Mine computes the merkle root and searches for a nonce. On success the
// header nonce and block hash are set. An exhausted nonce space reports
// false with a nil error and leaves the block unmined.
func Mine(ctx context.Context, b *types.Block, miner *pow.Miner) (bool, error) {
	ComputeMerkleRoot(b)
	b.Hash.Clear()

	hash, ok, err := MineHeader(ctx, &b.Header, miner)
	if err != nil || !ok {
		return false, err
	}

	b.Hash.Set(hash)
	return true, nil
}

// MineHeader searches for a nonce for a header whose merkle root is already
// set. The header's nonce is only written on success.
func MineHeader(ctx context.Context, h *types.BlockHeader, miner *pow.Miner) (crypto.Hash, bool, error) {
	preimage, err := h.Serialize()
	if err != nil {
		return crypto.Hash{}, false, err
	}

	res, err := miner.Search(ctx, preimage, h.Difficulty)
	if err != nil {
		return crypto.Hash{}, false, errors.Wrap(err, "nonce search")
	}
	if !res.Found {
		return crypto.Hash{}, false, nil
	}

	h.Nonce = res.Nonce
	return res.Hash, true, nil
}
