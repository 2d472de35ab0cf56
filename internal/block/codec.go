package block

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/yourusername/blockwire/internal/codec"
	"github.com/yourusername/blockwire/internal/crypto"
	"github.com/yourusername/blockwire/internal/tx"
	"github.com/yourusername/blockwire/pkg/types"
)

// minTxSize is the smallest serialized transaction: version and three empty
// counts.
const minTxSize = 4 + 1 + 1 + 1

// Serialize encodes a mined block: header bytes, compact-size transaction
// count, then each transaction.
func Serialize(b *types.Block) ([]byte, error) {
	if !b.Hash.IsSet() {
		return nil, errors.WithStack(types.ErrMissingHash)
	}

	header, err := b.Header.Serialize()
	if err != nil {
		return nil, err
	}

	size := types.HeaderSize + codec.CompactSizeLen(uint64(len(b.Transactions)))
	for _, t := range b.Transactions {
		size += t.SerializeSize()
	}

	buf := make([]byte, 0, size)
	buf = append(buf, header[:]...)
	buf = codec.AppendCompactSize(buf, uint64(len(b.Transactions)))
	for _, t := range b.Transactions {
		buf = t.AppendTo(buf)
	}

	return buf, nil
}

// Deserialize decodes exactly one block from data. The hash is left unset;
// use Verify to establish it.
func Deserialize(data []byte) (*types.Block, error) {
	c := codec.NewCursor(data)
	b, err := Read(c)
	if err != nil {
		return nil, err
	}
	if err := c.Done(); err != nil {
		return nil, errors.Wrap(err, "block")
	}
	return b, nil
}

// Read decodes a block from the cursor.
func Read(c *codec.Cursor) (*types.Block, error) {
	header, err := ReadHeader(c)
	if err != nil {
		return nil, err
	}

	count, err := c.ReadCompactSize()
	if err != nil {
		return nil, errors.Wrap(err, "transaction count")
	}

	limit := c.Remaining() / minTxSize
	hint := int(count)
	if count > uint64(limit) {
		hint = limit
	}

	txs := make([]*tx.Transaction, 0, hint)
	for i := uint64(0); i < count; i++ {
		t, err := tx.Read(c)
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d", i)
		}
		txs = append(txs, t)
	}

	return &types.Block{Header: header, Transactions: txs}, nil
}

// ReadHeader decodes the 80 header bytes field by field.
func ReadHeader(c *codec.Cursor) (types.BlockHeader, error) {
	var h types.BlockHeader

	raw, err := c.ReadFixed(types.HeaderSize)
	if err != nil {
		return h, errors.Wrap(err, "block header")
	}

	h.Version = int32(binary.LittleEndian.Uint32(raw[0:4]))
	copy(h.PrevBlockHash[:], raw[4:36])

	var root crypto.Hash
	copy(root[:], raw[36:68])
	h.MerkleRoot.Set(root)

	h.Time = binary.LittleEndian.Uint32(raw[68:72])
	h.Difficulty = binary.LittleEndian.Uint32(raw[72:76])
	h.Nonce = binary.LittleEndian.Uint32(raw[76:80])

	return h, nil
}
