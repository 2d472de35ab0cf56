package tx

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/yourusername/blockwire/internal/codec"
	"github.com/yourusername/blockwire/internal/crypto"
)

// CoinbaseIndex marks the output index of a coinbase input.
const CoinbaseIndex = math.MaxUint32

// Transaction represents a transaction as it is laid out on the wire.
type Transaction struct {
	Version   uint32
	Inputs    []TxIn
	Outputs   []TxOut
	Signature string
}

// TxIn spends a previous output.
type TxIn struct {
	PreviousOutput Outpoint
}

// Outpoint references an output of an earlier transaction.
type Outpoint struct {
	TxID  crypto.Hash
	Index uint32
}

// TxOut pays Value to the holder of PubKey.
type TxOut struct {
	Value  uint64
	PubKey string
}

// NewTransaction creates a version 1 transaction.
func NewTransaction(inputs []TxIn, outputs []TxOut) *Transaction {
	return &Transaction{
		Version: 1,
		Inputs:  inputs,
		Outputs: outputs,
	}
}

// NewCoinbaseTx creates a transaction that pays reward to address and spends
// nothing.
func NewCoinbaseTx(address string, reward uint64) (*Transaction, error) {
	if _, err := crypto.DecodeAddress(address); err != nil {
		return nil, errors.Wrap(err, "coinbase address")
	}

	txin := TxIn{PreviousOutput: Outpoint{Index: CoinbaseIndex}}
	txout := TxOut{Value: reward, PubKey: address}

	return NewTransaction([]TxIn{txin}, []TxOut{txout}), nil
}

// IsCoinbase checks if the transaction is a coinbase transaction
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 &&
		tx.Inputs[0].PreviousOutput.TxID.IsZero() &&
		tx.Inputs[0].PreviousOutput.Index == CoinbaseIndex
}

// SerializeSize returns the number of bytes Serialize produces.
func (tx *Transaction) SerializeSize() int {
	n := 4 + codec.CompactSizeLen(uint64(len(tx.Inputs))) +
		len(tx.Inputs)*(crypto.HashSize+4) +
		codec.CompactSizeLen(uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		n += 8 + codec.CompactSizeLen(uint64(len(out.PubKey))) + len(out.PubKey)
	}
	return n + codec.CompactSizeLen(uint64(len(tx.Signature))) + len(tx.Signature)
}

// Serialize encodes the transaction in its canonical byte layout.
func (tx *Transaction) Serialize() []byte {
	return tx.AppendTo(make([]byte, 0, tx.SerializeSize()))
}

// AppendTo appends the serialized transaction to dst.
func (tx *Transaction) AppendTo(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, tx.Version)

	dst = codec.AppendCompactSize(dst, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		dst = append(dst, in.PreviousOutput.TxID[:]...)
		dst = binary.LittleEndian.AppendUint32(dst, in.PreviousOutput.Index)
	}

	dst = codec.AppendCompactSize(dst, uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		dst = binary.LittleEndian.AppendUint64(dst, out.Value)
		dst = codec.AppendVarString(dst, out.PubKey)
	}

	return codec.AppendVarString(dst, tx.Signature)
}

// ID is the double hash of the serialized transaction.
func (tx *Transaction) ID() crypto.Hash {
	return crypto.DoubleHash(tx.Serialize())
}

// Deserialize decodes exactly one transaction from data.
func Deserialize(data []byte) (*Transaction, error) {
	c := codec.NewCursor(data)
	tx, err := Read(c)
	if err != nil {
		return nil, err
	}
	if err := c.Done(); err != nil {
		return nil, errors.Wrap(err, "transaction")
	}
	return tx, nil
}

// minInputSize and minOutputSize bound slice preallocation by the input left.
const (
	minInputSize  = crypto.HashSize + 4
	minOutputSize = 8 + 1
)

// Read decodes a transaction from the cursor.
func Read(c *codec.Cursor) (*Transaction, error) {
	var tx Transaction
	var err error

	if tx.Version, err = c.ReadUint32(); err != nil {
		return nil, errors.Wrap(err, "transaction version")
	}

	inCount, err := c.ReadCompactSize()
	if err != nil {
		return nil, errors.Wrap(err, "input count")
	}
	tx.Inputs = make([]TxIn, 0, capHint(inCount, c.Remaining()/minInputSize))
	for i := uint64(0); i < inCount; i++ {
		var in TxIn
		if err := c.ReadInto(in.PreviousOutput.TxID[:]); err != nil {
			return nil, errors.Wrapf(err, "input %d txid", i)
		}
		if in.PreviousOutput.Index, err = c.ReadUint32(); err != nil {
			return nil, errors.Wrapf(err, "input %d index", i)
		}
		tx.Inputs = append(tx.Inputs, in)
	}

	outCount, err := c.ReadCompactSize()
	if err != nil {
		return nil, errors.Wrap(err, "output count")
	}
	tx.Outputs = make([]TxOut, 0, capHint(outCount, c.Remaining()/minOutputSize))
	for i := uint64(0); i < outCount; i++ {
		var out TxOut
		if out.Value, err = c.ReadUint64(); err != nil {
			return nil, errors.Wrapf(err, "output %d value", i)
		}
		if out.PubKey, err = c.ReadVarString(); err != nil {
			return nil, errors.Wrapf(err, "output %d key", i)
		}
		tx.Outputs = append(tx.Outputs, out)
	}

	if tx.Signature, err = c.ReadVarString(); err != nil {
		return nil, errors.Wrap(err, "signature")
	}

	return &tx, nil
}

func capHint(count uint64, limit int) int {
	if count > uint64(limit) {
		return limit
	}
	return int(count)
}

// sigHash is the id of the transaction with its signature cleared.
func (tx *Transaction) sigHash() crypto.Hash {
	unsigned := *tx
	unsigned.Signature = ""
	return unsigned.ID()
}

// Sign fills the signature field with the wallet's signature over the
// unsigned transaction id.
func (tx *Transaction) Sign(wallet *crypto.Wallet) {
	tx.Signature = wallet.Sign(tx.sigHash())
}

// VerifySignature checks the signature field against pubKey.
func (tx *Transaction) VerifySignature(pubKey []byte) bool {
	return crypto.VerifySignature(pubKey, tx.sigHash(), tx.Signature)
}

// IsLockedWithKey checks if the output pays the given public key hash.
func (out *TxOut) IsLockedWithKey(pubKeyHash []byte) bool {
	hash, err := crypto.DecodeAddress(out.PubKey)
	if err != nil {
		return false
	}
	return string(hash) == string(pubKeyHash)
}
