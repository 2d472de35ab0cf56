package storage

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/yourusername/blockwire/internal/block"
	"github.com/yourusername/blockwire/internal/crypto"
	"github.com/yourusername/blockwire/pkg/types"
)

const (
	// Database prefixes
	blockPrefix = "block_"
	tipKey      = "chain_tip"
)

var (
	// ErrBlockNotFound is returned for a hash the store does not hold.
	ErrBlockNotFound = errors.New("block not found")

	// ErrNoTip is returned before any block was recorded as the tip.
	ErrNoTip = errors.New("no tip recorded")

	// ErrCorruptBlock is returned when stored bytes do not verify under their key.
	ErrCorruptBlock = errors.New("stored block does not match its key")
)

// Storage keeps finished blocks in LevelDB, keyed by hash, in their wire
// payload encoding.
type Storage struct {
	db *leveldb.DB
}

// NewStorage creates a new storage instance
func NewStorage(path string) (*Storage, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

func blockKey(hash crypto.Hash) []byte {
	return append([]byte(blockPrefix), hash[:]...)
}

// SaveBlock stores a mined block under its hash.
func (s *Storage) SaveBlock(b *types.Block) (crypto.Hash, error) {
	hash, ok := b.Hash.Get()
	if !ok {
		return crypto.Hash{}, fmt.Errorf("save block: %w", types.ErrMissingHash)
	}

	data, err := block.Serialize(b)
	if err != nil {
		return crypto.Hash{}, fmt.Errorf("failed to serialize block: %w", err)
	}

	if err := s.db.Put(blockKey(hash), data, nil); err != nil {
		return crypto.Hash{}, fmt.Errorf("failed to save block: %w", err)
	}

	return hash, nil
}

// GetBlock loads and re-verifies a block. The stored hash is never trusted;
// it is recomputed from the header and must match the key.
func (s *Storage) GetBlock(hash crypto.Hash) (*types.Block, error) {
	data, err := s.db.Get(blockKey(hash), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, hash)
		}
		return nil, fmt.Errorf("failed to read block: %w", err)
	}

	return decodeStored(hash, data)
}

func decodeStored(hash crypto.Hash, data []byte) (*types.Block, error) {
	b, err := block.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize block %s: %w", hash, err)
	}

	b.Hash.Set(hash)
	if err := block.Verify(b); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptBlock, hash, err)
	}

	return b, nil
}

// BlockExists checks if a block exists in the database
func (s *Storage) BlockExists(hash crypto.Hash) bool {
	exists, _ := s.db.Has(blockKey(hash), nil)
	return exists
}

// DeleteBlock removes a block from the database
func (s *Storage) DeleteBlock(hash crypto.Hash) error {
	return s.db.Delete(blockKey(hash), nil)
}

// SaveChainTip records hash as the most recently produced block.
func (s *Storage) SaveChainTip(hash crypto.Hash) error {
	return s.db.Put([]byte(tipKey), hash[:], nil)
}

// GetChainTip returns the most recently recorded block hash.
func (s *Storage) GetChainTip() (crypto.Hash, error) {
	var tip crypto.Hash

	data, err := s.db.Get([]byte(tipKey), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return tip, ErrNoTip
		}
		return tip, fmt.Errorf("failed to read tip: %w", err)
	}
	if len(data) != crypto.HashSize {
		return tip, fmt.Errorf("tip has %d bytes, want %d", len(data), crypto.HashSize)
	}

	copy(tip[:], data)
	return tip, nil
}

// GetAllBlocks retrieves all blocks from the database in key order.
func (s *Storage) GetAllBlocks() ([]*types.Block, error) {
	var blocks []*types.Block

	iter := s.db.NewIterator(util.BytesPrefix([]byte(blockPrefix)), nil)
	defer iter.Release()

	for iter.Next() {
		var hash crypto.Hash
		copy(hash[:], iter.Key()[len(blockPrefix):])

		b, err := decodeStored(hash, iter.Value())
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}

	return blocks, iter.Error()
}

// Clear removes all data from the database
func (s *Storage) Clear() error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(iter.Key())
	}

	return s.db.Write(batch, nil)
}
