package pow

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/blockwire/internal/crypto"
)

const (
	// MaxNonce is the maximum value for nonce
	MaxNonce = math.MaxUint32

	// HeaderSize is the length of the header pre-image.
	HeaderSize = 80

	// NonceOffset is where the little-endian nonce sits in the pre-image.
	NonceOffset = 76

	// progressInterval is how many attempts pass between progress logs.
	progressInterval = 1 << 24
)

// Config holds the miner settings.
type Config struct {
	// Workers is the number of goroutines a full search is split across.
	Workers int
}

// Result is the outcome of a nonce search. Found is false when the range
// was exhausted without a hash below the target.
type Result struct {
	Found    bool
	Nonce    uint32
	Hash     crypto.Hash
	Attempts uint64
}

// Miner searches the nonce space of a header pre-image.
type Miner struct {
	workers int
	log     *zap.SugaredLogger
}

// NewMiner creates a miner. A worker count below one means one.
func NewMiner(cfg Config, log *zap.SugaredLogger) *Miner {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Miner{
		workers: workers,
		log:     log,
	}
}

// Search tries every nonce from 0 to MaxNonce against the target encoded by
// bits, split across the configured workers. With one worker the result is
// the lowest valid nonce; with more it is whichever worker wins.
func (m *Miner) Search(ctx context.Context, preimage [HeaderSize]byte, bits uint32) (Result, error) {
	job := uuid.NewString()
	target := CompactToTarget(bits)

	m.log.Infow("pow: search started", "job", job, "bits", bits, "workers", m.workers)

	if m.workers == 1 {
		res, err := m.searchRange(ctx, job, preimage, target, 0, MaxNonce)
		m.logOutcome(job, res, err)
		return res, err
	}

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result, m.workers)
	g, gctx := errgroup.WithContext(searchCtx)

	for i, r := range partition(0, MaxNonce, m.workers) {
		i, r := i, r // per-iteration copies (go1.21 loop semantics)
		g.Go(func() error {
			res, err := m.searchRange(gctx, job, preimage, target, r.first, r.last)
			results[i] = res
			if err != nil {
				return err
			}
			if res.Found {
				cancel()
			}
			return nil
		})
	}
	waitErr := g.Wait()

	var total Result
	for _, res := range results {
		total.Attempts += res.Attempts
		if res.Found && !total.Found {
			total.Found = true
			total.Nonce = res.Nonce
			total.Hash = res.Hash
		}
	}

	if !total.Found && waitErr != nil {
		if err := ctx.Err(); err != nil {
			m.logOutcome(job, total, err)
			return total, err
		}
	}

	m.logOutcome(job, total, nil)
	return total, nil
}

// SearchRange tries nonces first through last inclusive on a single
// goroutine.
func (m *Miner) SearchRange(ctx context.Context, preimage [HeaderSize]byte, bits uint32, first, last uint32) (Result, error) {
	job := uuid.NewString()
	m.log.Infow("pow: range search started", "job", job, "bits", bits, "first", first, "last", last)

	res, err := m.searchRange(ctx, job, preimage, CompactToTarget(bits), first, last)
	m.logOutcome(job, res, err)
	return res, err
}

// searchRange owns preimage, a copy, for the whole loop. The stop channel is
// polled once per nonce.
func (m *Miner) searchRange(ctx context.Context, job string, preimage [HeaderSize]byte, target *uint256.Int, first, last uint32) (Result, error) {
	var res Result
	if first > last {
		return res, nil
	}

	done := ctx.Done()
	var hashInt uint256.Int

	for nonce := first; ; nonce++ {
		select {
		case <-done:
			return res, ctx.Err()
		default:
		}

		binary.LittleEndian.PutUint32(preimage[NonceOffset:], nonce)
		hash := crypto.DoubleHash(preimage[:])
		res.Attempts++

		if hashInt.SetBytes32(hash[:]).Lt(target) {
			res.Found = true
			res.Nonce = nonce
			res.Hash = hash
			return res, nil
		}

		if res.Attempts%progressInterval == 0 {
			m.log.Debugw("pow: progress", "job", job, "nonce", nonce, "attempts", res.Attempts)
		}

		if nonce == last {
			return res, nil
		}
	}
}

func (m *Miner) logOutcome(job string, res Result, err error) {
	switch {
	case err != nil:
		m.log.Infow("pow: search cancelled", "job", job, "attempts", res.Attempts, "ERROR", err)
	case res.Found:
		m.log.Infow("pow: SOLVED", "job", job, "nonce", res.Nonce, "hash", res.Hash.String(), "attempts", res.Attempts)
	default:
		m.log.Infow("pow: nonce space exhausted", "job", job, "attempts", res.Attempts)
	}
}

type nonceRange struct {
	first, last uint32
}

// partition splits [first, last] into n contiguous ranges covering it exactly.
func partition(first, last uint32, n int) []nonceRange {
	total := uint64(last) - uint64(first) + 1
	if uint64(n) > total {
		n = int(total)
	}

	size := total / uint64(n)
	ranges := make([]nonceRange, 0, n)

	start := uint64(first)
	for i := 0; i < n; i++ {
		end := start + size - 1
		if i == n-1 {
			end = uint64(last)
		}
		ranges = append(ranges, nonceRange{first: uint32(start), last: uint32(end)})
		start = end + 1
	}

	return ranges
}

// Validate reports whether the pre-image, as it stands, hashes below the
// target encoded by bits.
func Validate(preimage [HeaderSize]byte, bits uint32) (crypto.Hash, bool) {
	hash := crypto.DoubleHash(preimage[:])
	return hash, HashMeetsCompact(hash, bits)
}
