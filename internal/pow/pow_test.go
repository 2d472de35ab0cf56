package pow

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/yourusername/blockwire/internal/crypto"
)

const (
	genesisBits  = 0x1d00ffff
	genesisNonce = 0x7c2bac1d
	genesisHash  = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"

	// easyBits accepts about every other hash.
	easyBits = 0x207fffff

	// impossibleBits encodes a zero target.
	impossibleBits = 0x00000000
)

// genesisPreimage is the first block header with a zero nonce.
func genesisPreimage(t testing.TB) [HeaderSize]byte {
	b, err := hex.DecodeString("01000000" +
		"0000000000000000000000000000000000000000000000000000000000000000" +
		"3ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a" +
		"29ab5f49" + "ffff001d" + "00000000")
	if err != nil {
		t.Fatal(err)
	}

	var p [HeaderSize]byte
	copy(p[:], b)
	return p
}

func newTestMiner(workers int) *Miner {
	return NewMiner(Config{Workers: workers}, nil)
}

func TestCompactToTarget(t *testing.T) {
	tests := []struct {
		name string
		bits uint32
		want *uint256.Int
	}{
		{"genesis", 0x1d00ffff, new(uint256.Int).Lsh(uint256.NewInt(0xffff), 208)},
		{"mainnet sample", 0x1b0404cb, new(uint256.Int).Lsh(uint256.NewInt(0x0404cb), 192)},
		{"regtest", 0x207fffff, new(uint256.Int).Lsh(uint256.NewInt(0x7fffff), 232)},
		{"exponent three", 0x03123456, uint256.NewInt(0x123456)},
		{"exponent two", 0x02123456, uint256.NewInt(0x1234)},
		{"exponent one", 0x01003456, uint256.NewInt(0)},
		{"sign bit ignored", 0x04923456, uint256.NewInt(0x12345600)},
		{"zero", 0x00000000, uint256.NewInt(0)},
		{"overflow saturates", 0xff123456, new(uint256.Int).Not(uint256.NewInt(0))},
		{"zero mantissa large exponent", 0xff000000, uint256.NewInt(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompactToTarget(tt.bits)
			if !got.Eq(tt.want) {
				t.Errorf("CompactToTarget(%08x) = %s, want %s", tt.bits, got.Hex(), tt.want.Hex())
			}
		})
	}
}

func TestTargetToCompact_RoundTrip(t *testing.T) {
	for _, bits := range []uint32{0x1d00ffff, 0x1b0404cb, 0x207fffff, 0x03123456, 0x1c654657} {
		if got := TargetToCompact(CompactToTarget(bits)); got != bits {
			t.Errorf("TargetToCompact(CompactToTarget(%08x)) = %08x", bits, got)
		}
	}

	if got := TargetToCompact(uint256.NewInt(0)); got != 0 {
		t.Errorf("TargetToCompact(0) = %08x, want 0", got)
	}
}

func TestHashMeetsTarget_Strict(t *testing.T) {
	target := uint256.NewInt(0x1234)

	var equal crypto.Hash
	equal[30], equal[31] = 0x12, 0x34
	if HashMeetsTarget(equal, target) {
		t.Error("hash equal to target should not pass")
	}

	below := equal
	below[31] = 0x33
	if !HashMeetsTarget(below, target) {
		t.Error("hash below target should pass")
	}

	above := equal
	above[0] = 0x01
	if HashMeetsTarget(above, target) {
		t.Error("hash above target should not pass")
	}
}

func TestValidate_Genesis(t *testing.T) {
	p := genesisPreimage(t)
	binary.LittleEndian.PutUint32(p[NonceOffset:], genesisNonce)

	hash, ok := Validate(p, genesisBits)
	if !ok {
		t.Error("genesis header does not meet its own target")
	}
	if hash.String() != genesisHash {
		t.Errorf("genesis hash = %s, want %s", hash, genesisHash)
	}

	binary.LittleEndian.PutUint32(p[NonceOffset:], genesisNonce+1)
	if _, ok := Validate(p, genesisBits); ok {
		t.Error("neighbouring nonce should not meet the target")
	}
}

func TestSearchRange_FindsGenesisNonce(t *testing.T) {
	m := newTestMiner(1)

	res, err := m.SearchRange(context.Background(), genesisPreimage(t), genesisBits, genesisNonce-2000, genesisNonce+2000)
	if err != nil {
		t.Fatalf("SearchRange: %v", err)
	}

	if !res.Found {
		t.Fatal("genesis nonce not found")
	}
	if res.Nonce != genesisNonce {
		t.Errorf("nonce = %#x, want %#x", res.Nonce, genesisNonce)
	}
	if res.Hash.String() != genesisHash {
		t.Errorf("hash = %s, want %s", res.Hash, genesisHash)
	}
	if res.Attempts != 2001 {
		t.Errorf("attempts = %d, want 2001", res.Attempts)
	}
}

func TestSearch_GenesisFromZero(t *testing.T) {
	if os.Getenv("BLOCKWIRE_FULL_SEARCH") == "" {
		t.Skip("set BLOCKWIRE_FULL_SEARCH=1 to search the genesis nonce from zero")
	}

	res, err := newTestMiner(1).Search(context.Background(), genesisPreimage(t), genesisBits)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !res.Found || res.Nonce != genesisNonce || res.Hash.String() != genesisHash {
		t.Errorf("Search = %+v, want nonce %#x hash %s", res, genesisNonce, genesisHash)
	}
}

func TestSearchRange_Exhausted(t *testing.T) {
	res, err := newTestMiner(1).SearchRange(context.Background(), genesisPreimage(t), impossibleBits, 0, 999)
	if err != nil {
		t.Fatalf("exhaustion should not be an error: %v", err)
	}
	if res.Found {
		t.Error("found a nonce below a zero target")
	}
	if res.Attempts != 1000 {
		t.Errorf("attempts = %d, want 1000", res.Attempts)
	}
}

func TestSearchRange_StopsAtMaxNonce(t *testing.T) {
	res, err := newTestMiner(1).SearchRange(context.Background(), genesisPreimage(t), impossibleBits, MaxNonce-9, MaxNonce)
	if err != nil {
		t.Fatalf("SearchRange: %v", err)
	}
	if res.Attempts != 10 {
		t.Errorf("attempts = %d, want 10", res.Attempts)
	}
}

func TestSearchRange_EmptyRange(t *testing.T) {
	res, err := newTestMiner(1).SearchRange(context.Background(), genesisPreimage(t), easyBits, 10, 9)
	if err != nil || res.Found || res.Attempts != 0 {
		t.Errorf("SearchRange(10, 9) = %+v, %v", res, err)
	}
}

func TestSearch_EasyDifficulty(t *testing.T) {
	for _, workers := range []int{1, 4} {
		m := newTestMiner(workers)
		p := genesisPreimage(t)

		res, err := m.Search(context.Background(), p, easyBits)
		if err != nil {
			t.Fatalf("workers=%d: Search: %v", workers, err)
		}
		if !res.Found {
			t.Fatalf("workers=%d: no nonce found", workers)
		}

		binary.LittleEndian.PutUint32(p[NonceOffset:], res.Nonce)
		hash, ok := Validate(p, easyBits)
		if !ok || hash != res.Hash {
			t.Errorf("workers=%d: result does not validate", workers)
		}
	}
}

func TestSearch_DoesNotTouchCallerPreimage(t *testing.T) {
	p := genesisPreimage(t)
	orig := p

	newTestMiner(1).Search(context.Background(), p, easyBits)

	if p != orig {
		t.Error("caller's pre-image was modified")
	}
}

func TestSearch_Cancelled(t *testing.T) {
	for _, workers := range []int{1, 3} {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestMiner(workers).Search(ctx, genesisPreimage(t), impossibleBits)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: error = %v, want context.Canceled", workers, err)
		}
	}
}

func TestSearch_Deadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestMiner(2).Search(ctx, genesisPreimage(t), impossibleBits)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestPartition(t *testing.T) {
	ranges := partition(0, MaxNonce, 3)
	if len(ranges) != 3 {
		t.Fatalf("len = %d, want 3", len(ranges))
	}
	if ranges[0].first != 0 || ranges[2].last != MaxNonce {
		t.Errorf("ranges do not cover the nonce space: %+v", ranges)
	}
	for i := 1; i < len(ranges); i++ {
		if ranges[i].first != ranges[i-1].last+1 {
			t.Errorf("gap between range %d and %d: %+v", i-1, i, ranges)
		}
	}

	if small := partition(5, 6, 4); len(small) != 2 || small[0].first != 5 || small[1].last != 6 {
		t.Errorf("partition(5, 6, 4) = %+v", small)
	}
}

func TestNewMiner_ClampsWorkers(t *testing.T) {
	if m := NewMiner(Config{Workers: 0}, nil); m.workers != 1 {
		t.Errorf("workers = %d, want 1", m.workers)
	}
}

func BenchmarkSearchRange(b *testing.B) {
	m := newTestMiner(1)
	p := genesisPreimage(b)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.SearchRange(context.Background(), p, impossibleBits, 0, 999)
	}
}
