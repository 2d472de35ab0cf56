package grpc

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/yourusername/blockwire/internal/block"
	"github.com/yourusername/blockwire/internal/crypto"
	"github.com/yourusername/blockwire/internal/pow"
	"github.com/yourusername/blockwire/internal/storage"
	"github.com/yourusername/blockwire/internal/tx"
	"github.com/yourusername/blockwire/internal/wire"
	"github.com/yourusername/blockwire/pkg/types"
)

type testRelay struct {
	server *Server
	client *Client
	conn   *grpc.ClientConn
	store  *storage.Storage
}

func newTestRelay(t *testing.T) *testRelay {
	t.Helper()

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "blocks"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	framer := wire.NewFramer(wire.MainMagic, 0)
	server := NewServer(store, framer, nil)

	lis := bufconn.Listen(1 << 20)
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testRelay{
		server: server,
		client: NewClient(conn, framer),
		conn:   conn,
		store:  store,
	}
}

func minedBlock(t *testing.T, time uint32) *types.Block {
	t.Helper()

	b := block.New(1, crypto.ZeroHash, time, 0x207fffff, []*tx.Transaction{
		tx.NewTransaction(
			[]tx.TxIn{{PreviousOutput: tx.Outpoint{Index: tx.CoinbaseIndex}}},
			[]tx.TxOut{{Value: 50, PubKey: "miner"}},
		),
	})

	ok, err := block.Mine(context.Background(), b, pow.NewMiner(pow.Config{Workers: 1}, nil))
	require.NoError(t, err)
	require.True(t, ok)
	return b
}

func TestSubmitGetBlock(t *testing.T) {
	r := newTestRelay(t)
	ctx := context.Background()
	b := minedBlock(t, 1)

	var handled *types.Block
	r.server.SetBlockHandler(func(got *types.Block) { handled = got })

	hash, err := r.client.SubmitBlock(ctx, b)
	require.NoError(t, err)

	want, _ := b.Hash.Get()
	require.Equal(t, want, hash)
	require.NotNil(t, handled)
	require.Equal(t, b.Hash, handled.Hash)

	got, err := r.client.GetBlock(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, b.Header, got.Header)
	require.Equal(t, b.Hash, got.Hash)

	tip, err := r.client.GetTip(ctx)
	require.NoError(t, err)
	require.Equal(t, hash, tip)
}

func TestGetTip_FollowsSubmissions(t *testing.T) {
	r := newTestRelay(t)
	ctx := context.Background()

	_, err := r.client.GetTip(ctx)
	require.Equal(t, codes.NotFound, status.Code(err))

	for i := uint32(1); i <= 3; i++ {
		hash, err := r.client.SubmitBlock(ctx, minedBlock(t, i))
		require.NoError(t, err)

		tip, err := r.client.GetTip(ctx)
		require.NoError(t, err)
		require.Equal(t, hash, tip)
	}
}

func TestGetBlock_NotFound(t *testing.T) {
	r := newTestRelay(t)

	_, err := r.client.GetBlock(context.Background(), crypto.DoubleHash([]byte("missing")))
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestGetBlock_BadHashLength(t *testing.T) {
	r := newTestRelay(t)

	out := new(wrapperspb.BytesValue)
	err := r.conn.Invoke(context.Background(), getBlockMethod, wrapperspb.Bytes([]byte{1, 2, 3}), out)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSubmitBlock_Rejects(t *testing.T) {
	r := newTestRelay(t)
	framer := wire.NewFramer(wire.MainMagic, 0)

	good, err := framer.Wrap(minedBlock(t, 1))
	require.NoError(t, err)

	badMagic := append([]byte(nil), good...)
	badMagic[0] ^= 0xff

	tampered := minedBlock(t, 2)
	tampered.Transactions[0].Outputs[0].Value++
	badRoot, err := framer.Wrap(tampered)
	require.NoError(t, err)

	tests := []struct {
		name  string
		frame []byte
	}{
		{"empty", nil},
		{"bad magic", badMagic},
		{"truncated", good[:len(good)-1]},
		{"trailing bytes", append(append([]byte(nil), good...), 0)},
		{"merkle mismatch", badRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := new(wrapperspb.BytesValue)
			err := r.conn.Invoke(context.Background(), submitBlockMethod, wrapperspb.Bytes(tt.frame), out)
			require.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}

	blocks, err := r.store.GetAllBlocks()
	require.NoError(t, err)
	require.Empty(t, blocks)
}
