package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/yourusername/blockwire/internal/block"
	"github.com/yourusername/blockwire/internal/crypto"
	"github.com/yourusername/blockwire/internal/wire"
	"github.com/yourusername/blockwire/pkg/types"
)

// Client calls a remote block relay.
type Client struct {
	cc     grpc.ClientConnInterface
	framer *wire.Framer
}

// NewClient creates a relay client over an established connection.
func NewClient(cc grpc.ClientConnInterface, framer *wire.Framer) *Client {
	return &Client{cc: cc, framer: framer}
}

// SubmitBlock sends a mined block and returns the hash the relay recorded.
func (c *Client) SubmitBlock(ctx context.Context, b *types.Block) (crypto.Hash, error) {
	frame, err := c.framer.Wrap(b)
	if err != nil {
		return crypto.Hash{}, err
	}

	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, submitBlockMethod, wrapperspb.Bytes(frame), out); err != nil {
		return crypto.Hash{}, err
	}

	return hashFromBytes(out.GetValue())
}

// GetBlock fetches a block and checks it hashes to the requested value.
func (c *Client) GetBlock(ctx context.Context, hash crypto.Hash) (*types.Block, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, getBlockMethod, wrapperspb.Bytes(hash[:]), out); err != nil {
		return nil, err
	}

	b, err := c.framer.Unwrap(out.GetValue())
	if err != nil {
		return nil, err
	}

	b.Hash.Set(hash)
	if err := block.Verify(b); err != nil {
		return nil, fmt.Errorf("block %s: %w", hash, err)
	}

	return b, nil
}

// GetTip returns the relay's most recently accepted block hash.
func (c *Client) GetTip(ctx context.Context) (crypto.Hash, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, getTipMethod, new(emptypb.Empty), out); err != nil {
		return crypto.Hash{}, err
	}

	return hashFromBytes(out.GetValue())
}
