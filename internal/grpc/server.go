package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/yourusername/blockwire/internal/block"
	"github.com/yourusername/blockwire/internal/crypto"
	"github.com/yourusername/blockwire/internal/storage"
	"github.com/yourusername/blockwire/internal/wire"
	"github.com/yourusername/blockwire/pkg/types"
)

// BlockStore is the persistence the relay needs.
type BlockStore interface {
	SaveBlock(*types.Block) (crypto.Hash, error)
	GetBlock(crypto.Hash) (*types.Block, error)
	SaveChainTip(crypto.Hash) error
	GetChainTip() (crypto.Hash, error)
}

// Server implements the block relay service over a block store.
type Server struct {
	store  BlockStore
	framer *wire.Framer
	log    *zap.SugaredLogger

	handlerMu    sync.RWMutex
	blockHandler func(*types.Block)

	grpcServer *grpc.Server
}

var _ BlockRelayServer = (*Server)(nil)

// NewServer creates a new gRPC server
func NewServer(store BlockStore, framer *wire.Framer, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		store:      store,
		framer:     framer,
		log:        log,
		grpcServer: grpc.NewServer(),
	}
	RegisterBlockRelayServer(s.grpcServer, s)

	return s
}

// SetBlockHandler sets a callback run for every accepted submission.
func (s *Server) SetBlockHandler(handler func(*types.Block)) {
	s.handlerMu.Lock()
	s.blockHandler = handler
	s.handlerMu.Unlock()
}

// Start listens on address and serves until Stop.
func (s *Server) Start(address string) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

// Serve serves the relay on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Infow("grpc: listening", "address", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// Stop stops the gRPC server
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

// SubmitBlock accepts one framed block, verifies it, stores it as the tip
// and returns its hash.
func (s *Server) SubmitBlock(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	b, err := s.framer.Unwrap(req.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "unwrap frame: %v", err)
	}

	if err := block.Verify(b); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "verify block: %v", err)
	}

	hash, err := s.store.SaveBlock(b)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "save block: %v", err)
	}
	if err := s.store.SaveChainTip(hash); err != nil {
		return nil, status.Errorf(codes.Internal, "save tip: %v", err)
	}

	s.log.Infow("grpc: block accepted", "hash", hash.String(), "txs", len(b.Transactions))

	s.handlerMu.RLock()
	handler := s.blockHandler
	s.handlerMu.RUnlock()
	if handler != nil {
		handler(b)
	}

	return wrapperspb.Bytes(hash[:]), nil
}

// GetBlock returns the framed block stored under the requested hash.
func (s *Server) GetBlock(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	hash, err := hashFromBytes(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	b, err := s.store.GetBlock(hash)
	if err != nil {
		if errors.Is(err, storage.ErrBlockNotFound) {
			return nil, status.Errorf(codes.NotFound, "block %s not found", hash)
		}
		return nil, status.Errorf(codes.Internal, "load block: %v", err)
	}

	frame, err := s.framer.Wrap(b)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "wrap block: %v", err)
	}

	return wrapperspb.Bytes(frame), nil
}

// GetTip returns the hash of the most recently accepted block.
func (s *Server) GetTip(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	tip, err := s.store.GetChainTip()
	if err != nil {
		if errors.Is(err, storage.ErrNoTip) {
			return nil, status.Error(codes.NotFound, "no blocks")
		}
		return nil, status.Errorf(codes.Internal, "load tip: %v", err)
	}

	return wrapperspb.Bytes(tip[:]), nil
}

func hashFromBytes(b []byte) (crypto.Hash, error) {
	var h crypto.Hash
	if len(b) != crypto.HashSize {
		return h, fmt.Errorf("hash has %d bytes, want %d", len(b), crypto.HashSize)
	}
	copy(h[:], b)
	return h, nil
}
