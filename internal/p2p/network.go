package p2p

import (
	"context"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"github.com/yourusername/blockwire/internal/block"
	"github.com/yourusername/blockwire/internal/crypto"
	"github.com/yourusername/blockwire/internal/wire"
	"github.com/yourusername/blockwire/pkg/types"
)

// BlockProtocol carries exactly one wire frame per stream.
const BlockProtocol = "/blockwire/block/1.0.0"

// BlockStore receives blocks accepted from peers.
type BlockStore interface {
	SaveBlock(*types.Block) (crypto.Hash, error)
	BlockExists(crypto.Hash) bool
}

// Config holds the network settings.
type Config struct {
	ListenAddr string
	NATPortMap bool
}

// Network relays framed blocks between libp2p peers.
type Network struct {
	host   host.Host
	framer *wire.Framer
	store  BlockStore
	log    *zap.SugaredLogger
	ctx    context.Context
	cancel context.CancelFunc

	// Peer management
	peers     map[peer.ID]bool
	peerMutex sync.RWMutex

	handlerMu    sync.RWMutex
	blockHandler func(*types.Block)
}

// NewNetwork creates a host listening on cfg.ListenAddr. store may be nil.
func NewNetwork(ctx context.Context, cfg Config, framer *wire.Framer, store BlockStore, log *zap.SugaredLogger) (*Network, error) {
	addr, err := multiaddr.NewMultiaddr(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address: %w", err)
	}

	opts := []libp2p.Option{libp2p.ListenAddrs(addr)}
	if cfg.NATPortMap {
		opts = append(opts, libp2p.NATPortMap())
	}

	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create libp2p host: %w", err)
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	netCtx, cancel := context.WithCancel(ctx)

	n := &Network{
		host:   h,
		framer: framer,
		store:  store,
		log:    log,
		ctx:    netCtx,
		cancel: cancel,
		peers:  make(map[peer.ID]bool),
	}

	h.SetStreamHandler(protocol.ID(BlockProtocol), n.handleBlockStream)

	return n, nil
}

// Start logs the node identity and addresses.
func (n *Network) Start() error {
	n.log.Infow("p2p: started", "id", n.host.ID().String(), "addrs", n.FullAddrs())
	return nil
}

// Stop gracefully shuts down the network
func (n *Network) Stop() error {
	n.cancel()
	return n.host.Close()
}

// ID returns the host's peer id.
func (n *Network) ID() peer.ID {
	return n.host.ID()
}

// FullAddrs returns the listen addresses with the peer id appended, in the
// form ConnectToPeer accepts.
func (n *Network) FullAddrs() []string {
	addrs := make([]string, 0, len(n.host.Addrs()))
	for _, addr := range n.host.Addrs() {
		addrs = append(addrs, fmt.Sprintf("%s/p2p/%s", addr, n.host.ID()))
	}
	return addrs
}

// ConnectToPeer connects to a peer using its multiaddr
func (n *Network) ConnectToPeer(peerAddr string) error {
	addr, err := multiaddr.NewMultiaddr(peerAddr)
	if err != nil {
		return fmt.Errorf("invalid peer address: %w", err)
	}

	peerInfo, err := peer.AddrInfoFromP2pAddr(addr)
	if err != nil {
		return fmt.Errorf("failed to parse peer info: %w", err)
	}

	if err := n.host.Connect(n.ctx, *peerInfo); err != nil {
		return fmt.Errorf("failed to connect to peer: %w", err)
	}

	n.peerMutex.Lock()
	n.peers[peerInfo.ID] = true
	n.peerMutex.Unlock()

	n.log.Infow("p2p: connected", "peer", peerInfo.ID.String())
	return nil
}

// BroadcastBlock sends a mined block to every connected peer. Delivery
// failures are logged, not returned.
func (n *Network) BroadcastBlock(b *types.Block) error {
	frame, err := n.framer.Wrap(b)
	if err != nil {
		return err
	}

	n.peerMutex.RLock()
	peers := make([]peer.ID, 0, len(n.peers))
	for p := range n.peers {
		peers = append(peers, p)
	}
	n.peerMutex.RUnlock()

	for _, peerID := range peers {
		go func(peerID peer.ID) {
			if err := n.sendFrame(n.ctx, peerID, frame); err != nil {
				n.log.Infow("p2p: send block", "peer", peerID.String(), "ERROR", err)
			}
		}(peerID)
	}

	return nil
}

// SendBlock sends a mined block to one peer and waits for the write.
func (n *Network) SendBlock(ctx context.Context, peerID peer.ID, b *types.Block) error {
	frame, err := n.framer.Wrap(b)
	if err != nil {
		return err
	}
	return n.sendFrame(ctx, peerID, frame)
}

func (n *Network) sendFrame(ctx context.Context, peerID peer.ID, frame []byte) error {
	stream, err := n.host.NewStream(ctx, peerID, protocol.ID(BlockProtocol))
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer stream.Close()

	if _, err := stream.Write(frame); err != nil {
		stream.Reset()
		return fmt.Errorf("failed to send frame: %w", err)
	}

	return nil
}

// handleBlockStream reads one frame, verifies the block and hands it on.
func (n *Network) handleBlockStream(stream network.Stream) {
	defer stream.Close()

	from := stream.Conn().RemotePeer()

	b, err := n.framer.ReadFrame(stream)
	if err != nil {
		n.log.Infow("p2p: read frame", "peer", from.String(), "ERROR", err)
		stream.Reset()
		return
	}

	n.processReceivedBlock(from, b)
}

// processReceivedBlock processes a block received from the network
func (n *Network) processReceivedBlock(from peer.ID, b *types.Block) {
	if err := block.Verify(b); err != nil {
		n.log.Infow("p2p: invalid block", "peer", from.String(), "ERROR", err)
		return
	}
	hash, _ := b.Hash.Get()

	if n.store != nil {
		if n.store.BlockExists(hash) {
			return
		}
		if _, err := n.store.SaveBlock(b); err != nil {
			n.log.Errorw("p2p: save block", "hash", hash.String(), "ERROR", err)
			return
		}
	}

	n.log.Infow("p2p: block received", "peer", from.String(), "hash", hash.String())

	n.handlerMu.RLock()
	handler := n.blockHandler
	n.handlerMu.RUnlock()
	if handler != nil {
		handler(b)
	}
}

// SetBlockHandler sets a custom handler for received blocks
func (n *Network) SetBlockHandler(handler func(*types.Block)) {
	n.handlerMu.Lock()
	n.blockHandler = handler
	n.handlerMu.Unlock()
}

// GetPeerCount returns the number of connected peers
func (n *Network) GetPeerCount() int {
	n.peerMutex.RLock()
	defer n.peerMutex.RUnlock()
	return len(n.peers)
}

// GetPeers returns a list of connected peer IDs
func (n *Network) GetPeers() []string {
	n.peerMutex.RLock()
	defer n.peerMutex.RUnlock()

	peers := make([]string, 0, len(n.peers))
	for p := range n.peers {
		peers = append(peers, p.String())
	}
	return peers
}
