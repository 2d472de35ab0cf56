package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/blockwire/internal/block"
	"github.com/yourusername/blockwire/internal/config"
	"github.com/yourusername/blockwire/internal/crypto"
	"github.com/yourusername/blockwire/internal/grpc"
	"github.com/yourusername/blockwire/internal/logger"
	"github.com/yourusername/blockwire/internal/p2p"
	"github.com/yourusername/blockwire/internal/pow"
	"github.com/yourusername/blockwire/internal/storage"
	"github.com/yourusername/blockwire/internal/tx"
	"github.com/yourusername/blockwire/internal/wire"
	"github.com/yourusername/blockwire/pkg/types"
)

var build = "develop"

func main() {
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println("Error constructing logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg, help, err := config.Parse("NODE", build)
	if err != nil {
		return err
	}
	if help != "" {
		fmt.Println(help)
		return nil
	}

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := cfg.String()
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	magic, err := cfg.WireMagic()
	if err != nil {
		return fmt.Errorf("chain magic: %w", err)
	}
	framer := wire.NewFramer(magic, cfg.Wire.MaxPayload)

	// =========================================================================
	// Storage

	store, err := storage.NewStorage(cfg.DB.BlocksPath)
	if err != nil {
		return err
	}
	defer store.Close()

	wallets, err := storage.NewWalletStorage(cfg.DB.WalletsPath)
	if err != nil {
		return err
	}
	defer wallets.Close()

	address, err := coinbaseAddress(cfg.Miner.Address, wallets, log)
	if err != nil {
		return err
	}

	// =========================================================================
	// Relay

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var network *p2p.Network
	if cfg.P2P.Enabled {
		network, err = p2p.NewNetwork(ctx, p2p.Config{ListenAddr: cfg.P2P.Listen}, framer, store, log)
		if err != nil {
			return err
		}
		defer network.Stop()

		if err := network.Start(); err != nil {
			return err
		}

		for _, addr := range cfg.P2P.Peers {
			if err := network.ConnectToPeer(addr); err != nil {
				log.Infow("p2p: connect", "peer", addr, "ERROR", err)
			}
		}
	}

	broadcast := func(b *types.Block) {
		if network == nil {
			return
		}
		if err := network.BroadcastBlock(b); err != nil {
			log.Infow("p2p: broadcast", "ERROR", err)
		}
	}

	serverErrors := make(chan error, 1)
	if cfg.RPC.Enabled {
		server := grpc.NewServer(store, framer, log)
		server.SetBlockHandler(broadcast)
		defer server.Stop()

		go func() {
			serverErrors <- server.Start(cfg.RPC.Host)
		}()
	}

	// =========================================================================
	// Mining

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	miner := pow.NewMiner(pow.Config{Workers: cfg.Miner.Workers}, log)

	mined := make(chan error, 1)
	go func() {
		mined <- mineBlocks(ctx, cfg, miner, store, address, broadcast, log)
	}()

	relaying := cfg.RPC.Enabled || cfg.P2P.Enabled

	for {
		select {
		case err := <-mined:
			if err != nil {
				return err
			}
			if !relaying {
				return nil
			}
			mined = nil

		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Infow("shutdown", "status", "shutdown started", "signal", sig)
			cancel()
			return nil
		}
	}
}

// coinbaseAddress picks the configured address, else the first stored
// wallet, else a newly created and saved wallet.
func coinbaseAddress(configured string, wallets *storage.WalletStorage, log *zap.SugaredLogger) (string, error) {
	if configured != "" {
		if _, err := crypto.DecodeAddress(configured); err != nil {
			return "", fmt.Errorf("miner address: %w", err)
		}
		return configured, nil
	}

	addresses, err := wallets.GetAllAddresses()
	if err != nil {
		return "", err
	}
	if len(addresses) > 0 {
		return addresses[0], nil
	}

	w, err := crypto.NewWallet()
	if err != nil {
		return "", fmt.Errorf("create wallet: %w", err)
	}
	address, err := wallets.SaveWallet(w)
	if err != nil {
		return "", err
	}

	log.Infow("wallet created", "address", address)
	return address, nil
}

// mineBlocks extends the stored tip by cfg.Miner.Blocks blocks.
func mineBlocks(ctx context.Context, cfg config.Config, miner *pow.Miner, store *storage.Storage, address string, relay func(*types.Block), log *zap.SugaredLogger) error {
	for i := 0; i < cfg.Miner.Blocks; i++ {
		prev, err := store.GetChainTip()
		switch {
		case errors.Is(err, storage.ErrNoTip):
			prev = crypto.ZeroHash
		case err != nil:
			return err
		}

		coinbase, err := tx.NewCoinbaseTx(address, cfg.Miner.Reward)
		if err != nil {
			return err
		}

		b := block.New(cfg.Chain.Version, prev, uint32(time.Now().Unix()), cfg.Chain.Difficulty, []*tx.Transaction{coinbase})

		start := time.Now()
		ok, err := block.Mine(ctx, b, miner)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if !ok {
			log.Infow("mine: nonce space exhausted", "prev", prev.String())
			continue
		}

		hash, err := store.SaveBlock(b)
		if err != nil {
			return err
		}
		if err := store.SaveChainTip(hash); err != nil {
			return err
		}

		log.Infow("mine: block mined", "hash", hash.String(), "nonce", b.Header.Nonce, "elapsed", time.Since(start).String())
		relay(b)
	}

	return nil
}
