package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	relay "github.com/yourusername/blockwire/internal/grpc"
	"github.com/yourusername/blockwire/internal/wire"
)

var build = "develop"

func main() {
	if err := run(); err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := struct {
		conf.Version
		Host    string        `conf:"default:localhost:9090"`
		Magic   string        `conf:"default:f9beb4d9"`
		Timeout time.Duration `conf:"default:5s"`
		Depth   int           `conf:"default:1"`
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "blockwire relay probe",
		},
	}

	help, err := conf.Parse("RELAY", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	magic, err := wire.ParseMagic(cfg.Magic)
	if err != nil {
		return err
	}

	conn, err := grpc.Dial(cfg.Host, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	client := relay.NewClient(conn, wire.NewFramer(magic, 0))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	hash, err := client.GetTip(ctx)
	if err != nil {
		return fmt.Errorf("get tip: %w", err)
	}

	// Walk back from the tip until the zero hash or the requested depth.
	for i := 0; i < cfg.Depth && !hash.IsZero(); i++ {
		b, err := client.GetBlock(ctx, hash)
		if err != nil {
			return fmt.Errorf("get block %s: %w", hash, err)
		}

		fmt.Printf("Hash:       %s\n", hash)
		fmt.Printf("Prev:       %s\n", b.Header.PrevBlockHash)
		fmt.Printf("Merkle:     %s\n", b.Header.MerkleRoot)
		fmt.Printf("Time:       %d\n", b.Header.Time)
		fmt.Printf("Difficulty: %#08x\n", b.Header.Difficulty)
		fmt.Printf("Nonce:      %d\n", b.Header.Nonce)
		for _, t := range b.Transactions {
			fmt.Printf("  tx %s (%d in, %d out)\n", t.ID(), len(t.Inputs), len(t.Outputs))
		}
		fmt.Println()

		hash = b.Header.PrevBlockHash
	}

	return nil
}
