package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/yourusername/blockwire/internal/crypto"
)

var importCmd = &cobra.Command{
	Use:   "import <hex-key>",
	Short: "Store an existing private key",
	Args:  cobra.ExactArgs(1),
	Run:   importRun,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func importRun(cmd *cobra.Command, args []string) {
	wallet, err := crypto.HexToPrivateKey(args[0])
	if err != nil {
		log.Fatal(err)
	}

	store, err := openWallets()
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	address, err := store.SaveWallet(wallet)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Address:", address)
}
