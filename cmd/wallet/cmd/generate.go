package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/yourusername/blockwire/internal/crypto"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and store a new key pair",
	Run:   generateRun,
}

var showKey bool

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVar(&showKey, "show-key", false, "Print the private key.")
}

func generateRun(cmd *cobra.Command, args []string) {
	wallet, err := crypto.NewWallet()
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
	if showKey {
		fmt.Println("Private key:", crypto.PrivateKeyToHex(wallet.PrivateKey))
	}
}
