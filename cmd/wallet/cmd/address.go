package cmd

import (
	"encoding/hex"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/yourusername/blockwire/internal/crypto"
)

var addressCmd = &cobra.Command{
	Use:   "address <address>",
	Short: "Check an address and print its public key hash",
	Args:  cobra.ExactArgs(1),
	Run:   addressRun,
}

func init() {
	rootCmd.AddCommand(addressCmd)
}

func addressRun(cmd *cobra.Command, args []string) {
	pubKeyHash, err := crypto.DecodeAddress(args[0])
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(hex.EncodeToString(pubKeyHash))
}
