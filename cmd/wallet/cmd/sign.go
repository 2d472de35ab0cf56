package cmd

import (
	"encoding/hex"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/yourusername/blockwire/internal/tx"
)

var signCmd = &cobra.Command{
	Use:   "sign <address> <tx-hex>",
	Short: "Sign a serialized transaction with a stored key",
	Args:  cobra.ExactArgs(2),
	Run:   signRun,
}

func init() {
	rootCmd.AddCommand(signCmd)
}

func signRun(cmd *cobra.Command, args []string) {
	raw, err := hex.DecodeString(args[1])
	if err != nil {
		log.Fatal(err)
	}

	t, err := tx.Deserialize(raw)
	if err != nil {
		log.Fatal(err)
	}

	store, err := openWallets()
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	wallet, err := store.GetWallet(args[0])
	if err != nil {
		log.Fatal(err)
	}

	t.Sign(wallet)
	if !t.VerifySignature(wallet.PublicKeyBytes()) {
		log.Fatal("signature does not verify")
	}

	fmt.Println("ID: ", t.ID())
	fmt.Println("Hex:", hex.EncodeToString(t.Serialize()))
}
