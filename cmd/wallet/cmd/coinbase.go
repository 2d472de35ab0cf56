package cmd

import (
	"encoding/hex"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/yourusername/blockwire/internal/tx"
)

var coinbaseCmd = &cobra.Command{
	Use:   "coinbase <address>",
	Short: "Print a serialized coinbase transaction paying address",
	Args:  cobra.ExactArgs(1),
	Run:   coinbaseRun,
}

var reward uint64

func init() {
	rootCmd.AddCommand(coinbaseCmd)
	coinbaseCmd.Flags().Uint64VarP(&reward, "reward", "r", 5000000000, "Amount paid by the coinbase.")
}

func coinbaseRun(cmd *cobra.Command, args []string) {
	coinbase, err := tx.NewCoinbaseTx(args[0], reward)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("ID: ", coinbase.ID())
	fmt.Println("Hex:", hex.EncodeToString(coinbase.Serialize()))
}
