// Package cmd contains the wallet app.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/blockwire/internal/storage"
)

var walletsPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&walletsPath, "wallets", "w", storage.GetWalletPath(), "Path to the wallet database.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage blockwire keys and coinbase payments",
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func openWallets() (*storage.WalletStorage, error) {
	return storage.NewWalletStorage(walletsPath)
}
