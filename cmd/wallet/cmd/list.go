package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored addresses",
	Run:   listRun,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listRun(cmd *cobra.Command, args []string) {
	store, err := openWallets()
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	addresses, err := store.GetAllAddresses()
	if err != nil {
		log.Fatal(err)
	}

	for _, address := range addresses {
		fmt.Println(address)
	}
}
