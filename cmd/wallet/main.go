package main

import "github.com/yourusername/blockwire/cmd/wallet/cmd"

func main() {
	cmd.Execute()
}
