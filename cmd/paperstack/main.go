package main

import (
	"os"

	"github.com/paperstack-labs/paperstack-cli/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
