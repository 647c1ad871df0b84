package main

import (
	"os"

	"github.com/magpie-md/magpie/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
