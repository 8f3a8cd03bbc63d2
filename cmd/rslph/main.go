package main

import (
	"os"

	"github.com/vmakaev/rslph/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
