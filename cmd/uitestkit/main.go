package main

import (
	"os"

	"github.com/fjglira/uitestkit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
