package main

import (
	"os"

	"github.com/jrsteele09/go-story-client/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
