package main

import (
	"os"

	"github.com/pitchside/pitchside/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
