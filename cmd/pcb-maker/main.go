package main

import (
	"os"

	"github.com/pgrudzien12/pcb-maker/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
