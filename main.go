package main

import (
	"os"

	"github.com/bimmerbailey/promptune/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
