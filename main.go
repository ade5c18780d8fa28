package main

import (
	"os"

	"github.com/wildstyl3r/cmpdrift/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
