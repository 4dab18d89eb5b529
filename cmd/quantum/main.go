package main

import (
	"os"

	"github.com/wonny/quantum/cmd/quantum/commands"
)

// main is the entry point for the quantum CLI
// ⭐ go run ./cmd/quantum [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
