package main

import (
	"os"

	"github.com/wonny/finscore/cmd/finscore/commands"
)

// main is the entry point for the finscore CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/finscore [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
