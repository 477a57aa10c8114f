package main

import (
	"os"

	"github.com/wonny/sgxsync/cmd/sgxsync/commands"
)

// ⭐ 통합 CLI 진입점
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
