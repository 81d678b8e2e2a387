package main

import (
	"os"

	"portfolioRiskBot/cmd/sortino/commands"
)

// go run ./cmd/sortino [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
