package main

import (
	"os"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
