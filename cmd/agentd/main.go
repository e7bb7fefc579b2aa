// Command agentd runs the agent processor core: the lifecycle controller,
// iteration loop, and their collaborators, wired to a SQLite-backed store
// and whichever LLM providers have credentials configured.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
