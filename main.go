// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hackparv/operator-cli/cmd"
)

// main is the entry point for operator-cli. Command-line parsing,
// configuration, and execution all live in the cmd package.
func main() {
	// Interrupts cancel the run context; the loop honors cancellation at
	// iteration boundaries.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
