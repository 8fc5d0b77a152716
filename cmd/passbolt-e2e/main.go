// File: cmd/passbolt-e2e/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/passbolt-e2e/cmd"
	"github.com/xkilldash9x/passbolt-e2e/internal/observability"
)

// osExit can be replaced in tests.
var osExit = os.Exit

func main() {
	defer handlePanic()

	// Ctrl+C cancels a reset or probe in flight.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			osExit(0)
			return
		}
		osExit(1)
	}
}

func handlePanic() {
	if r := recover(); r != nil {
		observability.Sync()
		fmt.Fprintf(os.Stderr, "panic: %v\n\n%s", r, debug.Stack())
		osExit(2)
	}
}
