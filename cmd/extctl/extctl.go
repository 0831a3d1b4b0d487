// extctl checks nubabel extensions and manages them on a running hivemind.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiosk404/nubabel/internal/extctl/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.NewDefaultExtctlCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
