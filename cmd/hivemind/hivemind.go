package main

import (
	"os"

	"github.com/kiosk404/nubabel/internal/hivemind"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := hivemind.NewApp("hivemind").Execute(); err != nil {
		os.Exit(1)
	}
}
