package hivemind

import (
	"context"

	"github.com/kiosk404/nubabel/internal/hivemind/config"
)

// Run builds the host from cfg and serves until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	server, err := createAPIServer(ctx, cfg)
	if err != nil {
		return err
	}

	return server.PrepareRun().Run(ctx)
}
