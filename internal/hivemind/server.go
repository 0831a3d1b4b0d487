package hivemind

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kiosk404/nubabel/internal/hivemind/config"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension"
	"github.com/kiosk404/nubabel/internal/hivemind/service/mcp"
	"github.com/kiosk404/nubabel/pkg/logger"
)

type apiServer struct {
	cfg     *config.Config
	gateway *GatewayConfig
	engine  *gin.Engine

	mcpModule       *mcp.Module
	extensionModule *extension.Module
}

type preparedAPIServer struct {
	*apiServer
}

func createAPIServer(ctx context.Context, cfg *config.Config) (*apiServer, error) {
	gin.SetMode(cfg.ServerRunOptions.Mode)

	// Initialize MCP module (K8S-style: Config → Complete → New).
	var (
		mcpModule *mcp.Module
		deps      extension.Dependencies
	)
	if cfg.MCPOptions.Enabled {
		mcpCfg := &mcp.Config{
			Enabled: true,
			Path:    cfg.MCPOptions.Path,
			Name:    cfg.MCPOptions.Name,
			Version: cfg.ExtensionOptions.HostVersion,
		}
		var err error
		mcpModule, err = mcpCfg.Complete().New(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create MCP module: %w", err)
		}
		deps.Tools = mcpModule.Host
		logger.Info("[Hivemind] MCP module initialized successfully")
	} else {
		logger.Info("[Hivemind] MCP disabled (mcp.enabled=false), extension tools are not published")
	}

	// Initialize Extension module.
	opts := cfg.ExtensionOptions
	extCfg := &extension.Config{
		Dir:           opts.Dir,
		PackagePaths:  opts.PackagePaths,
		HostVersion:   opts.HostVersion,
		ValidatePaths: &opts.ValidatePaths,
		HotReload:     opts.HotReload,
		LoadTimeout:   opts.LoadTimeout,
		OrgScope:      opts.OrgScope,
		StoreType:     opts.StoreType,
		BoltDBPath:    opts.BoltDBPath,
		Restore:       opts.Restore,
	}
	extModule, err := extCfg.Complete().New(ctx, deps)
	if err != nil {
		if mcpModule != nil {
			mcpModule.Close()
		}
		return nil, fmt.Errorf("failed to create Extension module: %w", err)
	}
	logger.Info("[Hivemind] Extension module initialized successfully")

	return &apiServer{
		cfg:             cfg,
		gateway:         buildGatewayConfig(cfg),
		engine:          gin.New(),
		mcpModule:       mcpModule,
		extensionModule: extModule,
	}, nil
}

func (s *apiServer) PrepareRun() preparedAPIServer {
	initRouter(s.engine, &routerDeps{
		extensions: s.extensionModule,
		mcp:        s.mcpModule,
		gateway:    s.gateway,
	})
	return preparedAPIServer{s}
}

// Run loads the configured extensions, serves HTTP and shuts down gracefully
// once ctx is done.
func (s preparedAPIServer) Run(ctx context.Context) error {
	defer s.close()

	if err := s.extensionModule.Start(ctx); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.cfg.ServerRunOptions.Address())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.ServerRunOptions.Address(), err)
	}
	return s.serve(ctx, ln)
}

func (s preparedAPIServer) serve(ctx context.Context, ln net.Listener) error {
	// Request contexts end with ctx so open event streams let Shutdown finish.
	srv := &http.Server{
		Handler:     s.engine,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Hivemind] serving on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("[Hivemind] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ServerRunOptions.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("[Hivemind] server stopped")
	return nil
}

// close stops the watcher, closes the stores and drops MCP tools.
func (s *apiServer) close() {
	if s.extensionModule != nil {
		if err := s.extensionModule.Close(); err != nil {
			logger.Warn("[Hivemind] close extension module: %v", err)
		}
	}
	if s.mcpModule != nil {
		s.mcpModule.Close()
	}
}
