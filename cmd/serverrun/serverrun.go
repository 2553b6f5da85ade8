// Package serverrun wires configuration, storage and the RPC services into
// a running server.
package serverrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"golang.org/x/sync/errgroup"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/internal/api"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/internal/api/middleware/mwcodec"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/internal/api/middleware/mwcompress"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/internal/api/rworkflow"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/db"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/eventstream/memory"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/service/sworkflow"
)

// Run loads configuration from .env and the environment and serves until
// SIGINT or SIGTERM.
func Run() error {
	if err := LoadEnvFiles(".env"); err != nil {
		return err
	}
	cfg, err := LoadConfig(NewViper())
	if err != nil {
		return err
	}
	logger, err := NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Serve(ctx, cfg, logger)
}

// Serve runs the server with cfg until ctx is done.
func Serve(ctx context.Context, cfg Config, logger *slog.Logger) error {
	local, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database %q: %w", cfg.DBPath, err)
	}
	defer local.Close()
	logger.Info("Database ready", "path", cfg.DBPath)

	store := sworkflow.New(local.DB, logger, sworkflow.Options{
		CompressType:      cfg.Compression,
		CompressThreshold: cfg.CompressThreshold,
	})
	stream := memory.NewInMemorySyncStreamer[string, rworkflow.WorkflowEvent]()

	options := []connect.HandlerOption{
		mwcodec.WithJSONCodec(),
		mwcompress.WithZstd(),
		connect.WithCompression("gzip", nil, nil),
	}

	services, err := NewServices(store, stream, logger, options, cfg.WSOrigins)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.ListenServices(gctx, services, api.Config{
			Mode:       cfg.ServerMode,
			Port:       cfg.Port,
			SocketPath: cfg.SocketPath,
			Logger:     logger,
		})
	})
	g.Go(func() error {
		<-gctx.Done()
		stream.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// NewServices builds every service mounted by the server.
func NewServices(store *sworkflow.WorkflowService, stream rworkflow.Streamer, logger *slog.Logger, options []connect.HandlerOption, wsOrigins []string) ([]api.Service, error) {
	manager := NewServiceManager(2)

	srv := rworkflow.New(store, stream, logger)
	if err := manager.AddService(rworkflow.CreateService(srv, options)); err != nil {
		return nil, err
	}
	if err := manager.AddService(rworkflow.CreateStreamService(srv, wsOrigins), nil); err != nil {
		return nil, err
	}
	return manager.GetServices(), nil
}

type ServiceManager struct {
	s []api.Service
}

// size is not max size, but initial allocation size for the slice
func NewServiceManager(size int) *ServiceManager {
	return &ServiceManager{
		s: make([]api.Service, 0, size),
	}
}

func (sm *ServiceManager) AddService(s *api.Service, e error) error {
	if e != nil {
		return fmt.Errorf("create service: %w", e)
	}
	if s == nil {
		return errors.New("create service: nil service")
	}
	sm.s = append(sm.s, *s)
	return nil
}

func (sm *ServiceManager) GetServices() []api.Service {
	return sm.s
}
