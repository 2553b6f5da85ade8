//nolint:revive // exported
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/internal/api/middleware/mwrequest"
)

type Service struct {
	Handler http.Handler
	Path    string
}

// Server mode constants
const (
	ServerModeUDS = "uds"
	ServerModeTCP = "tcp"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	Mode       string
	Port       string
	SocketPath string
	Logger     *slog.Logger
}

// DefaultSocketPath returns the default path for the server Unix socket.
func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), "scanflow", "server.socket")
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Accept-Post",
			"Connect-Accept-Encoding",
			"Connect-Content-Encoding",
			"Content-Encoding",
			mwrequest.HeaderRequestID,
		},
		MaxAge: int(time.Second),
	})
}

// NewHandler mounts services on one mux behind request ids, CORS and h2c.
func NewHandler(services []Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	for _, service := range services {
		logger.Info("Registering service", "path", service.Path)
		mux.Handle(service.Path, service.Handler)
	}

	// INFO: Use h2c so we can serve HTTP/2 without TLS.
	return h2c.NewHandler(newCORS().Handler(mwrequest.Handler(mux, logger)), &http2.Server{
		IdleTimeout:          0,
		MaxConcurrentStreams: 100000,
		MaxHandlers:          0,
	})
}

func newH2CServer(services []Service, logger *slog.Logger) *http.Server {
	return &http.Server{
		// NOTE: ConnectRPC requires an address even for Unix sockets.
		Addr:              "scanflow:0",
		ReadHeaderTimeout: 10 * time.Second,
		Handler:           NewHandler(services, logger),
	}
}

// ListenServices serves services on a Unix socket or TCP port until ctx is
// done, then shuts the server down gracefully.
func ListenServices(ctx context.Context, services []Service, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := newH2CServer(services, logger)
	listener, err := listen(ctx, srv, cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("Shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

func listen(ctx context.Context, srv *http.Server, cfg Config, logger *slog.Logger) (net.Listener, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = ServerModeUDS
	}

	switch mode {
	case ServerModeTCP:
		return listenTCP(ctx, srv, cfg.Port, logger)
	case ServerModeUDS:
		return listenIPC(ctx, srv, cfg.SocketPath, logger)
	default:
		logger.Warn("Unknown SERVER_MODE, falling back to uds", "mode", mode)
		return listenIPC(ctx, srv, cfg.SocketPath, logger)
	}
}

func listenTCP(ctx context.Context, srv *http.Server, port string, logger *slog.Logger) (net.Listener, error) {
	if port == "" {
		port = "8080"
	}
	srv.Addr = ":" + port

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen tcp %s: %w", srv.Addr, err)
	}
	logger.Info("Server listening on TCP", "port", port)
	return listener, nil
}

func listenIPC(ctx context.Context, srv *http.Server, socketPath string, logger *slog.Logger) (net.Listener, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0o750); err != nil {
		return nil, err
	}

	// Remove stale socket file if present (e.g., from a previous crash)
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove stale socket", "path", socketPath, "error", err)
	}

	lc := net.ListenConfig{}
	socket, err := lc.Listen(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix %s: %w", socketPath, err)
	}

	logger.Info("Server listening on Unix socket", "path", socketPath)

	srv.RegisterOnShutdown(func() {
		if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove socket on shutdown", "path", socketPath, "error", err)
		}
	})

	return socket, nil
}
