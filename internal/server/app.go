// Package server wires the user directory, the auth core and the HTTP and
// gRPC listeners together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/auth"
	"github.com/dmitrijs2005/userkeeper/internal/server/config"
	"github.com/dmitrijs2005/userkeeper/internal/server/directory"
	"github.com/dmitrijs2005/userkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/userkeeper/internal/server/password"
	"github.com/dmitrijs2005/userkeeper/internal/server/users"

	gs "github.com/dmitrijs2005/userkeeper/internal/server/grpc"
)

// GinMode picks gin's process-wide mode for a log level: debug output only
// when the service itself logs at debug.
func GinMode(logLevel string) string {
	if logging.ParseLevel(logLevel) == slog.LevelDebug {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	dir         users.Directory
	userService *users.Service
	httpServer  *httpapi.Server
	grpcServer  *gs.Server
}

// NewApp opens the directory, seeds the admin account and builds both
// listeners. Nothing is served until Run. On error the directory is closed.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	issuer, err := auth.NewIssuer(c.TokenAlgorithm, []byte(c.TokenSecret), c.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	dir, err := directory.Open(ctx, c.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := users.NewService(dir, password.NewHasher(c.BcryptCost), issuer, logger)

	created, err := us.EnsureAdmin(ctx, c.AdminUsername, c.AdminPassword)
	if err != nil {
		_ = dir.Close()
		return nil, fmt.Errorf("admin bootstrap: %w", err)
	}
	logger.Info(ctx, "admin account ready", "username", c.AdminUsername, "created", created)

	router := httpapi.NewRouter(httpapi.Options{
		Users:          us,
		Guard:          auth.NewGuard(issuer, nil),
		Health:         dir,
		Logger:         logger,
		RequestTimeout: c.RequestTimeout,
	})

	return &App{
		config:      c,
		logger:      logger,
		dir:         dir,
		userService: us,
		httpServer:  httpapi.NewServer(c.HTTPAddr, router, logger),
		grpcServer:  gs.NewServer(c.GRPCAddr, logger, dir),
	}, nil
}

// Run serves HTTP and gRPC until ctx is cancelled, a termination signal
// arrives or either listener fails. The directory is closed on the way out.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.httpServer.Run(gctx) })
	g.Go(func() error { return app.grpcServer.Run(gctx) })

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
	}

	if cerr := app.dir.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close directory: %w", cerr))
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
